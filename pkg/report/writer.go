package report

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Writer emits lint result records.
//
// Implementations must be safe for concurrent use: sinks may report
// findings for different files from different goroutines. Each Write*
// method emits a complete record as a single line of JSON followed by
// a newline.
type Writer interface {
	WriteFinding(f *FindingRecord) error
	WriteFile(f *FileRecord) error
	WriteSummary(s *SummaryRecord) error

	// Close marks the writer closed. The underlying io.Writer is not
	// closed; that remains the caller's responsibility.
	Close() error
}

// JSONLWriter writes records as newline-delimited JSON.
//
// Writes are serialized by a mutex so lines never interleave.
type JSONLWriter struct {
	w     io.Writer
	runID string

	mu     sync.Mutex
	closed bool
}

// NewJSONLWriter creates a writer emitting to w. runID is a correlation
// ID stamped on every record; empty omits it.
func NewJSONLWriter(w io.Writer, runID string) *JSONLWriter {
	return &JSONLWriter{w: w, runID: runID}
}

func (jw *JSONLWriter) WriteFinding(f *FindingRecord) error {
	return jw.writeRecord(TypeFinding, f)
}

func (jw *JSONLWriter) WriteFile(f *FileRecord) error {
	return jw.writeRecord(TypeFile, f)
}

func (jw *JSONLWriter) WriteSummary(s *SummaryRecord) error {
	return jw.writeRecord(TypeSummary, s)
}

func (jw *JSONLWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	jw.closed = true
	return nil
}

func (jw *JSONLWriter) writeRecord(recordType string, data any) error {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return &WriteError{Op: "marshal_data", Err: err}
	}

	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.closed {
		return ErrWriterClosed
	}

	record := Record{
		Type:  recordType,
		TS:    time.Now().UTC(),
		RunID: jw.runID,
		Data:  dataBytes,
	}
	recordBytes, err := json.Marshal(record)
	if err != nil {
		return &WriteError{Op: "marshal_record", Err: err}
	}

	// io.Writer may return n < len(p) with a nil error; a short write
	// would silently truncate a JSONL line.
	recordBytes = append(recordBytes, '\n')
	if err := writeAll(jw.w, recordBytes); err != nil {
		return &WriteError{Op: "write", Err: err}
	}
	return nil
}

func writeAll(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

var _ Writer = (*JSONLWriter)(nil)
