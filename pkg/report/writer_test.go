package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/3leaps/lintkit/pkg/diag"
)

func TestJSONLWriter_EmitsOneRecordPerLine(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "run-1")

	err := w.WriteFinding(&FindingRecord{
		Path: "/src/app.py",
		Diagnostic: diag.Diagnostic{
			Linter:   "flake8",
			Text:     "unused import",
			Code:     "F401",
			Severity: diag.SeverityWarning,
			Line:     1,
			Col:      1,
		},
	})
	if err != nil {
		t.Fatalf("WriteFinding: %v", err)
	}
	if err := w.WriteFile(&FileRecord{Path: "/src/app.py", Findings: 1}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := w.WriteSummary(&SummaryRecord{Files: 1, Findings: 1, Warnings: 1}); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("want 3 lines, got %d: %q", len(lines), buf.String())
	}

	var rec Record
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("line 0 is not valid JSON: %v", err)
	}
	if rec.Type != TypeFinding || rec.RunID != "run-1" {
		t.Fatalf("unexpected envelope: %+v", rec)
	}

	var finding FindingRecord
	if err := json.Unmarshal(rec.Data, &finding); err != nil {
		t.Fatalf("finding payload: %v", err)
	}
	if finding.Code != "F401" || finding.Path != "/src/app.py" {
		t.Fatalf("finding fields lost: %+v", finding)
	}

	if err := json.Unmarshal([]byte(lines[2]), &rec); err != nil {
		t.Fatalf("line 2 is not valid JSON: %v", err)
	}
	if rec.Type != TypeSummary {
		t.Fatalf("last record should be the summary, got %q", rec.Type)
	}
}

func TestJSONLWriter_WriteAfterClose(t *testing.T) {
	w := NewJSONLWriter(&bytes.Buffer{}, "")
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	err := w.WriteFile(&FileRecord{Path: "/f"})
	if !errors.Is(err, ErrWriterClosed) {
		t.Fatalf("want ErrWriterClosed, got %v", err)
	}
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return 0, nil }

func TestJSONLWriter_ShortWriteDetected(t *testing.T) {
	w := NewJSONLWriter(shortWriter{}, "")
	err := w.WriteFile(&FileRecord{Path: "/f"})

	var we *WriteError
	if !errors.As(err, &we) || we.Op != "write" {
		t.Fatalf("want a write-stage WriteError, got %v", err)
	}
}
