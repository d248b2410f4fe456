// Package report emits machine-readable lint results as JSONL, one
// self-describing record per line, suitable for piping into other
// tools.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/3leaps/lintkit/pkg/diag"
)

// Record types.
const (
	TypeFinding = "finding"
	TypeFile    = "file"
	TypeSummary = "summary"
)

// Record is the envelope wrapping every emitted line.
type Record struct {
	Type  string          `json:"type"`
	TS    time.Time       `json:"ts"`
	RunID string          `json:"run_id,omitempty"`
	Data  json.RawMessage `json:"data"`
}

// FindingRecord is one normalized diagnostic with its file path.
type FindingRecord struct {
	Path string `json:"path"`
	diag.Diagnostic
}

// FileRecord closes out one file's findings.
type FileRecord struct {
	Path     string `json:"path"`
	Findings int    `json:"findings"`
}

// SummaryRecord is the final record of a run.
type SummaryRecord struct {
	Files    int   `json:"files"`
	Findings int   `json:"findings"`
	Errors   int   `json:"errors"`
	Warnings int   `json:"warnings"`
	Infos    int   `json:"infos"`
	Duration int64 `json:"duration_ms"`
}

// ErrWriterClosed is returned by writes after Close.
var ErrWriterClosed = errors.New("report writer is closed")

// WriteError wraps a failure in a specific write stage.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("report write (%s): %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
