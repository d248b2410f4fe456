// Package jobregistry tracks running linter jobs by handle and keeps an
// optional on-disk history of finished runs.
package jobregistry

import "time"

// Handle identifies one running job. Handles are never reused within a
// registry's lifetime.
type Handle uint64

// Stopper stops the underlying process of a job. Implemented by the
// engine's process collaborator.
type Stopper interface {
	Stop()
}

// Job is the registry's record of one running linter process.
//
// A Job is exclusively owned by the Registry; other components hold only
// the Handle and must go through Lookup.
type Job struct {
	Handle Handle

	// Linter is the name of the source that started the job.
	Linter string

	// Document is the handle of the document being linted.
	Document int

	// ChainStep is the index of the chain step this job executes,
	// 0 for linters without a chain.
	ChainStep int

	// Output accumulates the job's captured output lines.
	Output []string

	// Proc stops the underlying process on cancellation. Nil for jobs
	// whose process has already exited.
	Proc Stopper
}

// RunState is the lifecycle state recorded in run history.
//
// NOTE: These values are persisted in run.json and are part of the
// stable on-disk contract.
type RunState string

const (
	RunStateStarted   RunState = "started"
	RunStateFailed    RunState = "failed"
	RunStateExited    RunState = "exited"
	RunStateCancelled RunState = "cancelled"
)

// RunRecord is the persistent record written to run.json, one per
// command executed (or attempted) for a document.
//
// The schema is designed for backward-compatible extension (additive
// fields).
type RunRecord struct {
	RunID    string   `json:"run_id"`
	Linter   string   `json:"linter"`
	Document string   `json:"document"`
	Command  string   `json:"command,omitempty"`
	State    RunState `json:"state"`
	ExitCode int      `json:"exit_code,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}
