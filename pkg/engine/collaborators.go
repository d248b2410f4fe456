package engine

import (
	"time"

	"github.com/3leaps/lintkit/pkg/diag"
	"github.com/3leaps/lintkit/pkg/linter"
)

// SpawnSpec describes one process launch.
type SpawnSpec struct {
	// Command is a shell command line.
	Command string

	// Stdin lines are written to the process (each followed by a
	// newline) and stdin is closed. Nil means no stdin content.
	Stdin []string

	// OnStdout and OnStderr receive output one line at a time. A nil
	// callback discards that stream.
	OnStdout func(line string)
	OnStderr func(line string)

	// OnExit fires exactly once after both streams are drained.
	OnExit func(code int)
}

// Process is a handle on a launched process.
type Process interface {
	// Stop terminates the process. Callbacks for a stopped process may
	// still fire; the engine discards them via registry lookup.
	Stop()
}

// Spawner launches external processes. The production implementation is
// ExecSpawner; tests substitute a synchronous fake that synthesizes the
// same callback sequence.
type Spawner interface {
	Start(spec SpawnSpec) (Process, error)
}

// LSPMessageKind tags messages delivered by an LSP connection.
type LSPMessageKind int

const (
	// LSPPublishDiagnostics carries a complete replacement diagnostic
	// set for one file (generic language servers).
	LSPPublishDiagnostics LSPMessageKind = iota
	// LSPSemanticDiagnostics carries the semantic half of a
	// tsserver-style source's findings.
	LSPSemanticDiagnostics
	// LSPSyntaxDiagnostics carries the syntax half.
	LSPSyntaxDiagnostics
)

// LSPMessage is one diagnostic notification from a server connection.
type LSPMessage struct {
	Kind        LSPMessageKind
	Filename    string
	Diagnostics []diag.Raw
}

// SyncRequest asks a generic language server to synchronize a document,
// which triggers a diagnostics publish.
type SyncRequest struct {
	Filename string
	Lines    []string
}

// GetErrRequest asks a tsserver-style source for fresh diagnostics.
type GetErrRequest struct {
	Filename string
}

// Conn is one open server connection, shared by all documents under the
// same project root.
type Conn interface {
	ID() string
	ProjectRoot() string

	// Send dispatches a request or notification. A zero request id (or
	// an error) means the send failed and the linter must not be
	// marked active.
	Send(msg any) (int64, error)
}

// LSPConnector opens or reuses server connections. The transport and
// connection lifecycle live outside the engine.
type LSPConnector interface {
	// Connect returns the connection for the document's project root,
	// opening it if needed. onMessage delivers asynchronous
	// diagnostics for any document on the connection.
	Connect(doc linter.Document, l *linter.Linter, onMessage func(connID string, msg LSPMessage)) (Conn, error)
}

// Sink consumes published diagnostic lists. Implementations must not
// block: they are invoked on the engine's event loop.
type Sink interface {
	// Publish delivers the full merged, sorted list for a document.
	Publish(doc linter.Document, diags []diag.Diagnostic)

	// Settled fires once all linters for a document have finished,
	// for end-of-run cleanup such as removing placeholder markers.
	Settled(doc linter.Document)
}

// Clock supplies monotonic millisecond timestamps. A reading of exactly
// zero is treated as a fatal environment fault by WaitUntilIdle.
type Clock interface {
	NowMillis() int64
}

type wallClock struct {
	base time.Time
}

func newWallClock() wallClock {
	// Offset by one millisecond so a reading taken immediately after
	// construction can never be zero.
	return wallClock{base: time.Now().Add(-time.Millisecond)}
}

func (c wallClock) NowMillis() int64 {
	return time.Since(c.base).Milliseconds()
}
