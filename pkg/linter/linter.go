// Package linter defines diagnostic sources: what command (or command
// chain) to run for a document, how to feed the document to the process,
// which output stream to read, and how to parse the result.
//
// Definitions come either from Go code (RegisterFunc-style construction
// of Linter values) or from a YAML manifest (see Load).
package linter

import (
	"github.com/3leaps/lintkit/pkg/diag"
	"github.com/3leaps/lintkit/pkg/match"
)

// Document is one in-memory text buffer under analysis. The engine
// indexes state by ID; Path and Lines are snapshots taken when a lint
// round is requested.
type Document struct {
	ID    int
	Path  string
	Lines []string
}

// LineCount returns the number of lines in the document.
func (d Document) LineCount() int {
	return len(d.Lines)
}

// StreamPolicy selects which process output streams feed the parser.
type StreamPolicy int

const (
	// StreamBoth reads stdout and stderr. Default.
	StreamBoth StreamPolicy = iota
	// StreamStdout reads stdout only.
	StreamStdout
	// StreamStderr reads stderr only.
	StreamStderr
)

// ReadPolicy controls how the live document content reaches the process.
type ReadPolicy int

const (
	// ReadStdin feeds the document's lines on the process's stdin and
	// closes it. Default for the final chain step.
	ReadStdin ReadPolicy = iota
	// ReadTempFile materializes the document as a file inside a
	// private temp directory; the command references it via %t.
	ReadTempFile
	// ReadNone gives the process no document content. Default for all
	// chain steps before the last.
	ReadNone
)

// LSPKind distinguishes process-based linters from server-backed ones.
type LSPKind int

const (
	// LSPNone marks an ordinary external-process linter.
	LSPNone LSPKind = iota
	// LSPGeneric marks a language-server source: diagnostics arrive as
	// whole-document publish notifications.
	LSPGeneric
	// LSPTSServer marks a tsserver-style source: syntax and semantic
	// diagnostics arrive as two independent notifications that are
	// concatenated (semantic first) before every merge.
	LSPTSServer
)

// CommandFunc produces the command for one chain step.
//
// input is the previous step's accumulated output (nil for the first
// step, and reset to nil after a skipped step). An empty return value
// means "skip this step".
//
// Commands may contain %e (the linter executable) and %t (path of the
// temp copy of the document, ReadTempFile only); both are expanded by
// the process runner.
type CommandFunc func(doc Document, input []string) string

// ParseFunc converts accumulated process output into raw diagnostics.
type ParseFunc func(doc Document, lines []string) []diag.Raw

// ChainStep is one element of a linter's command chain.
type ChainStep struct {
	// Command produces the step's command, or "" to skip the step.
	Command CommandFunc

	// Stream overrides the linter's stream policy for this step.
	Stream *StreamPolicy

	// Read overrides the default read policy for this step. Without an
	// override, only the final step reads the document.
	Read *ReadPolicy
}

// Linter is one configured diagnostic source.
type Linter struct {
	// Name identifies the linter in diagnostics, logs and history.
	Name string

	// Executable is the program probed for existence and substituted
	// for %e in commands. Unused for LSP-backed linters.
	Executable string

	// Command builds the single command for linters without a chain.
	Command CommandFunc

	// Chain is the ordered multi-step command sequence. When set,
	// Command is ignored.
	Chain []ChainStep

	// Stream is the default output-stream policy.
	Stream StreamPolicy

	// Read is the document read policy applied to the final step.
	Read ReadPolicy

	// TrailingNewline appends a final newline to stdin content, for
	// tools that misparse input without one.
	TrailingNewline bool

	// FileLevel marks expensive whole-project linters that survive
	// ordinary per-edit re-lint cancellation and only run when a round
	// explicitly asks for them.
	FileLevel bool

	// Kind selects process execution or an LSP/tsserver bridge.
	Kind LSPKind

	// RootMarkers are file names whose presence identifies the project
	// root for LSP connections (e.g. "package.json").
	RootMarkers []string

	// Parse converts output lines into raw diagnostics. Required for
	// process linters; unused for LSP-backed ones.
	Parse ParseFunc

	// SeverityRemap optionally rewrites severity categories.
	SeverityRemap diag.RemapTable

	// Files restricts which documents the linter applies to. Nil means
	// all documents.
	Files *match.Matcher
}

// AppliesTo reports whether the linter should run for the given
// document path.
func (l *Linter) AppliesTo(path string) bool {
	if l.Files == nil {
		return true
	}
	return l.Files.Match(path)
}

// Steps returns the linter's chain, synthesizing a one-step chain from
// Command when no explicit chain is configured.
func (l *Linter) Steps() []ChainStep {
	if len(l.Chain) > 0 {
		return l.Chain
	}
	if l.Command == nil {
		return nil
	}
	return []ChainStep{{Command: l.Command}}
}
