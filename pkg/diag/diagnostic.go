// Package diag defines the diagnostic data model shared by all linter
// sources, plus normalization of raw parser output into a form that is
// safe to merge and display.
//
// A raw diagnostic is whatever a per-linter parser produced from process
// output or an LSP notification. Normalization clamps positions into the
// document, applies defaults for optional fields, and stamps provenance
// so later publishes can replace one linter's contribution without
// touching the others.
package diag

// Severity classifies a diagnostic's importance.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// SubTypeStyle marks findings from style-oriented checks, which some
// frontends render differently from functional problems.
const SubTypeStyle = "style"

// Raw is a diagnostic as produced by a parsing collaborator, before
// normalization. Text and Line are required; everything else is optional
// and defaulted by Normalize.
type Raw struct {
	// Text is the primary message. Required.
	Text string

	// Line is the 1-based line number. Required, but may be out of
	// range; Normalize clamps it into the document.
	Line int

	// Col is the 1-based column, 0 when the source did not report one.
	Col int

	// EndLine and EndCol optionally delimit the end of the finding.
	EndLine int
	EndCol  int

	// Severity defaults to SeverityError when empty.
	Severity Severity

	// SubType is a finer-grained classification, e.g. SubTypeStyle.
	SubType string

	// Code is the source's own identifier for the finding ("E501").
	// Defaults to "none".
	Code string

	// Detail is an optional long-form explanation.
	Detail string

	// Filename overrides the linted document's path when the finding
	// refers to another file (headers, includes).
	Filename string

	// VisualCol indicates Col counts display cells rather than bytes.
	VisualCol bool
}

// Diagnostic is one normalized finding, ready for merging and
// publication.
type Diagnostic struct {
	// Linter is the name of the source that produced the finding.
	Linter string `json:"linter"`

	Text     string   `json:"text"`
	Detail   string   `json:"detail,omitempty"`
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	SubType  string   `json:"sub_type,omitempty"`

	// Line is 1-based and guaranteed to be within the document.
	Line int `json:"line"`

	// Col is 1-based, 0 when unspecified.
	Col     int `json:"col"`
	EndLine int `json:"end_line,omitempty"`
	EndCol  int `json:"end_col,omitempty"`

	// Filename is set only when the finding refers to a file other
	// than the linted document.
	Filename string `json:"filename,omitempty"`

	VisualCol bool `json:"visual_col,omitempty"`
}

// severityLetter returns the remap-table key for a severity/sub-type
// pair: "E", "W" or "I", with an "S" suffix for style findings.
func severityLetter(sev Severity, subType string) string {
	var letter string
	switch sev {
	case SeverityWarning:
		letter = "W"
	case SeverityInfo:
		letter = "I"
	default:
		letter = "E"
	}
	if subType == SubTypeStyle {
		return letter + "S"
	}
	return letter
}

// severityFromLetter resolves a remap-table target back into a
// severity/sub-type pair. ok is false for unrecognized targets.
func severityFromLetter(letter string) (Severity, string, bool) {
	switch letter {
	case "E":
		return SeverityError, "", true
	case "W":
		return SeverityWarning, "", true
	case "I":
		return SeverityInfo, "", true
	case "ES":
		return SeverityError, SubTypeStyle, true
	case "WS":
		return SeverityWarning, SubTypeStyle, true
	}
	return "", "", false
}
