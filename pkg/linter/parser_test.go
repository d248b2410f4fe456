package linter

import (
	"testing"

	"github.com/3leaps/lintkit/pkg/diag"
)

func TestNewRegexParser_RequiresLineGroup(t *testing.T) {
	if _, err := NewRegexParser(`^(?P<text>.*)$`); err == nil {
		t.Fatal("pattern without a line group must be rejected")
	}
}

func TestNewRegexParser_RejectsBadPattern(t *testing.T) {
	if _, err := NewRegexParser(`(?P<line>[`); err == nil {
		t.Fatal("invalid regexp must be rejected")
	}
}

func TestRegexParser_ExtractsFields(t *testing.T) {
	parse, err := NewRegexParser(
		`^(?P<file>[^:]+):(?P<line>\d+):(?P<col>\d+): (?P<severity>[EWI])(?P<code>\d+) (?P<text>.*)$`)
	if err != nil {
		t.Fatalf("NewRegexParser: %v", err)
	}

	doc := Document{ID: 1, Path: "app.py"}
	raws := parse(doc, []string{
		"app.py:3:10: E501 line too long",
		"app.py:7:1: W291 trailing whitespace",
		"make: *** [all] Error 2", // no match, skipped
	})

	if len(raws) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(raws))
	}

	first := raws[0]
	if first.Line != 3 || first.Col != 10 {
		t.Fatalf("position: got %d:%d", first.Line, first.Col)
	}
	if first.Code != "E" && first.Code != "501" {
		// severity letter and numeric code are separate groups here
		t.Fatalf("unexpected code %q", first.Code)
	}
	if first.Text != "line too long" {
		t.Fatalf("text: got %q", first.Text)
	}
	if first.Filename != "" {
		t.Fatalf("matching file should not set an override, got %q", first.Filename)
	}

	if raws[1].Severity != diag.SeverityWarning {
		t.Fatalf("severity: got %q want warning", raws[1].Severity)
	}
}

func TestRegexParser_FileOverride(t *testing.T) {
	parse, err := NewRegexParser(`^(?P<file>[^:]+):(?P<line>\d+): (?P<text>.*)$`)
	if err != nil {
		t.Fatalf("NewRegexParser: %v", err)
	}

	doc := Document{ID: 1, Path: "main.c"}
	raws := parse(doc, []string{"header.h:12: unknown type"})

	if len(raws) != 1 || raws[0].Filename != "header.h" {
		t.Fatalf("expected filename override header.h, got %+v", raws)
	}
}

func TestRegexParser_TextFallsBackToLine(t *testing.T) {
	parse, err := NewRegexParser(`^ERR (?P<line>\d+)$`)
	if err != nil {
		t.Fatalf("NewRegexParser: %v", err)
	}

	raws := parse(Document{}, []string{"ERR 9"})
	if len(raws) != 1 || raws[0].Text != "ERR 9" {
		t.Fatalf("expected whole-line fallback, got %+v", raws)
	}
}
