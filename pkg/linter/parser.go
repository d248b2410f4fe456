package linter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/3leaps/lintkit/pkg/diag"
)

// NewRegexParser builds a ParseFunc that applies one regular expression
// per output line, extracting fields from named capture groups.
//
// Recognized group names:
//
//	line, col, end_line, end_col — integer positions
//	text, code, detail, file    — strings
//	severity                    — "E"/"W"/"I" letters or the words
//	                              error/warning/info (case-insensitive)
//	style                       — any non-empty capture marks the
//	                              finding as a style sub-type
//
// Lines that do not match the pattern are skipped. A group named line is
// required; text falls back to the whole matched line when absent.
func NewRegexParser(pattern string) (ParseFunc, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile parse pattern: %w", err)
	}

	idx := make(map[string]int)
	for i, name := range re.SubexpNames() {
		if name != "" {
			idx[name] = i
		}
	}
	if _, ok := idx["line"]; !ok {
		return nil, fmt.Errorf("parse pattern needs a (?P<line>...) group")
	}

	return func(doc Document, lines []string) []diag.Raw {
		var out []diag.Raw
		for _, ln := range lines {
			m := re.FindStringSubmatch(ln)
			if m == nil {
				continue
			}
			group := func(name string) string {
				if i, ok := idx[name]; ok {
					return m[i]
				}
				return ""
			}

			raw := diag.Raw{
				Line:    atoiOrZero(group("line")),
				Col:     atoiOrZero(group("col")),
				EndLine: atoiOrZero(group("end_line")),
				EndCol:  atoiOrZero(group("end_col")),
				Text:    group("text"),
				Code:    group("code"),
				Detail:  group("detail"),
			}
			if raw.Text == "" {
				raw.Text = ln
			}
			if f := group("file"); f != "" && f != doc.Path {
				raw.Filename = f
			}
			raw.Severity = severityFromToken(group("severity"))
			if group("style") != "" {
				raw.SubType = diag.SubTypeStyle
			}
			out = append(out, raw)
		}
		return out
	}, nil
}

func atoiOrZero(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func severityFromToken(tok string) diag.Severity {
	switch strings.ToLower(tok) {
	case "w", "warning", "warn":
		return diag.SeverityWarning
	case "i", "n", "info", "note", "hint":
		return diag.SeverityInfo
	case "":
		return "" // normalizer applies the default
	default:
		return diag.SeverityError
	}
}
