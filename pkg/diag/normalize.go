package diag

import "sort"

// RemapTable optionally rewrites severity categories per linter.
//
// Keys and values are severity letters as produced by severityLetter:
// "E", "W", "I", "ES", "WS". An entry with an unrecognized value is
// ignored rather than rejected, so a stale config entry cannot break a
// linting round.
type RemapTable map[string]string

// Normalize converts one raw diagnostic into its normalized form.
//
// lineCount is the number of lines in the linted document; lines below 1
// clamp to 1 and lines past the end clamp to the last line. linter is
// stamped as provenance. remap may be nil.
//
// A Raw with empty Text or a zero Line indicates a parser bug upstream;
// Normalize does not repair those fields beyond the documented clamping.
func Normalize(raw Raw, lineCount int, linter string, remap RemapTable) Diagnostic {
	line := raw.Line
	if line < 1 {
		line = 1
	}
	if lineCount > 0 && line > lineCount {
		line = lineCount
	}

	sev := raw.Severity
	if sev == "" {
		sev = SeverityError
	}
	subType := raw.SubType

	if len(remap) > 0 {
		if target, ok := remap[severityLetter(sev, subType)]; ok {
			if newSev, newSub, known := severityFromLetter(target); known {
				sev, subType = newSev, newSub
			}
		}
	}

	code := raw.Code
	if code == "" {
		code = "none"
	}

	return Diagnostic{
		Linter:    linter,
		Text:      raw.Text,
		Detail:    raw.Detail,
		Code:      code,
		Severity:  sev,
		SubType:   subType,
		Line:      line,
		Col:       raw.Col,
		EndLine:   raw.EndLine,
		EndCol:    raw.EndCol,
		Filename:  raw.Filename,
		VisualCol: raw.VisualCol,
	}
}

// NormalizeAll normalizes a batch of raw diagnostics in order.
func NormalizeAll(raws []Raw, lineCount int, linter string, remap RemapTable) []Diagnostic {
	if len(raws) == 0 {
		return nil
	}
	out := make([]Diagnostic, 0, len(raws))
	for _, r := range raws {
		out = append(out, Normalize(r, lineCount, linter, remap))
	}
	return out
}

// Sort orders diagnostics by (line, column) with linter name as a
// deterministic tie-break. The sort is stable, so entries that compare
// equal keep their insertion order.
func Sort(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Col != b.Col {
			return a.Col < b.Col
		}
		return a.Linter < b.Linter
	})
}
