package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/3leaps/lintkit/pkg/diag"
	"github.com/3leaps/lintkit/pkg/linter"
	"github.com/3leaps/lintkit/pkg/report"
)

var (
	pathColor    = color.New(color.Bold, color.FgWhite).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
	warningColor = color.New(color.FgYellow).SprintFunc()
	infoColor    = color.New(color.FgCyan).SprintFunc()
	dimColor     = color.New(color.Faint).SprintFunc()
)

type severityCounts struct {
	Errors   int
	Warnings int
	Infos    int
}

func (c *severityCounts) add(sev diag.Severity) {
	switch sev {
	case diag.SeverityError:
		c.Errors++
	case diag.SeverityWarning:
		c.Warnings++
	default:
		c.Infos++
	}
}

// reaches reports whether any counted finding meets the threshold.
// An empty threshold means "never fail".
func (c severityCounts) reaches(threshold diag.Severity) bool {
	switch threshold {
	case diag.SeverityError:
		return c.Errors > 0
	case diag.SeverityWarning:
		return c.Errors+c.Warnings > 0
	case diag.SeverityInfo:
		return c.Errors+c.Warnings+c.Infos > 0
	}
	return false
}

func severityTag(d diag.Diagnostic) string {
	label := string(d.Severity)
	if d.SubType == diag.SubTypeStyle {
		label += " (style)"
	}
	switch d.Severity {
	case diag.SeverityError:
		return errorColor(label)
	case diag.SeverityWarning:
		return warningColor(label)
	default:
		return infoColor(label)
	}
}

// renderText prints findings grouped per file, one per line:
//
//	path:line:col  severity  code  text  [linter]
func renderText(w io.Writer, docs []linter.Document, results map[int][]diag.Diagnostic) (severityCounts, error) {
	var counts severityCounts
	total := 0

	for _, doc := range docs {
		diags := results[doc.ID]
		if len(diags) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s\n", pathColor(doc.Path)); err != nil {
			return counts, err
		}
		for _, d := range diags {
			counts.add(d.Severity)
			total++
			line := fmt.Sprintf("  %d:%d  %s  %s  %s %s",
				d.Line, d.Col,
				severityTag(d),
				d.Code,
				d.Text,
				dimColor("["+d.Linter+"]"))
			if _, err := fmt.Fprintln(w, line); err != nil {
				return counts, err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return counts, err
		}
	}

	summary := fmt.Sprintf("%d findings (%s, %s, %s) in %d files",
		total,
		errorColor(fmt.Sprintf("%d errors", counts.Errors)),
		warningColor(fmt.Sprintf("%d warnings", counts.Warnings)),
		infoColor(fmt.Sprintf("%d infos", counts.Infos)),
		len(docs))
	if _, err := fmt.Fprintln(w, summary); err != nil {
		return counts, err
	}
	return counts, nil
}

type fileReport struct {
	Path        string            `json:"path"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
}

type checkReport struct {
	Files    []fileReport `json:"files"`
	Errors   int          `json:"errors"`
	Warnings int          `json:"warnings"`
	Infos    int          `json:"infos"`
}

func renderJSON(w io.Writer, docs []linter.Document, results map[int][]diag.Diagnostic) (severityCounts, error) {
	var counts severityCounts
	out := checkReport{Files: make([]fileReport, 0, len(docs))}

	for _, doc := range docs {
		diags := results[doc.ID]
		if diags == nil {
			diags = []diag.Diagnostic{}
		}
		for _, d := range diags {
			counts.add(d.Severity)
		}
		out.Files = append(out.Files, fileReport{Path: doc.Path, Diagnostics: diags})
	}
	out.Errors = counts.Errors
	out.Warnings = counts.Warnings
	out.Infos = counts.Infos

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return counts, err
	}
	return counts, nil
}

// renderJSONL streams one record per finding plus per-file and summary
// records, for piping into other tools.
func renderJSONL(w io.Writer, docs []linter.Document, results map[int][]diag.Diagnostic) (severityCounts, error) {
	var counts severityCounts
	started := time.Now()
	total := 0

	jw := report.NewJSONLWriter(w, uuid.New().String())
	defer func() { _ = jw.Close() }()

	for _, doc := range docs {
		diags := results[doc.ID]
		for _, d := range diags {
			counts.add(d.Severity)
			total++
			if err := jw.WriteFinding(&report.FindingRecord{Path: doc.Path, Diagnostic: d}); err != nil {
				return counts, err
			}
		}
		if err := jw.WriteFile(&report.FileRecord{Path: doc.Path, Findings: len(diags)}); err != nil {
			return counts, err
		}
	}

	err := jw.WriteSummary(&report.SummaryRecord{
		Files:    len(docs),
		Findings: total,
		Errors:   counts.Errors,
		Warnings: counts.Warnings,
		Infos:    counts.Infos,
		Duration: time.Since(started).Milliseconds(),
	})
	return counts, err
}
