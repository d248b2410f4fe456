package linter

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/3leaps/lintkit/pkg/diag"
	"github.com/3leaps/lintkit/pkg/match"
)

// Manifest is the on-disk YAML description of a set of linters.
type Manifest struct {
	Linters []LinterSpec `yaml:"linters"`
}

// LinterSpec is one linter entry in a manifest.
type LinterSpec struct {
	Name       string `yaml:"name"`
	Executable string `yaml:"executable"`

	// Command is a template; %e expands to the executable and %t to
	// the temp copy of the document (read: tempfile only).
	Command string      `yaml:"command"`
	Chain   []StepSpec  `yaml:"chain"`
	Stream  string      `yaml:"stream"` // stdout|stderr|both
	Read    string      `yaml:"read"`   // stdin|tempfile|none

	TrailingNewline bool   `yaml:"trailing_newline"`
	FileLevel       bool   `yaml:"file_level"`
	LSP             string `yaml:"lsp"` // none|generic|tsserver

	RootMarkers []string `yaml:"root_markers"`

	Parse       ParseSpec         `yaml:"parse"`
	SeverityMap map[string]string `yaml:"severity_map"`

	Patterns PatternSpec `yaml:"patterns"`
}

// StepSpec is one chain entry in a manifest.
type StepSpec struct {
	Command string `yaml:"command"`
	Stream  string `yaml:"stream"`
	Read    string `yaml:"read"`
}

// ParseSpec configures the built-in regex parser.
type ParseSpec struct {
	Pattern string `yaml:"pattern"`
}

// PatternSpec restricts a linter to matching files.
type PatternSpec struct {
	Include       []string `yaml:"include"`
	Exclude       []string `yaml:"exclude"`
	IncludeHidden bool     `yaml:"include_hidden"`
}

// Load reads a linter manifest from the given YAML file and builds the
// configured linters.
func Load(path string) ([]*Linter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("linter manifest not found: %s", path)
		}
		return nil, fmt.Errorf("read linter manifest: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses, validates and builds linters from raw manifest
// bytes.
func LoadFromBytes(data []byte) ([]*Linter, error) {
	if len(data) == 0 {
		return nil, errors.New("linter manifest is empty")
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse linter manifest: %w", err)
	}
	if len(m.Linters) == 0 {
		return nil, errors.New("linter manifest defines no linters")
	}

	out := make([]*Linter, 0, len(m.Linters))
	seen := make(map[string]struct{}, len(m.Linters))
	for i := range m.Linters {
		spec := &m.Linters[i]
		l, err := buildLinter(spec)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[l.Name]; dup {
			return nil, fmt.Errorf("linter %q: duplicate name", l.Name)
		}
		seen[l.Name] = struct{}{}
		out = append(out, l)
	}
	return out, nil
}

func buildLinter(spec *LinterSpec) (*Linter, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, errors.New("linter name is required")
	}
	fail := func(format string, args ...any) error {
		return fmt.Errorf("linter %q: %s", name, fmt.Sprintf(format, args...))
	}

	kind, err := parseKind(spec.LSP)
	if err != nil {
		return nil, fail("%v", err)
	}

	l := &Linter{
		Name:            name,
		Executable:      strings.TrimSpace(spec.Executable),
		TrailingNewline: spec.TrailingNewline,
		FileLevel:       spec.FileLevel,
		Kind:            kind,
		RootMarkers:     spec.RootMarkers,
	}

	if l.Stream, err = parseStream(spec.Stream); err != nil {
		return nil, fail("%v", err)
	}
	if l.Read, err = parseRead(spec.Read); err != nil {
		return nil, fail("%v", err)
	}

	if len(spec.Patterns.Include) > 0 {
		l.Files, err = match.New(match.Config{
			Includes:      spec.Patterns.Include,
			Excludes:      spec.Patterns.Exclude,
			IncludeHidden: spec.Patterns.IncludeHidden,
		})
		if err != nil {
			return nil, fail("%v", err)
		}
	} else if len(spec.Patterns.Exclude) > 0 {
		return nil, fail("patterns.exclude requires at least one include pattern")
	}

	if len(spec.SeverityMap) > 0 {
		l.SeverityRemap = make(diag.RemapTable, len(spec.SeverityMap))
		for k, v := range spec.SeverityMap {
			l.SeverityRemap[strings.ToUpper(k)] = strings.ToUpper(v)
		}
	}

	if kind != LSPNone {
		// Server-backed linters have no command, chain or parser.
		if spec.Command != "" || len(spec.Chain) > 0 {
			return nil, fail("lsp linters cannot define commands")
		}
		return l, nil
	}

	if l.Executable == "" {
		return nil, fail("executable is required")
	}
	if spec.Command == "" && len(spec.Chain) == 0 {
		return nil, fail("command or chain is required")
	}
	if spec.Command != "" && len(spec.Chain) > 0 {
		return nil, fail("command and chain are mutually exclusive")
	}

	if spec.Command != "" {
		if err := checkTemplate(spec.Command, l.Read); err != nil {
			return nil, fail("%v", err)
		}
		l.Command = templateCommand(spec.Command)
	}

	for si, step := range spec.Chain {
		cs := ChainStep{Command: templateCommand(step.Command)}
		if step.Stream != "" {
			s, err := parseStream(step.Stream)
			if err != nil {
				return nil, fail("chain step %d: %v", si, err)
			}
			cs.Stream = &s
		}
		if step.Read != "" {
			r, err := parseRead(step.Read)
			if err != nil {
				return nil, fail("chain step %d: %v", si, err)
			}
			cs.Read = &r
		}
		stepRead := l.Read
		if cs.Read != nil {
			stepRead = *cs.Read
		} else if si != len(spec.Chain)-1 {
			stepRead = ReadNone
		}
		if err := checkTemplate(step.Command, stepRead); err != nil {
			return nil, fail("chain step %d: %v", si, err)
		}
		l.Chain = append(l.Chain, cs)
	}

	if spec.Parse.Pattern == "" {
		return nil, fail("parse.pattern is required for process linters")
	}
	if l.Parse, err = NewRegexParser(spec.Parse.Pattern); err != nil {
		return nil, fail("%v", err)
	}

	return l, nil
}

// templateCommand builds a CommandFunc from a manifest template. The
// document path replaces %s; %e and %t are left for the process runner.
func templateCommand(tmpl string) CommandFunc {
	if tmpl == "" {
		return nil
	}
	return func(doc Document, _ []string) string {
		return strings.ReplaceAll(tmpl, "%s", doc.Path)
	}
}

// checkTemplate rejects %t in commands whose step will never create a
// temp file.
func checkTemplate(tmpl string, read ReadPolicy) error {
	if strings.Contains(tmpl, "%t") && read != ReadTempFile {
		return errors.New("%t requires read: tempfile")
	}
	return nil
}

func parseStream(s string) (StreamPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both":
		return StreamBoth, nil
	case "stdout":
		return StreamStdout, nil
	case "stderr":
		return StreamStderr, nil
	}
	return 0, fmt.Errorf("unknown stream policy %q (want stdout, stderr or both)", s)
}

func parseRead(s string) (ReadPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stdin":
		return ReadStdin, nil
	case "tempfile":
		return ReadTempFile, nil
	case "none":
		return ReadNone, nil
	}
	return 0, fmt.Errorf("unknown read policy %q (want stdin, tempfile or none)", s)
}

func parseKind(s string) (LSPKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return LSPNone, nil
	case "generic":
		return LSPGeneric, nil
	case "tsserver":
		return LSPTSServer, nil
	}
	return 0, fmt.Errorf("unknown lsp kind %q (want none, generic or tsserver)", s)
}
