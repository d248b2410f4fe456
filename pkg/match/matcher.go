// Package match decides which linters apply to which source files using
// doublestar glob semantics over slash-separated paths.
package match

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher evaluates include/exclude patterns against source file paths.
//
// A Matcher is configured with include and exclude patterns:
//   - Include patterns: the file must match at least one
//   - Exclude patterns: the file must not match any
//
// The Matcher is safe for concurrent use after creation.
type Matcher struct {
	includes      []string
	excludes      []string
	includeHidden bool
}

// Config configures a Matcher.
type Config struct {
	// Includes are glob patterns that files must match (at least one).
	// Required: at least one include pattern must be specified.
	Includes []string

	// Excludes are glob patterns that files must not match (any).
	// Optional: if empty, no excludes are applied.
	Excludes []string

	// IncludeHidden controls whether hidden files are matched.
	// Hidden files have path segments starting with '.'.
	// Default: false (hidden files are excluded).
	IncludeHidden bool
}

// Errors returned by Matcher operations.
var (
	// ErrNoIncludes is returned when no include patterns are provided.
	ErrNoIncludes = errors.New("at least one include pattern is required")

	// ErrInvalidPattern is returned when a pattern cannot be compiled.
	ErrInvalidPattern = errors.New("invalid glob pattern")
)

// PatternError wraps pattern-related errors with context.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return "pattern " + e.Pattern + ": " + e.Err.Error()
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// New creates a new Matcher from the given configuration.
//
// Patterns and matched paths are normalized to forward slashes, so
// Windows-style paths work transparently.
//
// Returns an error if:
//   - No include patterns are provided
//   - Any pattern is invalid (cannot be compiled)
func New(cfg Config) (*Matcher, error) {
	if len(cfg.Includes) == 0 {
		return nil, ErrNoIncludes
	}

	includes := make([]string, 0, len(cfg.Includes))
	for _, raw := range cfg.Includes {
		normalized := filepath.ToSlash(raw)
		if !doublestar.ValidatePattern(normalized) {
			return nil, &PatternError{Pattern: raw, Err: ErrInvalidPattern}
		}
		includes = append(includes, normalized)
	}

	excludes := make([]string, 0, len(cfg.Excludes))
	for _, raw := range cfg.Excludes {
		normalized := filepath.ToSlash(raw)
		if !doublestar.ValidatePattern(normalized) {
			return nil, &PatternError{Pattern: raw, Err: ErrInvalidPattern}
		}
		excludes = append(excludes, normalized)
	}

	return &Matcher{
		includes:      includes,
		excludes:      excludes,
		includeHidden: cfg.IncludeHidden,
	}, nil
}

// Match returns true if the path matches the include/exclude patterns.
//
// A path matches if:
//  1. It matches at least one include pattern
//  2. It does not match any exclude pattern
//  3. It is not hidden (unless IncludeHidden is true)
//
// Patterns are matched against the full slash-normalized path, and —
// when the pattern contains no slash — against the basename alone, so a
// plain "*.py" works for files in any directory.
func (m *Matcher) Match(path string) bool {
	path = filepath.ToSlash(path)

	if !m.includeHidden && IsHidden(path) {
		return false
	}

	matched := false
	for _, inc := range m.includes {
		if matchPattern(inc, path) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	for _, exc := range m.excludes {
		if matchPattern(exc, path) {
			return false
		}
	}

	return true
}

// IncludePatterns returns the normalized include patterns.
func (m *Matcher) IncludePatterns() []string {
	return append([]string(nil), m.includes...)
}

// ExcludePatterns returns the normalized exclude patterns.
func (m *Matcher) ExcludePatterns() []string {
	return append([]string(nil), m.excludes...)
}

// IsHidden reports whether any segment of the path starts with a dot.
func IsHidden(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if len(seg) > 1 && seg[0] == '.' && seg != ".." {
			return true
		}
	}
	return false
}

// matchPattern matches a path against a doublestar pattern.
func matchPattern(pattern, path string) bool {
	target := path
	if !strings.Contains(pattern, "/") {
		// Bare patterns like "*.py" match the basename.
		if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
			target = path[idx+1:]
		}
	}
	matched, err := doublestar.Match(pattern, target)
	if err != nil {
		// Pattern was validated at construction time, so this shouldn't happen
		return false
	}
	return matched
}
