// Package probe answers "is this program runnable?" with positive-result
// memoization.
//
// Linter configurations routinely reference tools that are not installed;
// absence is a normal condition, not an error. Probing happens on every
// lint round, so positive answers are cached forever — a program does not
// become less installed — while negative answers are re-checked each
// time, so a tool installed mid-session is picked up on the next round.
package probe

import (
	"os"
	"os/exec"
	"strings"
	"sync"
)

// CheckFunc performs the real executability check for a program name.
// It exists so tests can substitute the filesystem lookup.
type CheckFunc func(name string) bool

// Prober caches positive executability checks.
//
// Prober is safe for concurrent use.
type Prober struct {
	mu    sync.Mutex
	known map[string]struct{}
	check CheckFunc
}

// New creates a Prober using the default PATH/filesystem check.
func New() *Prober {
	return NewWithCheck(defaultCheck)
}

// NewWithCheck creates a Prober with a custom check function.
func NewWithCheck(check CheckFunc) *Prober {
	if check == nil {
		check = defaultCheck
	}
	return &Prober{
		known: make(map[string]struct{}),
		check: check,
	}
}

// IsExecutable reports whether name refers to a runnable program.
//
// A true result is cached permanently. A false result is never cached.
func (p *Prober) IsExecutable(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	p.mu.Lock()
	_, ok := p.known[name]
	p.mu.Unlock()
	if ok {
		return true
	}

	if !p.check(name) {
		return false
	}

	p.mu.Lock()
	p.known[name] = struct{}{}
	p.mu.Unlock()
	return true
}

// defaultCheck resolves bare names via PATH and paths via a direct
// stat + mode check.
func defaultCheck(name string) bool {
	if strings.ContainsRune(name, os.PathSeparator) || strings.ContainsRune(name, '/') {
		info, err := os.Stat(name)
		if err != nil || info.IsDir() {
			return false
		}
		return info.Mode()&0111 != 0
	}
	_, err := exec.LookPath(name)
	return err == nil
}
