// Package tempres tracks temporary files and directories created on
// behalf of one document's linting run, so they can be released together
// once every job for that document has finished.
package tempres

import (
	"errors"
	"os"
	"sync"
)

// Tracker accumulates temp paths for a single document.
//
// Tracker is safe for concurrent use, though in practice all mutation
// happens on the engine's event loop.
type Tracker struct {
	mu    sync.Mutex
	files []string
	dirs  []string
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// AddFile records a temp file for later removal.
func (t *Tracker) AddFile(path string) {
	if path == "" {
		return
	}
	t.mu.Lock()
	t.files = append(t.files, path)
	t.mu.Unlock()
}

// AddDir records a temp directory for later recursive removal.
func (t *Tracker) AddDir(path string) {
	if path == "" {
		return
	}
	t.mu.Lock()
	t.dirs = append(t.dirs, path)
	t.mu.Unlock()
}

// Len returns the number of tracked paths.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.files) + len(t.dirs)
}

// Release removes every tracked path and resets the tracker.
//
// Removal is best-effort: all paths are attempted even if some fail, and
// the joined error is returned. Paths already gone are not an error.
func (t *Tracker) Release() error {
	t.mu.Lock()
	files := t.files
	dirs := t.dirs
	t.files = nil
	t.dirs = nil
	t.mu.Unlock()

	var errs []error
	for _, f := range files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	for _, d := range dirs {
		if err := os.RemoveAll(d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
