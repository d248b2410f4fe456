package tempres

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTracker_ReleaseRemovesFilesAndDirs(t *testing.T) {
	base := t.TempDir()

	file := filepath.Join(base, "doc.py")
	if err := os.WriteFile(file, []byte("print(1)\n"), 0600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	dir := filepath.Join(base, "rundir")
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	tr := NewTracker()
	tr.AddFile(file)
	tr.AddDir(dir)

	if tr.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tr.Len())
	}

	if err := tr.Release(); err != nil {
		t.Fatalf("Release() error: %v", err)
	}

	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Fatal("temp file should be removed")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatal("temp dir should be removed recursively")
	}
	if tr.Len() != 0 {
		t.Fatalf("tracker should be empty after release, Len() = %d", tr.Len())
	}
}

func TestTracker_ReleaseMissingPathIsNotAnError(t *testing.T) {
	tr := NewTracker()
	tr.AddFile(filepath.Join(t.TempDir(), "never-created"))

	if err := tr.Release(); err != nil {
		t.Fatalf("missing file should not fail release: %v", err)
	}
}

func TestTracker_ReleaseEmpty(t *testing.T) {
	tr := NewTracker()
	if err := tr.Release(); err != nil {
		t.Fatalf("empty release should be a no-op: %v", err)
	}
}
