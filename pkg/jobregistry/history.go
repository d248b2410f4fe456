package jobregistry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HistoryStore persists and loads RunRecords from an on-disk directory.
//
// Directory layout:
//
//	<root>/<run_id>/run.json
//
// Root is expected to be under the app data dir. History is best-effort:
// the engine logs write failures but never fails a lint round over them.
type HistoryStore struct {
	root string
}

// NewHistoryStore creates a store rooted at the given directory.
func NewHistoryStore(root string) *HistoryStore {
	return &HistoryStore{root: strings.TrimSpace(root)}
}

// RootDir returns the store's root directory.
func (s *HistoryStore) RootDir() string {
	return s.root
}

// RunDir returns the directory for one run.
func (s *HistoryStore) RunDir(runID string) string {
	return filepath.Join(s.root, runID)
}

// RunPath returns the record path for one run.
func (s *HistoryStore) RunPath(runID string) string {
	return filepath.Join(s.RunDir(runID), "run.json")
}

func (s *HistoryStore) ensureRoot() error {
	if strings.TrimSpace(s.root) == "" {
		return fmt.Errorf("history root dir is empty")
	}
	return os.MkdirAll(s.root, 0755)
}

// Append writes a new record for a freshly observed run and returns its
// generated run ID.
func (s *HistoryStore) Append(record *RunRecord) (string, error) {
	if record == nil {
		return "", fmt.Errorf("run record is nil")
	}
	if record.RunID == "" {
		record.RunID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if err := s.Write(record); err != nil {
		return "", err
	}
	return record.RunID, nil
}

// Write persists a record, replacing any prior version atomically.
func (s *HistoryStore) Write(record *RunRecord) error {
	if record == nil {
		return fmt.Errorf("run record is nil")
	}
	runID := strings.TrimSpace(record.RunID)
	if runID == "" {
		return fmt.Errorf("run_id is required")
	}
	if err := s.ensureRoot(); err != nil {
		return err
	}

	runDir := s.RunDir(runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}

	b, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run record: %w", err)
	}
	b = append(b, '\n')

	tmp, err := os.CreateTemp(runDir, "run.json.tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp run file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp run file: %w", err)
	}

	if err := os.Rename(tmpName, s.RunPath(runID)); err != nil {
		return fmt.Errorf("rename run file: %w", err)
	}
	return nil
}

// Get loads the record for one run ID.
func (s *HistoryStore) Get(runID string) (*RunRecord, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, fmt.Errorf("run_id is required")
	}
	b, err := os.ReadFile(s.RunPath(runID))
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" {
		return nil, fmt.Errorf("run.json is empty")
	}

	var record RunRecord
	if err := json.Unmarshal([]byte(trimmed), &record); err != nil {
		return nil, fmt.Errorf("parse run.json: %w", err)
	}
	return &record, nil
}

// List returns all records, newest first. Unreadable entries are
// skipped.
func (s *HistoryStore) List() ([]RunRecord, error) {
	if err := s.ensureRoot(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history root: %w", err)
	}

	out := make([]RunRecord, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		r, err := s.Get(entry.Name())
		if err != nil {
			continue
		}
		out = append(out, *r)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}
