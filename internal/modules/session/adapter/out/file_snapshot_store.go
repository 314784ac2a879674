package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"mobtime/internal/modules/session/domain"
	sessionout "mobtime/internal/modules/session/port/out"
)

// FileSnapshotStore keeps the session snapshot as a single JSON document.
type FileSnapshotStore struct {
	path string
}

func NewFileSnapshotStore(path string) sessionout.SnapshotStore {
	return &FileSnapshotStore{path: path}
}

// Load returns the defaults when no snapshot has been written yet. A
// malformed document also yields the defaults, along with the decode error.
func (s *FileSnapshotStore) Load(_ context.Context) (domain.Snapshot, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.DefaultSnapshot(), nil
		}
		return domain.DefaultSnapshot(), fmt.Errorf("read snapshot: %w", err)
	}
	return domain.DecodeSnapshotOrDefault(payload)
}

func (s *FileSnapshotStore) Save(_ context.Context, snapshot domain.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	payload, err := domain.EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
