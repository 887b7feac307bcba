// Package storage provides the persistence backends for ledger state: a
// JSON file (the default), SQLite, and an in-memory store for tests and
// ephemeral runs. Every backend saves the full state snapshot; there is no
// partial write.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"khata/internal/core"
)

// FileStore persists the state as one JSON document on disk. Writes go
// through a temp file and rename, so a crash mid-write never corrupts the
// previous snapshot.
type FileStore struct {
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("state file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (f *FileStore) Save(ctx context.Context, s *core.State) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	slog.DebugContext(ctx, "State saved to file", "path", f.path, "bytes", len(b))
	return nil
}

func (f *FileStore) Load(_ context.Context) (*core.State, error) {
	b, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	var s core.State
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}
	return &s, nil
}
