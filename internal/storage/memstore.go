package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"khata/internal/core"
)

// MemoryStore keeps the snapshot in process memory. State does not survive a
// restart; useful for tests and throwaway runs.
type MemoryStore struct {
	mu    sync.Mutex
	saved []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(_ context.Context, s *core.State) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	m.mu.Lock()
	m.saved = b
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load(_ context.Context) (*core.State, error) {
	m.mu.Lock()
	b := m.saved
	m.mu.Unlock()
	if b == nil {
		return nil, nil
	}
	var s core.State
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &s, nil
}
