// Package inmemory provides a process-local session store. State is copied
// on both save and load so callers never share memory with the store.
package inmemory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Bartekp26/Mushroom-AI-Identifier/agent"
	"github.com/Bartekp26/Mushroom-AI-Identifier/session"
)

// Store implements session.Store backed by a map.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewStore creates a new in-memory session store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Save implements session.Store.
func (s *Store) Save(ctx context.Context, id string, state *agent.State) error {
	b, err := json.Marshal(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = b
	return nil
}

// Load implements session.Store.
func (s *Store) Load(ctx context.Context, id string) (*agent.State, error) {
	s.mu.RLock()
	b, exists := s.data[id]
	s.mu.RUnlock()

	if !exists {
		return nil, session.ErrNotFound
	}

	var state agent.State
	if err := json.Unmarshal(b, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Delete implements session.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, id)
	return nil
}

// List implements session.Store.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

var _ session.Store = (*Store)(nil)
