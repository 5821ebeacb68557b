package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/sandeepkv93/streakd/internal/model"
)

// MemoryStore keeps everything in process. Save is a commit point with
// nothing to flush.
type MemoryStore struct {
	mu         sync.RWMutex
	activities map[string]model.Activity
	settings   map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		activities: map[string]model.Activity{},
		settings:   map[string]string{},
	}
}

func (s *MemoryStore) Insert(_ context.Context, a model.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[a.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, a.ID)
	}
	s.activities[a.ID] = a.Clone()
	return nil
}

func (s *MemoryStore) Update(_ context.Context, a model.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[a.ID]; !ok {
		return ErrNotFound
	}
	s.activities[a.ID] = a.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[id]; !ok {
		return ErrNotFound
	}
	delete(s.activities, id)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (model.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.activities[id]
	if !ok {
		return model.Activity{}, ErrNotFound
	}
	return a.Clone(), nil
}

func (s *MemoryStore) Fetch(_ context.Context, filter ActivityFilter) ([]model.Activity, error) {
	s.mu.RLock()
	out := make([]model.Activity, 0)
	for _, a := range s.activities {
		if filter.Match(a) {
			out = append(out, a.Clone())
		}
	}
	s.mu.RUnlock()

	sortByDate(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore) Save(context.Context) error { return nil }

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.activities)
}

// Settings exposes the key/value half of the store.
func (s *MemoryStore) Settings() KeyValueStore {
	return memorySettings{s}
}

type memorySettings struct {
	s *MemoryStore
}

func (m memorySettings) Get(_ context.Context, key string) (string, bool, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	v, ok := m.s.settings[key]
	return v, ok, nil
}

func (m memorySettings) Set(_ context.Context, key, value string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.settings[key] = value
	return nil
}
