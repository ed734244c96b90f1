package storage

import (
	"context"
	"sync"
)

// MemoryStore implements Store using in-memory maps.
// Intended for demos and testing — no database required.
type MemoryStore struct {
	mu    sync.RWMutex
	kinds map[string][]Record
}

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{kinds: make(map[string][]Record)}
}

func (s *MemoryStore) FetchCollection(_ context.Context, kind string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.kinds[kind]
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out, nil
}

func (s *MemoryStore) FetchByIDs(_ context.Context, kind string, ids []string) ([]Record, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, r := range s.kinds[kind] {
		if want[r.ID()] {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateRecord(_ context.Context, kind, id string, partial map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.kinds[kind] {
		if r.ID() != id {
			continue
		}
		updated := r.Clone()
		for k, v := range partial {
			updated[k] = v
		}
		s.kinds[kind][i] = updated
		return nil
	}
	return ErrNotFound
}

func (s *MemoryStore) DeleteRecord(_ context.Context, kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.kinds[kind]
	for i, r := range records {
		if r.ID() == id {
			s.kinds[kind] = append(records[:i:i], records[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) InsertRecord(_ context.Context, kind string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kinds[kind] = append(s.kinds[kind], rec.Clone())
	return nil
}
