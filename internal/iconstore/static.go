package iconstore

import (
	"context"
	"sync"
)

// StaticStore keeps icons in memory. Used for tests and for running the
// pipeline against a seed catalog without a database file.
type StaticStore struct {
	mu     sync.RWMutex
	icons  []Icon
	byHash map[string]int64
	nextID int64
}

// NewStaticStore returns an empty in-memory store.
func NewStaticStore() *StaticStore {
	return &StaticStore{byHash: make(map[string]int64), nextID: 1}
}

// NewStaticStoreFromCatalog loads a YAML seed catalog into a fresh in-memory
// store.
func NewStaticStoreFromCatalog(path string) (*StaticStore, error) {
	icons, err := LoadCatalog(path)
	if err != nil {
		return nil, err
	}
	s := NewStaticStore()
	ctx := context.Background()
	for i := range icons {
		if _, err := s.AddIcon(ctx, &icons[i]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// AddIcon inserts an icon, deduplicating on content hash. The existing ID is
// returned when the same icon was added before.
func (s *StaticStore) AddIcon(ctx context.Context, icon *Icon) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := hashIcon(icon.Title, icon.URL)
	if id, ok := s.byHash[hash]; ok {
		return id, nil
	}

	id := s.nextID
	s.nextID++

	stored := *icon
	stored.ID = id
	stored.Subjects = append([]string(nil), icon.Subjects...)
	s.icons = append(s.icons, stored)
	s.byHash[hash] = id
	return id, nil
}

// ListIcons returns all icons in insertion order.
func (s *StaticStore) ListIcons(ctx context.Context) ([]Icon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Icon, len(s.icons))
	copy(out, s.icons)
	return out, nil
}

// Count returns the number of stored icons.
func (s *StaticStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.icons)), nil
}

// Close is a no-op for the in-memory store.
func (s *StaticStore) Close() error { return nil }
