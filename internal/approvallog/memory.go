package approvallog

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func NewMemoryStoreWithNow(now func() time.Time) *MemoryStore {
	return &MemoryStore{now: now}
}

func (s *MemoryStore) Append(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, filter Filter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Entry, 0)
	for i := len(s.entries) - 1; i >= 0; i-- {
		if filter.matches(s.entries[i]) {
			result = append(result, s.entries[i])
		}
	}
	return result, nil
}

func (s *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return statsFrom(s.entries, s.now()), nil
}

func (s *MemoryStore) Export(ctx context.Context) ([]byte, error) {
	entries, err := s.Query(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(entries, "", "  ")
}

func (s *MemoryStore) snapshot() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *MemoryStore) load(entries []Entry) {
	s.mu.Lock()
	s.entries = append(s.entries[:0], entries...)
	s.mu.Unlock()
}
