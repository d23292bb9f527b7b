package progress

import (
	"context"
	"sync"
	"time"

	"github.com/kanadm12/Spartis-App/internal/models"
	"github.com/kanadm12/Spartis-App/internal/store"
)

// MemoryStore is an in-process ProgressStore with the same expiry semantics
// as the redis one. Useful for tests and for running without redis.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	rec      models.ProgressRecord
	deadline time.Time
}

var _ store.ProgressStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]memoryEntry),
		ttl:     TTL,
		now:     time.Now,
	}
}

func (s *MemoryStore) SetProgress(_ context.Context, jobID string, rec models.ProgressRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[jobID] = memoryEntry{rec: rec, deadline: s.now().Add(s.ttl)}
	return nil
}

// JobIDs lists the ids of all unexpired records.
func (s *MemoryStore) JobIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.records))
	for id, entry := range s.records {
		if s.now().After(entry.deadline) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (s *MemoryStore) GetProgress(_ context.Context, jobID string) (*models.ProgressRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.records[jobID]
	if !ok || s.now().After(entry.deadline) {
		return nil, store.ErrNotFound
	}
	rec := entry.rec
	return &rec, nil
}
