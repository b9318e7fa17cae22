package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore se usa cuando no hay Redis. Solo protege dentro de una réplica.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]memoryEntry
	ttl     time.Duration
	nowFunc func() time.Time
}

type memoryEntry struct {
	rec       Record
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]memoryEntry),
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

// lookup devuelve la entrada vigente y limpia la vencida. Requiere s.mu.
func (s *MemoryStore) lookup(key string, now time.Time) (memoryEntry, bool) {
	e, ok := s.records[key]
	if ok && !now.Before(e.expiresAt) {
		delete(s.records, key)
		return memoryEntry{}, false
	}
	return e, ok
}

func (s *MemoryStore) CreateIfNotExists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc().UTC()
	if _, ok := s.lookup(key, now); ok {
		return false, nil
	}
	s.records[key] = memoryEntry{
		rec:       Record{Key: key, Status: StatusInProgress, CreatedAt: now, UpdatedAt: now},
		expiresAt: now.Add(s.ttl),
	}
	return true, nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key, s.nowFunc().UTC())
	if !ok {
		return nil, nil
	}
	rec := e.rec
	return &rec, nil
}

func (s *MemoryStore) MarkDone(ctx context.Context, key, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc().UTC()
	e, ok := s.lookup(key, now)
	if !ok {
		e.rec = Record{Key: key, CreatedAt: now}
	}
	e.rec.Status = StatusDone
	e.rec.OrderID = orderID
	e.rec.UpdatedAt = now
	e.expiresAt = now.Add(s.ttl)
	s.records[key] = e
	return nil
}

func (s *MemoryStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}
