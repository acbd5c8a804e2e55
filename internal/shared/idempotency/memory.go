package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-memory Store for tests and local development wiring.
// It mirrors the conditional-insert semantics of the redis and postgres
// adapters under a mutex.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) PutIfAbsent(_ context.Context, record Record, now time.Time) (bool, Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[record.Key]; ok && existing.ExpiresAt.After(now) {
		return false, existing, nil
	}
	// Absent, or present but past retention; redis would have evicted it.
	s.records[record.Key] = record
	return true, Record{}, nil
}

func (s *MemoryStore) Put(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.Key] = record
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string, now time.Time) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[key]
	if !ok {
		return Record{}, false, nil
	}
	if !record.ExpiresAt.After(now) {
		delete(s.records, key)
		return Record{}, false, nil
	}
	return record, true, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}
