package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pontos/backend/internal/domain/shared"
)

// expiringSet is a TTL map swept by a background goroutine
type expiringSet[V any] struct {
	mu        sync.Mutex
	entries   map[string]expiringEntry[V]
	now       func() time.Time
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type expiringEntry[V any] struct {
	value     V
	expiresAt time.Time
}

func newExpiringSet[V any](sweep time.Duration) *expiringSet[V] {
	s := &expiringSet[V]{
		entries: make(map[string]expiringEntry[V]),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	s.wg.Add(1)
	go s.sweepLoop(sweep)
	return s
}

// get returns the live value for key
func (s *expiringSet[V]) get(key string) (V, bool) {
	e, ok := s.entries[key]
	if !ok || !s.now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (s *expiringSet[V]) sweepLoop(every time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *expiringSet[V]) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}

// Close stops the sweeper. Safe to call more than once.
func (s *expiringSet[V]) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
	return nil
}

// InMemoryIdempotencyStore implements shared.IdempotencyStore in process memory.
// Claims are not shared between instances.
type InMemoryIdempotencyStore struct {
	*expiringSet[struct{}]
}

// NewInMemoryIdempotencyStore creates a store that sweeps expired claims every five minutes
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{newExpiringSet[struct{}](5 * time.Minute)}
}

// MarkProcessed claims key unless a live claim exists
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.get(key); ok {
		return false, nil
	}
	s.entries[key] = expiringEntry[struct{}]{expiresAt: s.now().Add(ttl)}
	return true, nil
}

// IsProcessed checks whether key is claimed
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.get(key)
	return ok, nil
}

// Release drops the claim
func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Size returns the number of stored entries, expired ones included until swept
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
