// pkg/memcache/ttl_store.go
package mem

import (
	"sync"
	"time"
)

// Store keeps values for a sliding TTL: every Get refreshes the deadline.
type Store[V any] struct {
	mu      sync.RWMutex
	data    map[string]entry[V]
	ttl     time.Duration
	onEvict func(key string, v V)
	now     func() time.Time
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewStore creates a store; onEvict (optional) runs outside the lock for
// every value that expires or is deleted.
func NewStore[V any](ttl time.Duration, onEvict func(key string, v V)) *Store[V] {
	return &Store[V]{
		data:    make(map[string]entry[V]),
		ttl:     ttl,
		onEvict: onEvict,
		now:     time.Now,
	}
}

func (s *Store[V]) Set(key string, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = entry[V]{value: v, expiresAt: s.now().Add(s.ttl)}
}

// Get returns the value and extends its lifetime. Expired values are
// evicted on access.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	e, ok := s.data[key]
	if !ok {
		s.mu.Unlock()
		var zero V
		return zero, false
	}
	now := s.now()
	if now.After(e.expiresAt) {
		delete(s.data, key) // cleanup expired
		s.mu.Unlock()
		s.evict(key, e.value)
		var zero V
		return zero, false
	}
	e.expiresAt = now.Add(s.ttl)
	s.data[key] = e
	s.mu.Unlock()
	return e.value, true
}

// GetOrCreate returns the live value for key, or stores and returns the
// result of create. The lookup and the insert happen under one lock, so
// concurrent callers for a new key all receive the same value.
func (s *Store[V]) GetOrCreate(key string, create func() V) V {
	s.mu.Lock()
	now := s.now()
	e, ok := s.data[key]
	expired := ok && now.After(e.expiresAt)
	if ok && !expired {
		e.expiresAt = now.Add(s.ttl)
		s.data[key] = e
		s.mu.Unlock()
		return e.value
	}
	v := create()
	s.data[key] = entry[V]{value: v, expiresAt: now.Add(s.ttl)}
	s.mu.Unlock()

	if expired {
		s.evict(key, e.value)
	}
	return v
}

func (s *Store[V]) Delete(key string) bool {
	s.mu.Lock()
	e, ok := s.data[key]
	delete(s.data, key)
	s.mu.Unlock()
	if ok {
		s.evict(key, e.value)
	}
	return ok
}

func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Sweep removes every expired value and returns how many were removed.
func (s *Store[V]) Sweep() int {
	type victim struct {
		key   string
		value V
	}
	var victims []victim

	s.mu.Lock()
	now := s.now()
	for k, e := range s.data {
		if now.After(e.expiresAt) {
			victims = append(victims, victim{k, e.value})
			delete(s.data, k)
		}
	}
	s.mu.Unlock()

	for _, v := range victims {
		s.evict(v.key, v.value)
	}
	return len(victims)
}

// Clear evicts everything, used on shutdown.
func (s *Store[V]) Clear() {
	s.mu.Lock()
	old := s.data
	s.data = make(map[string]entry[V])
	s.mu.Unlock()

	for k, e := range old {
		s.evict(k, e.value)
	}
}

func (s *Store[V]) evict(key string, v V) {
	if s.onEvict != nil {
		s.onEvict(key, v)
	}
}
