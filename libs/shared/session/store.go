// Package session keeps per-client stateful objects (form and deck editors)
// in memory with idle expiry.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// Closer is implemented by values that must be torn down on eviction.
type Closer interface {
	Close()
}

type entry[T any] struct {
	value    T
	lastSeen time.Time
}

// Store maps generated ids to values. Values are handed out by reference; the
// store does not serialise access to them.
type Store[T any] struct {
	mu      sync.Mutex
	items   map[string]*entry[T]
	ttl     time.Duration
	now     func() time.Time
	stop    chan struct{}
	stopped sync.Once
	done    chan struct{}
}

// NewStore creates a store whose entries expire after ttl without access.
// A janitor sweeps expired entries every interval until Close is called.
func NewStore[T any](ttl, interval time.Duration) *Store[T] {
	s := &Store[T]{
		items: make(map[string]*entry[T]),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	if interval <= 0 {
		close(s.done)
		return s
	}
	go s.janitor(interval)
	return s
}

// Put stores value under a new id.
func (s *Store[T]) Put(value T) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.items[id] = &entry[T]{value: value, lastSeen: s.now()}
	s.mu.Unlock()
	return id
}

// Get returns the value for id and refreshes its expiry.
func (s *Store[T]) Get(id string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[id]
	if !ok || s.expired(e) {
		var zero T
		return zero, ErrNotFound
	}
	e.lastSeen = s.now()
	return e.value, nil
}

// Delete removes id and tears its value down.
func (s *Store[T]) Delete(id string) bool {
	s.mu.Lock()
	e, ok := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()

	if ok {
		closeValue(e.value)
	}
	return ok
}

// Len reports the number of live entries.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep evicts expired entries and returns how many were removed.
func (s *Store[T]) Sweep() int {
	s.mu.Lock()
	var evicted []T
	for id, e := range s.items {
		if s.expired(e) {
			evicted = append(evicted, e.value)
			delete(s.items, id)
		}
	}
	s.mu.Unlock()

	for _, v := range evicted {
		closeValue(v)
	}
	return len(evicted)
}

// Close stops the janitor and tears down every remaining value.
func (s *Store[T]) Close() {
	s.stopped.Do(func() { close(s.stop) })
	<-s.done

	s.mu.Lock()
	items := s.items
	s.items = make(map[string]*entry[T])
	s.mu.Unlock()

	for _, e := range items {
		closeValue(e.value)
	}
}

func (s *Store[T]) expired(e *entry[T]) bool {
	return s.ttl > 0 && s.now().Sub(e.lastSeen) > s.ttl
}

func (s *Store[T]) janitor(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}

func closeValue(v any) {
	if c, ok := v.(Closer); ok {
		c.Close()
	}
}
