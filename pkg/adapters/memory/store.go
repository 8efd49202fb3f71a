// Package memory provides in-process stores for conversation state.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/capstone-ai/dna/pkg/domain"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Store implements ports.Store in memory.
// Values are kept JSON-encoded so callers never share state with the store.
// Safe for concurrent use.
type Store[T any] struct {
	data map[string]entry
	mu   sync.RWMutex
	ttl  time.Duration
	now  func() time.Time
}

// Option configures a Store.
type Option func(*options)

type options struct {
	ttl time.Duration
	now func() time.Time
}

// WithTTL expires entries ttl after their last Save. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewStore creates a new in-memory store.
func NewStore[T any](opts ...Option) *Store[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{
		data: make(map[string]entry),
		ttl:  o.ttl,
		now:  o.now,
	}
}

// Save persists a copy of value.
func (s *Store[T]) Save(ctx context.Context, id string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}
	e := entry{data: data}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = e
	return nil
}

// Load returns a fresh copy of the stored value.
func (s *Store[T]) Load(ctx context.Context, id string) (T, error) {
	var zero T
	s.mu.RLock()
	e, ok := s.data[id]
	s.mu.RUnlock()

	if !ok || s.expired(e) {
		return zero, domain.ErrNotFound
	}

	var out T
	if err := json.Unmarshal(e.data, &out); err != nil {
		return zero, fmt.Errorf("failed to decode value: %w", err)
	}
	return out, nil
}

// Delete removes the value.
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns the IDs of live entries, pruning expired ones.
func (s *Store[T]) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.data))
	for id, e := range s.data {
		if s.expired(e) {
			delete(s.data, id)
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store[T]) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}
