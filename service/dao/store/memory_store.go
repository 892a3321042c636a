// Package store provides a generic mutex-guarded in-memory dao.Service.
package store

import (
	"context"
	"sync"

	"github.com/viant/actiongate/service/dao"
)

// MemoryStore keeps entities of type *T mapped by the key returned from
// keySelector. Without a cloner entities are stored and returned by pointer
// and Update is the only safe way to mutate one that other goroutines may
// read; with a cloner every entity crossing the store boundary is copied
// under the lock.
type MemoryStore[K comparable, T any] struct {
	mu          sync.RWMutex
	records     map[K]*T
	keySelector func(*T) K
	matcher     func(*T, []*dao.Parameter) bool
	cloner      func(*T) *T
}

// Option customises the store.
type Option[K comparable, T any] func(*MemoryStore[K, T])

// WithMatcher sets the predicate List applies to parameters.
func WithMatcher[K comparable, T any](matcher func(*T, []*dao.Parameter) bool) Option[K, T] {
	return func(s *MemoryStore[K, T]) { s.matcher = matcher }
}

// WithCloner sets the copy function applied on Save, Load, List and Update.
func WithCloner[K comparable, T any](cloner func(*T) *T) Option[K, T] {
	return func(s *MemoryStore[K, T]) { s.cloner = cloner }
}

func (s *MemoryStore[K, T]) copy(v *T) *T {
	if s.cloner == nil || v == nil {
		return v
	}
	return s.cloner(v)
}

// NewMemoryStore creates a store.
func NewMemoryStore[K comparable, T any](keySelector func(*T) K, options ...Option[K, T]) *MemoryStore[K, T] {
	ret := &MemoryStore[K, T]{
		records:     make(map[K]*T),
		keySelector: keySelector,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Save stores or overwrites a record.
func (s *MemoryStore[K, T]) Save(_ context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = s.copy(v)
	return nil
}

// Create stores a record unless its key is taken, in which case
// dao.ErrAlreadyExists is returned.
func (s *MemoryStore[K, T]) Create(_ context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; ok {
		return dao.ErrAlreadyExists
	}
	s.records[key] = s.copy(v)
	return nil
}

// Load returns a record by key or dao.ErrNotFound.
func (s *MemoryStore[K, T]) Load(_ context.Context, key K) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	if !ok {
		return nil, dao.ErrNotFound
	}
	return s.copy(v), nil
}

// Delete removes a record.
func (s *MemoryStore[K, T]) Delete(_ context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// List returns records accepted by the matcher.
func (s *MemoryStore[K, T]) List(_ context.Context, parameters ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*T, 0, len(s.records))
	for _, v := range s.records {
		if s.matcher != nil && len(parameters) > 0 && !s.matcher(v, parameters) {
			continue
		}
		out = append(out, s.copy(v))
	}
	return out, nil
}

// Update runs fn against the stored record while holding the write lock.
func (s *MemoryStore[K, T]) Update(_ context.Context, key K, fn dao.Mutator[T]) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.records[key]
	if !ok {
		return nil, dao.ErrNotFound
	}
	err := fn(v)
	return s.copy(v), err
}

// Len returns the number of stored records.
func (s *MemoryStore[K, T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

var (
	_ dao.Service[string, struct{}] = (*MemoryStore[string, struct{}])(nil)
	_ dao.Updater[string, struct{}] = (*MemoryStore[string, struct{}])(nil)
	_ dao.Creator[struct{}]         = (*MemoryStore[string, struct{}])(nil)
)
