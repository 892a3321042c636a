// Package dao defines the storage contract shared by the in-memory stores
// holding scheduled actions and approval requests.
package dao

import (
	"context"
)

// Service stores entities of type T keyed by K.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}

// Mutator applies a read-modify-write step to a stored entity under the
// store lock.
type Mutator[T any] func(t *T) error

// Updater is implemented by stores that support atomic updates.
type Updater[K comparable, T any] interface {
	Update(ctx context.Context, id K, fn Mutator[T]) (*T, error)
}

// Creator is implemented by stores that insert without overwriting.
type Creator[T any] interface {
	Create(ctx context.Context, t *T) error
}
