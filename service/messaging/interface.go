// Package messaging defines the in-process queue used to publish lifecycle
// events of scheduled actions and approval requests to host applications.
package messaging

import (
	"context"
)

// Queue is a message queue for payloads of type T.
type Queue[T any] interface {
	// Publish adds a message to the queue.
	Publish(ctx context.Context, t *T) error

	// Consume blocks until a message is available or ctx is done.
	Consume(ctx context.Context) (Message[T], error)
}

// Message is a consumed queue entry.
type Message[T any] interface {
	// T returns the payload.
	T() *T

	// Ack marks the message processed.
	Ack() error

	// Nack marks the message failed; the queue may redeliver it.
	Nack(err error) error
}

// Publisher publishes events without blocking the caller on slow consumers.
type Publisher[T any] func(ctx context.Context, t *T)

// NewPublisher returns a publisher over queue. A nil queue discards events.
func NewPublisher[T any](queue Queue[T]) Publisher[T] {
	return func(ctx context.Context, t *T) {
		if queue == nil || t == nil {
			return
		}
		_ = queue.Publish(context.WithoutCancel(ctx), t)
	}
}
