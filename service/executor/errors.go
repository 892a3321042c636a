package executor

import "errors"

var (
	// ErrExecutorNotFound is returned when no executor is registered for a channel.
	ErrExecutorNotFound = errors.New("executor not found for channel")
	// ErrUnauthorized signals the agent may not perform the action; callers must not retry.
	ErrUnauthorized = errors.New("agent not authorized for action")
	// ErrInvalidInput is returned when action parameters cannot be converted to the channel input.
	ErrInvalidInput = errors.New("invalid executor input")
)

// IsFatal reports whether err must not be retried.
func IsFatal(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrExecutorNotFound) || errors.Is(err, ErrInvalidInput)
}
