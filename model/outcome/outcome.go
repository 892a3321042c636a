// Package outcome models the result of operations that never fail outright
// but fall back to a safe default. The Kind records why a fallback was used so
// callers can tell a genuine verdict apart from a defaulted one.
package outcome

// Kind classifies the failure, if any, behind an outcome.
type Kind string

const (
	KindNone          Kind = ""
	KindValidation    Kind = "validation"
	KindParse         Kind = "parse"
	KindState         Kind = "state"
	KindExecution     Kind = "execution"
	KindAuthorization Kind = "authorization"
)

// Outcome carries a value together with the failure kind that produced it.
type Outcome[T any] struct {
	Value T
	Kind  Kind
	Err   error
}

// OK wraps a value produced without failure.
func OK[T any](value T) Outcome[T] {
	return Outcome[T]{Value: value}
}

// Fallback wraps a default value used because of err.
func Fallback[T any](value T, kind Kind, err error) Outcome[T] {
	return Outcome[T]{Value: value, Kind: kind, Err: err}
}

// Defaulted reports whether Value is a fail-safe default rather than a real
// result.
func (o Outcome[T]) Defaulted() bool {
	return o.Kind != KindNone
}
