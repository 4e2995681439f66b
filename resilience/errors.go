package resilience

import (
	"context"
	"errors"
)

var (
	// ErrCircuitOpen is returned when the breaker rejects a call.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrTimeout is returned when a single attempt exceeds its deadline.
	ErrTimeout = errors.New("resilience: attempt timed out")
)

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Retryable reports whether err may succeed on another attempt.
//
// Cancellation, errors wrapped with Permanent and errors implementing
// Retryable() bool that return false are not retryable; everything else is.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrCircuitOpen) {
		return false
	}
	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}
