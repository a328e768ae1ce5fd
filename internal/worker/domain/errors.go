package domain

import "errors"

var (
	// ErrInvalidPayload is returned when a backfill message is malformed
	// or missing its profile reference. Never requeued.
	ErrInvalidPayload = errors.New("invalid backfill payload")

	// ErrUnresolvable is returned when a message carries neither
	// coordinates nor a geocodable ZIP. Never requeued.
	ErrUnresolvable = errors.New("backfill carries no resolvable location")
)

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
