package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job cannot be found in the store.
	ErrJobNotFound = errors.New("job not found")

	// ErrProfileNotFound is returned when no profile row exists for a
	// technician. Callers treat this as degraded, not fatal.
	ErrProfileNotFound = errors.New("pro profile not found")

	// ErrStoreUnconfigured is returned when the dispatch store is
	// unreachable or not configured. This is the only non-auth condition
	// that surfaces as a request failure.
	ErrStoreUnconfigured = errors.New("dispatch store unreachable or unconfigured")
)
