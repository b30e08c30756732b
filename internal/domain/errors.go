package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a lookup with no result. Places misses are cached
	// negatively for an hour.
	ErrNotFound = errors.New("not found")

	// ErrQuotaExceeded is returned when a paid service's daily budget is
	// used up. It is never retried; callers fall back instead.
	ErrQuotaExceeded = errors.New("daily quota exceeded")
)

// ValidationError rejects a malformed TripSpec before any external call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// RenderError wraps a document rendering failure. The artifact is still
// stored with a text-only document.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return "render document: " + e.Err.Error() }

func (e *RenderError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
