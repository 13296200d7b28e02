package dispatch

import (
	"errors"
	"fmt"
)

// ErrNoDocuments is returned when a write operation is dispatched with no
// documents or filters.
var ErrNoDocuments = errors.New("no documents provided")

// ErrMissingFilter is returned when a delete document does not carry a "q"
// filter.
var ErrMissingFilter = errors.New("delete document is missing the q filter")

// CancelledError indicates an operation was abandoned because its context
// was cancelled, as opposed to its time budget running out.
type CancelledError struct {
	Wrapped error
}

func (e CancelledError) Error() string {
	return fmt.Sprintf("operation cancelled: %s", e.Wrapped)
}

// Unwrap returns the context error that caused the cancellation.
func (e CancelledError) Unwrap() error { return e.Wrapped }
