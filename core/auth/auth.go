// Package auth defines how a connection is authenticated during its
// handshake. Concrete mechanisms live outside this module; the handshake
// initializer accepts any Authenticator and treats a failure as fatal for
// the connection.
package auth

import (
	"context"
	"fmt"

	"github.com/mongocore/driver/core/description"
	"github.com/mongocore/driver/core/wiremessage"
)

// Authenticator handles authenticating a connection. Implementations run
// after the connection's description has been built, so they can inspect
// server capabilities, and before the connection is handed to a pool.
type Authenticator interface {
	// Auth authenticates the connection.
	Auth(ctx context.Context, desc description.Connection, rw wiremessage.ReadWriter) error
}

// Noop is an Authenticator that performs no authentication. It is used when
// no credentials are configured.
type Noop struct{}

// Auth is a no-op.
func (Noop) Auth(ctx context.Context, desc description.Connection, rw wiremessage.ReadWriter) error {
	return nil
}

// NewError wraps an error from a mechanism with the mechanism's name.
func NewError(err error, mech string) error {
	return &Error{
		message: fmt.Sprintf("unable to authenticate using mechanism \"%s\"", mech),
		inner:   err,
	}
}

// Error is an error that occurred during authentication.
type Error struct {
	message string
	inner   error
}

func (e *Error) Error() string {
	if e.inner == nil {
		return e.message
	}
	return fmt.Sprintf("%s: %s", e.message, e.inner)
}

// Inner returns the wrapped error.
func (e *Error) Inner() error { return e.inner }

// Message returns the message.
func (e *Error) Message() string { return e.message }
