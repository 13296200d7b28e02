// Package dispatch executes write operations end to end: it checks the
// caller's time budget, borrows a connection from a binding, picks the wire
// form the server understands, runs the operation, and returns the borrowed
// resources on every exit path.
package dispatch

import (
	"context"

	"github.com/mongocore/driver/core/connection"
	"github.com/mongocore/driver/internal/budget"
)

// ConnectionSource is a source of connections for an operation. It is
// borrowed from a binding for the duration of a single dispatch and must be
// closed when the dispatch finishes.
type ConnectionSource interface {
	Connection(context.Context) (connection.Connection, error)
	Close() error
}

// WriteBinding provides the connection source a write operation runs
// against.
type WriteBinding interface {
	WriteSource(context.Context) (ConnectionSource, error)
}

// PoolBinding is a WriteBinding backed by a connection pool.
type PoolBinding struct {
	pool connection.Pool
}

// NewPoolBinding returns a WriteBinding that borrows connections from the
// given pool.
func NewPoolBinding(pool connection.Pool) *PoolBinding {
	return &PoolBinding{pool: pool}
}

// WriteSource implements the WriteBinding interface.
func (b *PoolBinding) WriteSource(ctx context.Context) (ConnectionSource, error) {
	return &poolSource{pool: b.pool}, nil
}

type poolSource struct {
	pool connection.Pool
}

func (s *poolSource) Connection(ctx context.Context) (connection.Connection, error) {
	return s.pool.Get(ctx)
}

// Close implements the ConnectionSource interface. Connections borrowed from
// the pool return themselves when they are closed, so the source itself has
// nothing to release.
func (s *poolSource) Close() error { return nil }

// guard returns the error that should stop a dispatch before its next
// suspension point, if any.
func guard(ctx context.Context, b budget.Budget) error {
	if err := b.ErrIfExpired(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return mapContextError(ctx, b, err)
	}
	return nil
}

// mapContextError translates a failure observed while the context is done
// into this package's error taxonomy. Errors unrelated to the context pass
// through unchanged.
func mapContextError(ctx context.Context, b budget.Budget, err error) error {
	if err == nil {
		return nil
	}
	switch ctx.Err() {
	case context.Canceled:
		return CancelledError{Wrapped: context.Canceled}
	case context.DeadlineExceeded:
		if b.Expired() {
			return b.ErrIfExpired()
		}
	}
	return err
}
