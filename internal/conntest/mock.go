// Package conntest provides mock wire message transports for tests.
package conntest

import (
	"context"
	"errors"

	"github.com/mongocore/driver/core/wiremessage"
)

// ErrNoResponse is returned when the response queue is exhausted.
var ErrNoResponse = errors.New("no queued response")

// MockReadWriter is a wiremessage.ReadWriter that records every message
// written to it and serves reads from a fixed response queue.
type MockReadWriter struct {
	Sent      []wiremessage.WireMessage
	ResponseQ []wiremessage.WireMessage

	WriteErr error
	ReadErr  error
}

// WriteWireMessage records the message.
func (m *MockReadWriter) WriteWireMessage(ctx context.Context, wm wiremessage.WireMessage) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.Sent = append(m.Sent, wm)
	return nil
}

// ReadWireMessage pops the next queued response.
func (m *MockReadWriter) ReadWireMessage(ctx context.Context) (wiremessage.WireMessage, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(m.ResponseQ) == 0 {
		return nil, ErrNoResponse
	}
	wm := m.ResponseQ[0]
	m.ResponseQ = m.ResponseQ[1:]
	return wm, nil
}
