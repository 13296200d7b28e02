package command

import (
	"context"

	"github.com/tychoish/birch"

	"github.com/mongocore/driver/core/result"
	"github.com/mongocore/driver/core/wiremessage"
)

// GetLastError represents the getLastError command.
//
// The handshake uses it to learn the identifier the server assigned to the
// connection, which makes client logs correlatable with server logs. Legacy
// writes use it to learn the outcome of the preceding write, in which case
// DB must name the database the write ran against.
type GetLastError struct {
	DB string

	res result.GetLastError
	err error
}

// Encode will encode this command into a wire message.
func (gle *GetLastError) Encode() (wiremessage.WireMessage, error) {
	db := gle.DB
	if db == "" {
		db = "admin"
	}
	return encodeCommand(db, birch.DC.Elements(birch.EC.Int32("getLastError", 1)))
}

// Decode will decode the wire message. Errors during decoding are deferred
// until either the Result or Err methods are called.
func (gle *GetLastError) Decode(wm wiremessage.WireMessage) *GetLastError {
	doc, err := decodeCommandReply(wm)
	if err != nil {
		gle.err = err
		return gle
	}
	gle.res = result.ReadGetLastError(doc)
	return gle
}

// Result returns the result of a decoded wire message.
func (gle *GetLastError) Result() (result.GetLastError, error) {
	if gle.err != nil {
		return result.GetLastError{}, gle.err
	}
	return gle.res, nil
}

// Err returns the error set on this command.
func (gle *GetLastError) Err() error { return gle.err }

// RoundTrip handles the execution of this command using the provided wire
// message read writer.
func (gle *GetLastError) RoundTrip(ctx context.Context, rw wiremessage.ReadWriter) (result.GetLastError, error) {
	wm, err := gle.Encode()
	if err != nil {
		return result.GetLastError{}, err
	}

	err = rw.WriteWireMessage(ctx, wm)
	if err != nil {
		return result.GetLastError{}, err
	}
	wm, err = rw.ReadWireMessage(ctx)
	if err != nil {
		return result.GetLastError{}, err
	}
	return gle.Decode(wm).Result()
}
