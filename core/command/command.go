// Package command contains the commands this driver core sends to the
// server. Each command knows how to encode itself into a wire message for a
// described connection, decode the server's reply, and surface server-side
// failures as a uniform error shape regardless of the wire form used.
package command

import (
	"context"

	"github.com/tychoish/birch"

	"github.com/mongocore/driver/core/description"
	"github.com/mongocore/driver/core/wiremessage"
)

// Command represents a generic database command.
//
// This can be used to send administrative and arbitrary commands to the
// server; the concrete command types in this package wrap it.
type Command struct {
	DB      string
	Command *birch.Document

	result *birch.Document
	err    error
}

// Encode will encode this command into a wire message for the given
// connection description.
func (c *Command) Encode(desc description.Connection) (wiremessage.WireMessage, error) {
	return encodeCommand(c.DB, c.Command)
}

// Decode will decode the wire message. Errors during decoding are deferred
// until either the Result or Err methods are called.
func (c *Command) Decode(desc description.Connection, wm wiremessage.WireMessage) *Command {
	c.result, c.err = decodeCommandReply(wm)
	return c
}

// Result returns the result of a decoded wire message.
func (c *Command) Result() (*birch.Document, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

// Err returns the error set on this command.
func (c *Command) Err() error { return c.err }

// RoundTrip handles the execution of this command using the provided wire
// message read writer.
func (c *Command) RoundTrip(ctx context.Context, desc description.Connection, rw wiremessage.ReadWriter) (*birch.Document, error) {
	wm, err := c.Encode(desc)
	if err != nil {
		return nil, err
	}

	err = rw.WriteWireMessage(ctx, wm)
	if err != nil {
		return nil, err
	}
	wm, err = rw.ReadWireMessage(ctx)
	if err != nil {
		return nil, err
	}
	return c.Decode(desc, wm).Result()
}

// encodeCommand marshals a command document into an OP_QUERY against the
// database's $cmd collection.
func encodeCommand(db string, cmd *birch.Document) (wiremessage.WireMessage, error) {
	rdr, err := cmd.MarshalBSON()
	if err != nil {
		return nil, err
	}

	return wiremessage.Query{
		MsgHeader:          wiremessage.Header{RequestID: wiremessage.NextRequestID()},
		FullCollectionName: db + ".$cmd",
		Flags:              wiremessage.SlaveOK,
		NumberToReturn:     -1,
		Query:              birch.Reader(rdr),
	}, nil
}

// decodeCommandReply decodes a server response into the single reply
// document, translating command-level failures into a command Error.
func decodeCommandReply(wm wiremessage.WireMessage) (*birch.Document, error) {
	if compressed, ok := wm.(wiremessage.Compressed); ok {
		original, err := compressed.Original()
		if err != nil {
			return nil, err
		}
		wm = original
	}

	reply, ok := wm.(wiremessage.Reply)
	if !ok {
		return nil, ErrNonReplyResponse
	}

	if reply.NumberReturned == 0 {
		return nil, ErrNoCommandResponse
	}
	if reply.NumberReturned > 1 {
		return nil, ErrMultiDocCommandResponse
	}
	if len(reply.Documents) != 1 {
		return nil, NewCommandResponseError("malformed OP_REPLY: NumberReturned does not match number of documents", nil)
	}

	doc, err := birch.ReadDocument(reply.Documents[0])
	if err != nil {
		return nil, NewCommandResponseError("malformed OP_REPLY: invalid document", err)
	}

	if reply.ResponseFlags&wiremessage.QueryFailure == wiremessage.QueryFailure {
		return nil, QueryFailureError{Message: "command failure", Response: doc}
	}

	if err := extractError(doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// extractError returns the command Error held in a reply document, or nil
// when the document reports success.
func extractError(doc *birch.Document) error {
	if readOKField(doc) {
		return nil
	}

	errmsg := readStringField(doc, "errmsg")
	if errmsg == "" {
		errmsg = "command failed"
	}

	return Error{
		Code:    readInt32Field(doc, "code"),
		Message: errmsg,
		Name:    readStringField(doc, "codeName"),
	}
}

func readOKField(doc *birch.Document) bool {
	elem, err := doc.Search("ok")
	if err != nil {
		return false
	}
	if n, ok := elem.Value().IntOK(); ok {
		return n == 1
	}
	if f, ok := elem.Value().DoubleOK(); ok {
		return f == 1
	}
	return false
}

func readStringField(doc *birch.Document, key string) string {
	elem, err := doc.Search(key)
	if err != nil {
		return ""
	}
	if s, ok := elem.Value().StringValueOK(); ok {
		return s
	}
	return ""
}

func readInt32Field(doc *birch.Document, key string) int32 {
	elem, err := doc.Search(key)
	if err != nil {
		return 0
	}
	if n, ok := elem.Value().IntOK(); ok {
		return int32(n)
	}
	return 0
}
