package command

import (
	"context"

	"github.com/tychoish/birch"

	"github.com/mongocore/driver/core/description"
	"github.com/mongocore/driver/core/result"
	"github.com/mongocore/driver/core/wiremessage"
	"github.com/mongocore/driver/core/writeconcern"
)

// Delete represents the delete command.
//
// The delete command executes a delete with a given set of delete documents.
// It is the command emulation of the legacy OP_DELETE opcode and produces a
// result of the same shape.
type Delete struct {
	NS           Namespace
	Deletes      []*birch.Document
	WriteConcern *writeconcern.WriteConcern

	res result.Delete
	err error
}

// Encode will encode this command into a wire message for the given
// connection description.
func (d *Delete) Encode(desc description.Connection) (wiremessage.WireMessage, error) {
	if err := d.NS.Validate(); err != nil {
		return nil, err
	}

	cmd := birch.DC.Elements(birch.EC.String("delete", d.NS.Collection))

	arr := birch.NewArray()
	for _, doc := range d.Deletes {
		arr.Append(birch.VC.Document(doc))
	}
	cmd.Append(birch.EC.Array("deletes", arr))

	if d.WriteConcern != nil {
		elem, err := d.WriteConcern.MarshalElement()
		if err != nil {
			return nil, err
		}
		cmd.Append(elem)
	}

	return encodeCommand(d.NS.DB, cmd)
}

// Decode will decode the wire message using the provided connection
// description. Errors during decoding are deferred until either the Result
// or Err methods are called.
func (d *Delete) Decode(desc description.Connection, wm wiremessage.WireMessage) *Delete {
	doc, err := decodeCommandReply(wm)
	if err != nil {
		d.err = err
		return d
	}
	d.res = result.ReadDelete(doc)
	return d
}

// Result returns the result of a decoded wire message.
func (d *Delete) Result() (result.Delete, error) {
	if d.err != nil {
		return result.Delete{}, d.err
	}
	return d.res, nil
}

// Err returns the error set on this command.
func (d *Delete) Err() error { return d.err }

// RoundTrip handles the execution of this command using the provided wire
// message read writer.
func (d *Delete) RoundTrip(ctx context.Context, desc description.Connection, rw wiremessage.ReadWriter) (result.Delete, error) {
	wm, err := d.Encode(desc)
	if err != nil {
		return result.Delete{}, err
	}

	err = rw.WriteWireMessage(ctx, wm)
	if err != nil {
		return result.Delete{}, err
	}
	wm, err = rw.ReadWireMessage(ctx)
	if err != nil {
		return result.Delete{}, err
	}
	return d.Decode(desc, wm).Result()
}
