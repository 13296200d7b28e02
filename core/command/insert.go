package command

import (
	"context"

	"github.com/tychoish/birch"

	"github.com/mongocore/driver/core/description"
	"github.com/mongocore/driver/core/result"
	"github.com/mongocore/driver/core/wiremessage"
	"github.com/mongocore/driver/core/writeconcern"
)

// Insert represents the insert command.
//
// The insert command executes an insert with a given set of documents. It is
// the command emulation of the legacy OP_INSERT opcode.
type Insert struct {
	NS           Namespace
	Docs         []*birch.Document
	Ordered      bool
	WriteConcern *writeconcern.WriteConcern

	res result.Insert
	err error
}

// Encode will encode this command into a wire message for the given
// connection description.
func (i *Insert) Encode(desc description.Connection) (wiremessage.WireMessage, error) {
	if err := i.NS.Validate(); err != nil {
		return nil, err
	}

	cmd := birch.DC.Elements(birch.EC.String("insert", i.NS.Collection))

	arr := birch.NewArray()
	for _, doc := range i.Docs {
		arr.Append(birch.VC.Document(doc))
	}
	cmd.Append(birch.EC.Array("documents", arr))

	if i.Ordered {
		cmd.Append(birch.EC.Boolean("ordered", true))
	}

	if i.WriteConcern != nil {
		elem, err := i.WriteConcern.MarshalElement()
		if err != nil {
			return nil, err
		}
		cmd.Append(elem)
	}

	return encodeCommand(i.NS.DB, cmd)
}

// Decode will decode the wire message using the provided connection
// description. Errors during decoding are deferred until either the Result
// or Err methods are called.
func (i *Insert) Decode(desc description.Connection, wm wiremessage.WireMessage) *Insert {
	doc, err := decodeCommandReply(wm)
	if err != nil {
		i.err = err
		return i
	}
	i.res = result.ReadInsert(doc)
	return i
}

// Result returns the result of a decoded wire message.
func (i *Insert) Result() (result.Insert, error) {
	if i.err != nil {
		return result.Insert{}, i.err
	}
	return i.res, nil
}

// Err returns the error set on this command.
func (i *Insert) Err() error { return i.err }

// RoundTrip handles the execution of this command using the provided wire
// message read writer.
func (i *Insert) RoundTrip(ctx context.Context, desc description.Connection, rw wiremessage.ReadWriter) (result.Insert, error) {
	wm, err := i.Encode(desc)
	if err != nil {
		return result.Insert{}, err
	}

	err = rw.WriteWireMessage(ctx, wm)
	if err != nil {
		return result.Insert{}, err
	}
	wm, err = rw.ReadWireMessage(ctx)
	if err != nil {
		return result.Insert{}, err
	}
	return i.Decode(desc, wm).Result()
}
