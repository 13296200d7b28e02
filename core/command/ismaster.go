package command

import (
	"context"
	"runtime"

	"github.com/tychoish/birch"

	"github.com/mongocore/driver/core/result"
	"github.com/mongocore/driver/core/wiremessage"
)

// IsMaster represents the isMaster command.
//
// The isMaster command is the capability probe: it is the first command sent
// on a new connection, it is safe to issue before authentication, and its
// reply carries the server's capability summary.
type IsMaster struct {
	Client      *birch.Document
	Compressors []string

	res result.IsMaster
	err error
}

// Encode will encode this command into a wire message.
func (im *IsMaster) Encode() (wiremessage.WireMessage, error) {
	cmd := birch.DC.Elements(birch.EC.Int32("isMaster", 1))
	if im.Client != nil {
		cmd.Append(birch.EC.SubDocument("client", im.Client))
	}
	if len(im.Compressors) > 0 {
		cmd.Append(birch.EC.SliceString("compression", im.Compressors))
	}
	return encodeCommand("admin", cmd)
}

// Decode will decode the wire message. Errors during decoding are deferred
// until either the Result or Err methods are called.
func (im *IsMaster) Decode(wm wiremessage.WireMessage) *IsMaster {
	doc, err := decodeCommandReply(wm)
	if err != nil {
		im.err = err
		return im
	}
	im.res = result.ReadIsMaster(doc)
	return im
}

// Result returns the result of a decoded wire message.
func (im *IsMaster) Result() (result.IsMaster, error) {
	if im.err != nil {
		return result.IsMaster{}, im.err
	}
	return im.res, nil
}

// Err returns the error set on this command.
func (im *IsMaster) Err() error { return im.err }

// RoundTrip handles the execution of this command using the provided wire
// message read writer.
func (im *IsMaster) RoundTrip(ctx context.Context, rw wiremessage.ReadWriter) (result.IsMaster, error) {
	wm, err := im.Encode()
	if err != nil {
		return result.IsMaster{}, err
	}

	err = rw.WriteWireMessage(ctx, wm)
	if err != nil {
		return result.IsMaster{}, err
	}
	wm, err = rw.ReadWireMessage(ctx)
	if err != nil {
		return result.IsMaster{}, err
	}
	return im.Decode(wm).Result()
}

// ClientDoc creates a client information document for use in an isMaster
// command.
func ClientDoc(app string) *birch.Document {
	doc := birch.DC.Elements(
		birch.EC.SubDocumentFromElements(
			"driver",
			birch.EC.String("name", "mongocore-driver"),
			birch.EC.String("version", driverVersion),
		),
		birch.EC.SubDocumentFromElements(
			"os",
			birch.EC.String("type", runtime.GOOS),
			birch.EC.String("architecture", runtime.GOARCH),
		),
		birch.EC.String("platform", runtime.Version()))

	if app != "" {
		doc.Append(birch.EC.SubDocumentFromElements(
			"application",
			birch.EC.String("name", app),
		))
	}

	return doc
}

const driverVersion = "0.1.0"
