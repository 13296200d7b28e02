package command

import (
	"context"

	"github.com/tychoish/birch"

	"github.com/mongocore/driver/core/result"
	"github.com/mongocore/driver/core/wiremessage"
)

// BuildInfo represents the buildInfo command.
//
// The buildInfo command is the second handshake command; its reply carries
// the server's build and version summary.
type BuildInfo struct {
	res result.BuildInfo
	err error
}

// Encode will encode this command into a wire message.
func (bi *BuildInfo) Encode() (wiremessage.WireMessage, error) {
	return encodeCommand("admin", birch.DC.Elements(birch.EC.Int32("buildInfo", 1)))
}

// Decode will decode the wire message. Errors during decoding are deferred
// until either the Result or Err methods are called.
func (bi *BuildInfo) Decode(wm wiremessage.WireMessage) *BuildInfo {
	doc, err := decodeCommandReply(wm)
	if err != nil {
		bi.err = err
		return bi
	}
	bi.res = result.ReadBuildInfo(doc)
	return bi
}

// Result returns the result of a decoded wire message.
func (bi *BuildInfo) Result() (result.BuildInfo, error) {
	if bi.err != nil {
		return result.BuildInfo{}, bi.err
	}
	return bi.res, nil
}

// Err returns the error set on this command.
func (bi *BuildInfo) Err() error { return bi.err }

// RoundTrip handles the execution of this command using the provided wire
// message read writer.
func (bi *BuildInfo) RoundTrip(ctx context.Context, rw wiremessage.ReadWriter) (result.BuildInfo, error) {
	wm, err := bi.Encode()
	if err != nil {
		return result.BuildInfo{}, err
	}

	err = rw.WriteWireMessage(ctx, wm)
	if err != nil {
		return result.BuildInfo{}, err
	}
	wm, err = rw.ReadWireMessage(ctx)
	if err != nil {
		return result.BuildInfo{}, err
	}
	return bi.Decode(wm).Result()
}
