package connection

import (
	"context"

	"github.com/tychoish/grip"

	"github.com/mongocore/driver/core/addr"
	"github.com/mongocore/driver/core/auth"
	"github.com/mongocore/driver/core/command"
	"github.com/mongocore/driver/core/description"
	"github.com/mongocore/driver/core/wiremessage"
)

// Initializer runs the handshake on a freshly opened connection. The
// sequence is fixed: the capability probe (isMaster) runs first, then the
// version probe (buildInfo), then the description is built, then the
// authenticator runs against the described connection, and finally the
// server-side connection id is learned. Only the last step is optional; a
// failure there is discarded and the description keeps its local id.
//
// An Initializer holds no per-connection state and may be shared.
type Initializer struct {
	AppName       string
	Authenticator auth.Authenticator
	Compressors   []string
}

// learnedID is the best-effort result of the connection id probe. The zero
// value means the server never told us its id.
type learnedID struct {
	value uint32
	known bool
}

// Initialize runs the handshake against rw and returns the resulting
// description. On any error other than the id probe's the connection must
// not be used.
func (i Initializer) Initialize(ctx context.Context, address addr.Addr, id description.ConnectionID, rw wiremessage.ReadWriter) (description.Connection, error) {
	isMaster, err := (&command.IsMaster{
		Client:      command.ClientDoc(i.AppName),
		Compressors: i.Compressors,
	}).RoundTrip(ctx, rw)
	if err != nil {
		return description.Connection{}, err
	}

	buildInfo, err := (&command.BuildInfo{}).RoundTrip(ctx, rw)
	if err != nil {
		return description.Connection{}, err
	}

	desc := description.NewConnection(address, id, isMaster, buildInfo)

	authenticator := i.Authenticator
	if authenticator == nil {
		authenticator = auth.Noop{}
	}
	if err := authenticator.Auth(ctx, desc, rw); err != nil {
		return description.Connection{}, err
	}

	if lid := i.learnConnectionID(ctx, desc, rw); lid.known {
		desc = desc.WithServerConnectionID(lid.value)
	}

	grip.Debugf("handshake complete for %s", desc)
	return desc, nil
}

// learnConnectionID asks the server for the id it assigned this connection
// so client and server logs can be correlated. The reply is not needed for
// correctness, so every failure is swallowed.
func (i Initializer) learnConnectionID(ctx context.Context, desc description.Connection, rw wiremessage.ReadWriter) learnedID {
	res, err := (&command.GetLastError{}).RoundTrip(ctx, rw)
	if err != nil {
		grip.Debugf("could not learn server connection id for %s: %v", desc, err)
		return learnedID{}
	}
	if !res.HasConnectionID {
		return learnedID{}
	}
	return learnedID{value: res.ConnectionID, known: true}
}
