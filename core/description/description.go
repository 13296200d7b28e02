// Package description contains the immutable snapshot of a connection's
// negotiated identity and server capabilities. A description is produced
// exactly once per physical connection by the handshake, before any
// application operation runs on it; later refinements produce new values,
// never in-place mutation, so concurrent readers never observe a partially
// updated description.
package description

import (
	"fmt"

	"github.com/mongocore/driver/core/addr"
	"github.com/mongocore/driver/core/result"
	"github.com/mongocore/driver/core/version"
)

// ConnectionID identifies a connection. The local half is assigned by this
// process at dial time; the server half is learned lazily during the
// handshake and may never be known.
type ConnectionID struct {
	Local       int32
	Server      uint32
	ServerKnown bool
}

// WithServer returns a copy of this id carrying the server-assigned
// identifier.
func (id ConnectionID) WithServer(server uint32) ConnectionID {
	id.Server = server
	id.ServerKnown = true
	return id
}

// String renders the id in the form addr uses for logs: the local id in
// brackets with a leading dash until the server id is known, the bare server
// id afterward.
func (id ConnectionID) String() string {
	if id.ServerKnown {
		return fmt.Sprintf("[%d]", id.Server)
	}
	return fmt.Sprintf("[-%d]", id.Local)
}

// Connection is a description of a connection. It is created from the
// replies to the isMaster and buildInfo handshake commands.
type Connection struct {
	Addr addr.Addr
	ID   ConnectionID

	GitVersion      string
	MaxBatchCount   int32
	MaxDocumentSize int32
	MaxMessageSize  int32
	ReadOnly        bool
	SetName         string
	Compression     []string
	WireVersion     version.Range
	Version         version.Version
}

// NewConnection creates a connection description from the handshake replies.
func NewConnection(address addr.Addr, id ConnectionID, isMaster result.IsMaster, buildInfo result.BuildInfo) Connection {
	d := Connection{
		Addr: address.Canonicalize(),
		ID:   id,

		MaxBatchCount:   isMaster.MaxWriteBatchSize,
		MaxDocumentSize: isMaster.MaxBSONObjectSize,
		MaxMessageSize:  isMaster.MaxMessageSizeBytes,
		ReadOnly:        isMaster.ReadOnly,
		SetName:         isMaster.SetName,
		Compression:     isMaster.Compression,
		WireVersion:     version.NewRange(isMaster.MinWireVersion, isMaster.MaxWireVersion),
	}

	if !buildInfo.IsZero() {
		d.GitVersion = buildInfo.GitVersion
		d.Version = version.Version{Desc: buildInfo.Version, Parts: buildInfo.VersionArray}
	}

	return d
}

// WithServerConnectionID returns a copy of this description whose
// ConnectionID carries the server-assigned identifier.
func (d Connection) WithServerConnectionID(server uint32) Connection {
	d.ID = d.ID.WithServer(server)
	return d
}

// String implements the fmt.Stringer interface.
func (d Connection) String() string {
	return fmt.Sprintf("%s%s", d.Addr, d.ID)
}
