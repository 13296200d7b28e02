// Package connection contains the types for building and pooling connections
// that can speak the MongoDB wire protocol. It purposefully hides the
// underlying network and abstracts the writing to and reading from a
// connection to wire messages. Connections returned by this package have
// already completed their handshake and carry the description it produced.
package connection

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/tychoish/grip"

	"github.com/mongocore/driver/core/addr"
	"github.com/mongocore/driver/core/description"
	"github.com/mongocore/driver/core/wiremessage"
)

var globalClientConnectionID int32

func nextClientConnectionID() int32 {
	return atomic.AddInt32(&globalClientConnectionID, 1)
}

// Connection is used to read and write wire protocol messages to a network.
type Connection interface {
	WriteWireMessage(context.Context, wiremessage.WireMessage) error
	ReadWireMessage(context.Context) (wiremessage.WireMessage, error)
	// Desc returns the description produced by the connection's handshake.
	Desc() description.Connection
	// Expired reports whether the connection has outlived its idle or
	// lifetime limits and must not be reused.
	Expired() bool
	// Alive reports whether the connection can still be used. A connection
	// that has seen a network error is not alive.
	Alive() bool
	Close() error
	ID() string
}

type connection struct {
	addr     addr.Addr
	conn     net.Conn
	desc     description.Connection
	compress bool
	dead     bool

	idleTimeout      time.Duration
	idleDeadline     time.Time
	lifetimeDeadline time.Time
	readTimeout      time.Duration
	writeTimeout     time.Duration
}

// New opens a connection to the given address and runs the handshake on it.
// The returned connection is described and authenticated, ready for
// application commands.
func New(ctx context.Context, address addr.Addr, opts ...Option) (Connection, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	dialCtx := ctx
	if cfg.connectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.connectTimeout)
		defer cancel()
	}

	nc, err := cfg.dialer.DialContext(dialCtx, address.Network(), address.String())
	if err != nil {
		return nil, &Error{
			ConnectionID: address.String(),
			message:      "failed to dial " + address.String(),
			inner:        err,
		}
	}
	if tcpConn, ok := nc.(*net.TCPConn); ok {
		_ = tcpConn.SetKeepAlive(true)
	}

	var lifetimeDeadline time.Time
	if cfg.lifeTimeout > 0 {
		lifetimeDeadline = time.Now().Add(cfg.lifeTimeout)
	}

	id := description.ConnectionID{Local: nextClientConnectionID()}
	c := &connection{
		addr:             address.Canonicalize(),
		conn:             nc,
		desc:             description.Connection{Addr: address.Canonicalize(), ID: id},
		idleTimeout:      cfg.idleTimeout,
		lifetimeDeadline: lifetimeDeadline,
		readTimeout:      cfg.readTimeout,
		writeTimeout:     cfg.writeTimeout,
	}
	c.bumpIdleDeadline()

	init := Initializer{
		AppName:       cfg.appName,
		Authenticator: cfg.authenticator,
		Compressors:   cfg.compressors,
	}
	desc, err := init.Initialize(ctx, c.addr, id, c)
	if err != nil {
		_ = nc.Close()
		return nil, err
	}
	c.desc = desc
	c.compress = negotiatedSnappy(cfg.compressors, desc.Compression)

	grip.Debugf("connected to %s", desc)
	return c, nil
}

// negotiatedSnappy reports whether both sides of the handshake support
// snappy compression.
func negotiatedSnappy(offered, supported []string) bool {
	return containsCompressor(offered, "snappy") && containsCompressor(supported, "snappy")
}

func containsCompressor(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func (c *connection) WriteWireMessage(ctx context.Context, wm wiremessage.WireMessage) error {
	if c.dead {
		return &Error{ConnectionID: c.ID(), message: "connection is dead"}
	}
	if err := ctx.Err(); err != nil {
		return &Error{ConnectionID: c.ID(), message: "failed to write", inner: err}
	}

	if c.compress {
		if _, ok := wm.(wiremessage.Compressed); !ok {
			compressed, err := wiremessage.NewCompressed(wm)
			if err != nil {
				return &Error{ConnectionID: c.ID(), message: "unable to compress wire message", inner: err}
			}
			wm = compressed
		}
	}

	b, err := wm.MarshalWireMessage()
	if err != nil {
		return &Error{ConnectionID: c.ID(), message: "unable to encode wire message", inner: err}
	}

	if err := c.conn.SetWriteDeadline(c.deadline(ctx, c.writeTimeout)); err != nil {
		c.dead = true
		return NetworkError{ConnectionID: c.ID(), Wrapped: err}
	}

	if _, err := c.conn.Write(b); err != nil {
		c.dead = true
		return NetworkError{ConnectionID: c.ID(), Wrapped: err}
	}

	c.bumpIdleDeadline()
	return nil
}

func (c *connection) ReadWireMessage(ctx context.Context) (wiremessage.WireMessage, error) {
	if c.dead {
		return nil, &Error{ConnectionID: c.ID(), message: "connection is dead"}
	}
	if err := ctx.Err(); err != nil {
		return nil, &Error{ConnectionID: c.ID(), message: "failed to read", inner: err}
	}

	if err := c.conn.SetReadDeadline(c.deadline(ctx, c.readTimeout)); err != nil {
		c.dead = true
		return nil, NetworkError{ConnectionID: c.ID(), Wrapped: err}
	}

	var sizeBuf [4]byte
	if _, err := io.ReadFull(c.conn, sizeBuf[:]); err != nil {
		c.dead = true
		return nil, NetworkError{ConnectionID: c.ID(), Wrapped: err}
	}

	size := int32(binary.LittleEndian.Uint32(sizeBuf[:]))
	if size < wiremessage.HeaderLen {
		c.dead = true
		return nil, &Error{ConnectionID: c.ID(), message: "malformed message length"}
	}

	b := make([]byte, size)
	copy(b, sizeBuf[:])
	if _, err := io.ReadFull(c.conn, b[4:]); err != nil {
		c.dead = true
		return nil, NetworkError{ConnectionID: c.ID(), Wrapped: err}
	}

	wm, err := wiremessage.Unmarshal(b)
	if err != nil {
		return nil, &Error{ConnectionID: c.ID(), message: "unable to decode wire message", inner: err}
	}

	c.bumpIdleDeadline()
	return wm, nil
}

func (c *connection) bumpIdleDeadline() {
	if c.idleTimeout > 0 {
		c.idleDeadline = time.Now().Add(c.idleTimeout)
	}
}

// deadline resolves the effective I/O deadline from the connection's
// configured timeout and the context, whichever comes first.
func (c *connection) deadline(ctx context.Context, timeout time.Duration) time.Time {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if ctxDL, ok := ctx.Deadline(); ok && (deadline.IsZero() || ctxDL.Before(deadline)) {
		deadline = ctxDL
	}
	return deadline
}

func (c *connection) Desc() description.Connection { return c.desc }

func (c *connection) Expired() bool {
	now := time.Now()
	if c.idleTimeout > 0 && now.After(c.idleDeadline) {
		return true
	}
	if !c.lifetimeDeadline.IsZero() && now.After(c.lifetimeDeadline) {
		return true
	}
	return c.dead
}

func (c *connection) Alive() bool { return !c.dead }

func (c *connection) Close() error {
	c.dead = true
	if err := c.conn.Close(); err != nil {
		return &Error{ConnectionID: c.ID(), message: "failed closing", inner: err}
	}
	return nil
}

func (c *connection) ID() string { return c.desc.String() }
