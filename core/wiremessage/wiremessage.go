// Package wiremessage contains types for speaking the MongoDB wire protocol.
// Each opcode this core sends or receives has a concrete message type that
// can marshal itself into, and unmarshal itself from, the binary wire form.
package wiremessage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
)

// ErrHeaderTooSmall is returned when the size of the header is too small to be valid.
var ErrHeaderTooSmall = errors.New("the header is too small to be valid")

// ErrInvalidMessageLength is returned when the provided message length is too small to be valid.
var ErrInvalidMessageLength = errors.New("the message length is too small, it must be at least 16")

// ErrUnknownOpCode is returned when the provided opcode is not a valid opcode.
var ErrUnknownOpCode = errors.New("the opcode is unknown")

var globalRequestID int32

// CurrentRequestID returns the current request ID.
func CurrentRequestID() int32 { return atomic.LoadInt32(&globalRequestID) }

// NextRequestID returns the next request ID.
func NextRequestID() int32 { return atomic.AddInt32(&globalRequestID, 1) }

// OpCode represents a MongoDB wire protocol opcode.
type OpCode int32

// These constants are the valid opcodes for the version of the wire protocol
// supported by this library.
const (
	OpReply       OpCode = 1
	OpUpdate      OpCode = 2001
	OpInsert      OpCode = 2002
	_             OpCode = 2003
	OpQuery       OpCode = 2004
	OpGetMore     OpCode = 2005
	OpDelete      OpCode = 2006
	OpKillCursors OpCode = 2007
	OpCompressed  OpCode = 2012
	OpMsg         OpCode = 2013
)

// String implements the fmt.Stringer interface.
func (oc OpCode) String() string {
	switch oc {
	case OpReply:
		return "OP_REPLY"
	case OpUpdate:
		return "OP_UPDATE"
	case OpInsert:
		return "OP_INSERT"
	case OpQuery:
		return "OP_QUERY"
	case OpGetMore:
		return "OP_GET_MORE"
	case OpDelete:
		return "OP_DELETE"
	case OpKillCursors:
		return "OP_KILL_CURSORS"
	case OpCompressed:
		return "OP_COMPRESSED"
	case OpMsg:
		return "OP_MSG"
	default:
		return "<invalid opcode>"
	}
}

// WireMessage represents a message in the MongoDB wire protocol.
type WireMessage interface {
	Marshaler
	Appender
	Validator
	fmt.Stringer

	// Len returns the length in bytes of this WireMessage.
	Len() int
}

// Marshaler is the interface implemented by types that can marshal themselves
// into a valid MongoDB wire protocol message.
type Marshaler interface {
	MarshalWireMessage() ([]byte, error)
}

// Appender is the interface implemented by types that can append themselves,
// as a MongoDB wire protocol message, to the provided slice of bytes.
type Appender interface {
	AppendWireMessage([]byte) ([]byte, error)
}

// Validator is the interface implemented by types that can validate
// themselves as a MongoDB wire protocol message.
type Validator interface {
	ValidateWireMessage() error
}

// Unmarshaler is the interface implemented by types that can unmarshal a
// MongoDB wire protocol message version of themselves. The input can be
// assumed to be a valid MongoDB wire protocol message. UnmarshalWireMessage
// must copy the data if it wishes to retain the data after returning.
type Unmarshaler interface {
	UnmarshalWireMessage([]byte) error
}

// Writer is the interface implemented by types that can have WireMessages
// written to them.
//
// Implementations must obey the cancellation, timeouts, and deadlines of the
// provided context.Context object.
type Writer interface {
	WriteWireMessage(context.Context, WireMessage) error
}

// Reader is the interface implemented by types that can have WireMessages
// read from them.
//
// Implementations must obey the cancellation, timeouts, and deadlines of the
// provided context.Context object.
type Reader interface {
	ReadWireMessage(context.Context) (WireMessage, error)
}

// ReadWriter is the interface implemented by types that can both read and
// write WireMessages.
type ReadWriter interface {
	Reader
	Writer
}

// ReadWriteCloser is the interface implemented by types that can read and
// write WireMessages and can also be closed.
type ReadWriteCloser interface {
	Reader
	Writer
	io.Closer
}

// Unmarshal decodes data into the WireMessage matching its opcode.
func Unmarshal(data []byte) (WireMessage, error) {
	hdr, err := ReadHeader(data, 0)
	if err != nil {
		return nil, err
	}

	var wm WireMessage
	switch hdr.OpCode {
	case OpReply:
		var r Reply
		err = r.UnmarshalWireMessage(data)
		wm = r
	case OpQuery:
		var q Query
		err = q.UnmarshalWireMessage(data)
		wm = q
	case OpDelete:
		var d Delete
		err = d.UnmarshalWireMessage(data)
		wm = d
	case OpInsert:
		var i Insert
		err = i.UnmarshalWireMessage(data)
		wm = i
	case OpCompressed:
		var c Compressed
		err = c.UnmarshalWireMessage(data)
		wm = c
	default:
		return nil, ErrUnknownOpCode
	}
	if err != nil {
		return nil, err
	}

	return wm, nil
}
