package wiremessage

import (
	"fmt"

	"github.com/tychoish/birch"
)

// Delete represents the OP_DELETE message of the MongoDB wire protocol. It is
// the legacy opcode form of a delete; servers that support write commands
// receive an equivalent "delete" command instead.
type Delete struct {
	MsgHeader          Header
	FullCollectionName string
	Flags              DeleteFlag
	Selector           birch.Reader
}

// DeleteFlag represents the flags on an OP_DELETE message.
type DeleteFlag int32

// SingleRemove is the only defined flag of an OP_DELETE message. When set the
// server removes at most one matching document.
const SingleRemove DeleteFlag = 1 << iota

// MarshalWireMessage implements the Marshaler and WireMessage interfaces.
func (d Delete) MarshalWireMessage() ([]byte, error) {
	b := make([]byte, 0, d.Len())
	return d.AppendWireMessage(b)
}

// ValidateWireMessage implements the Validator and WireMessage interfaces.
func (d Delete) ValidateWireMessage() error {
	if int(d.MsgHeader.MessageLength) != d.Len() {
		return errHeaderInvalidLength
	}
	if d.MsgHeader.OpCode != OpDelete {
		return errOpCodeMismatch
	}
	if len(d.Selector) == 0 {
		return errInvalidDocument
	}
	return nil
}

// AppendWireMessage implements the Appender and WireMessage interfaces.
func (d Delete) AppendWireMessage(b []byte) ([]byte, error) {
	err := d.MsgHeader.SetDefaults(d.Len(), OpDelete)
	if err != nil {
		return b, err
	}

	b = d.MsgHeader.AppendHeader(b)
	b = appendInt32(b, 0) // ZERO, reserved
	b = appendCString(b, d.FullCollectionName)
	b = appendInt32(b, int32(d.Flags))
	b = append(b, d.Selector...)
	return b, nil
}

// String implements the fmt.Stringer interface.
func (d Delete) String() string {
	return fmt.Sprintf(
		`OP_DELETE{MsgHeader: %s, FullCollectionName: %s, Flags: %d, Selector: %s}`,
		d.MsgHeader, d.FullCollectionName, d.Flags, d.Selector,
	)
}

// Len implements the WireMessage interface.
func (d Delete) Len() int {
	// header + ZERO + collection name + null terminator + flags + selector
	return HeaderLen + 4 + len(d.FullCollectionName) + 1 + 4 + len(d.Selector)
}

// UnmarshalWireMessage implements the Unmarshaler interface.
func (d *Delete) UnmarshalWireMessage(b []byte) error {
	hdr, err := ReadHeader(b, 0)
	if err != nil {
		return err
	}
	d.MsgHeader = hdr
	// header + ZERO + shortest collection name + flags + shortest selector
	if hdr.MessageLength < HeaderLen+14 || len(b) < int(hdr.MessageLength) {
		return errShortMessage
	}

	name, err := readCString(b, 20)
	if err != nil {
		return err
	}
	d.FullCollectionName = name
	pos := int32(20 + len(name) + 1)
	if pos+4 > hdr.MessageLength {
		return errShortMessage
	}
	d.Flags = DeleteFlag(readInt32(b, pos))
	pos += 4

	selector, err := readDocument(b, pos)
	if err != nil {
		return err
	}
	d.Selector = birch.Reader(selector)

	return nil
}
