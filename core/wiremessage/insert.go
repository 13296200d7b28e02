package wiremessage

import (
	"fmt"

	"github.com/tychoish/birch"
)

// Insert represents the OP_INSERT message of the MongoDB wire protocol. It is
// the legacy opcode form of an insert.
type Insert struct {
	MsgHeader          Header
	Flags              InsertFlag
	FullCollectionName string
	Documents          []birch.Reader
}

// InsertFlag represents the flags on an OP_INSERT message.
type InsertFlag int32

// ContinueOnError is the only defined flag of an OP_INSERT message.
const ContinueOnError InsertFlag = 1 << iota

// MarshalWireMessage implements the Marshaler and WireMessage interfaces.
func (i Insert) MarshalWireMessage() ([]byte, error) {
	b := make([]byte, 0, i.Len())
	return i.AppendWireMessage(b)
}

// ValidateWireMessage implements the Validator and WireMessage interfaces.
func (i Insert) ValidateWireMessage() error {
	if int(i.MsgHeader.MessageLength) != i.Len() {
		return errHeaderInvalidLength
	}
	if i.MsgHeader.OpCode != OpInsert {
		return errOpCodeMismatch
	}
	if len(i.Documents) == 0 {
		return errInvalidDocument
	}
	return nil
}

// AppendWireMessage implements the Appender and WireMessage interfaces.
func (i Insert) AppendWireMessage(b []byte) ([]byte, error) {
	err := i.MsgHeader.SetDefaults(i.Len(), OpInsert)
	if err != nil {
		return b, err
	}

	b = i.MsgHeader.AppendHeader(b)
	b = appendInt32(b, int32(i.Flags))
	b = appendCString(b, i.FullCollectionName)
	for _, doc := range i.Documents {
		b = append(b, doc...)
	}
	return b, nil
}

// String implements the fmt.Stringer interface.
func (i Insert) String() string {
	return fmt.Sprintf(
		`OP_INSERT{MsgHeader: %s, Flags: %d, FullCollectionName: %s, NumDocuments: %d}`,
		i.MsgHeader, i.Flags, i.FullCollectionName, len(i.Documents),
	)
}

// Len implements the WireMessage interface.
func (i Insert) Len() int {
	// header + flags + collection name + null terminator + documents
	length := HeaderLen + 4 + len(i.FullCollectionName) + 1
	for _, doc := range i.Documents {
		length += len(doc)
	}
	return length
}

// UnmarshalWireMessage implements the Unmarshaler interface.
func (i *Insert) UnmarshalWireMessage(b []byte) error {
	hdr, err := ReadHeader(b, 0)
	if err != nil {
		return err
	}
	i.MsgHeader = hdr
	// header + flags + shortest collection name + shortest document
	if hdr.MessageLength < HeaderLen+10 || len(b) < int(hdr.MessageLength) {
		return errShortMessage
	}

	i.Flags = InsertFlag(readInt32(b, 16))
	name, err := readCString(b, 20)
	if err != nil {
		return err
	}
	i.FullCollectionName = name
	pos := int32(20 + len(name) + 1)

	for pos < hdr.MessageLength {
		doc, err := readDocument(b, pos)
		if err != nil {
			return err
		}
		i.Documents = append(i.Documents, birch.Reader(doc))
		pos += int32(len(doc))
	}

	return nil
}
