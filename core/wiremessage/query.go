package wiremessage

import (
	"fmt"

	"github.com/tychoish/birch"
)

// Query represents the OP_QUERY message of the MongoDB wire protocol.
type Query struct {
	MsgHeader            Header
	Flags                QueryFlag
	FullCollectionName   string
	NumberToSkip         int32
	NumberToReturn       int32
	Query                birch.Reader
	ReturnFieldsSelector birch.Reader
}

// QueryFlag represents the flags on an OP_QUERY message.
type QueryFlag int32

// These constants represent the individual flags on an OP_QUERY message.
const (
	_ QueryFlag = 1 << iota
	TailableCursor
	SlaveOK
	OplogReplay
	NoCursorTimeout
	AwaitData
	Exhaust
	Partial
)

// MarshalWireMessage implements the Marshaler and WireMessage interfaces.
func (q Query) MarshalWireMessage() ([]byte, error) {
	b := make([]byte, 0, q.Len())
	return q.AppendWireMessage(b)
}

// ValidateWireMessage implements the Validator and WireMessage interfaces.
func (q Query) ValidateWireMessage() error {
	if int(q.MsgHeader.MessageLength) != q.Len() {
		return errHeaderInvalidLength
	}
	if q.MsgHeader.OpCode != OpQuery {
		return errOpCodeMismatch
	}
	if len(q.Query) == 0 {
		return errInvalidDocument
	}
	return nil
}

// AppendWireMessage implements the Appender and WireMessage interfaces.
func (q Query) AppendWireMessage(b []byte) ([]byte, error) {
	err := q.MsgHeader.SetDefaults(q.Len(), OpQuery)
	if err != nil {
		return b, err
	}

	b = q.MsgHeader.AppendHeader(b)
	b = appendInt32(b, int32(q.Flags))
	b = appendCString(b, q.FullCollectionName)
	b = appendInt32(b, q.NumberToSkip)
	b = appendInt32(b, q.NumberToReturn)
	b = append(b, q.Query...)
	b = append(b, q.ReturnFieldsSelector...)
	return b, nil
}

// String implements the fmt.Stringer interface.
func (q Query) String() string {
	return fmt.Sprintf(
		`OP_QUERY{MsgHeader: %s, Flags: %d, FullCollectionname: %s, NumberToSkip: %d, NumberToReturn: %d, Query: %s, ReturnFieldsSelector: %s}`,
		q.MsgHeader, q.Flags, q.FullCollectionName, q.NumberToSkip, q.NumberToReturn, q.Query, q.ReturnFieldsSelector,
	)
}

// Len implements the WireMessage interface.
func (q Query) Len() int {
	// header + flags + collection name + null terminator + skip + return + query + selector
	return HeaderLen + 4 + len(q.FullCollectionName) + 1 + 8 + len(q.Query) + len(q.ReturnFieldsSelector)
}

// UnmarshalWireMessage implements the Unmarshaler interface.
func (q *Query) UnmarshalWireMessage(b []byte) error {
	hdr, err := ReadHeader(b, 0)
	if err != nil {
		return err
	}
	q.MsgHeader = hdr
	// header + flags + shortest collection name + skip + return + shortest query
	if hdr.MessageLength < HeaderLen+18 || len(b) < int(hdr.MessageLength) {
		return errShortMessage
	}

	q.Flags = QueryFlag(readInt32(b, 16))
	name, err := readCString(b, 20)
	if err != nil {
		return err
	}
	q.FullCollectionName = name
	pos := int32(20 + len(name) + 1)
	if pos+8 > hdr.MessageLength {
		return errShortMessage
	}
	q.NumberToSkip = readInt32(b, pos)
	pos += 4
	q.NumberToReturn = readInt32(b, pos)
	pos += 4

	doc, err := readDocument(b, pos)
	if err != nil {
		return err
	}
	q.Query = birch.Reader(doc)
	pos += int32(len(doc))

	if pos < hdr.MessageLength {
		selector, err := readDocument(b, pos)
		if err != nil {
			return err
		}
		q.ReturnFieldsSelector = birch.Reader(selector)
	}

	return nil
}
