package wiremessage

import (
	"fmt"

	"github.com/tychoish/birch"
)

// Reply represents the OP_REPLY message of the MongoDB wire protocol.
type Reply struct {
	MsgHeader      Header
	ResponseFlags  ReplyFlag
	CursorID       int64
	StartingFrom   int32
	NumberReturned int32
	Documents      []birch.Reader
}

// ReplyFlag represents the flags of an OP_REPLY message.
type ReplyFlag int32

// These constants represent the individual flags of an OP_REPLY message.
const (
	CursorNotFound ReplyFlag = 1 << iota
	QueryFailure
	ShardConfigStale
	AwaitCapable
)

// MarshalWireMessage implements the Marshaler and WireMessage interfaces.
func (r Reply) MarshalWireMessage() ([]byte, error) {
	b := make([]byte, 0, r.Len())
	return r.AppendWireMessage(b)
}

// ValidateWireMessage implements the Validator and WireMessage interfaces.
func (r Reply) ValidateWireMessage() error {
	if int(r.MsgHeader.MessageLength) != r.Len() {
		return errHeaderInvalidLength
	}
	if r.MsgHeader.OpCode != OpReply {
		return errOpCodeMismatch
	}
	return nil
}

// AppendWireMessage implements the Appender and WireMessage interfaces.
func (r Reply) AppendWireMessage(b []byte) ([]byte, error) {
	err := r.MsgHeader.SetDefaults(r.Len(), OpReply)
	if err != nil {
		return b, err
	}

	b = r.MsgHeader.AppendHeader(b)
	b = appendInt32(b, int32(r.ResponseFlags))
	b = appendInt64(b, r.CursorID)
	b = appendInt32(b, r.StartingFrom)
	b = appendInt32(b, r.NumberReturned)
	for _, doc := range r.Documents {
		b = append(b, doc...)
	}
	return b, nil
}

// String implements the fmt.Stringer interface.
func (r Reply) String() string {
	return fmt.Sprintf(
		`OP_REPLY{MsgHeader: %s, ResponseFlags: %d, CursorID: %d, StartingFrom: %d, NumberReturned: %d, NumDocuments: %d}`,
		r.MsgHeader, r.ResponseFlags, r.CursorID, r.StartingFrom, r.NumberReturned, len(r.Documents),
	)
}

// Len implements the WireMessage interface.
func (r Reply) Len() int {
	// header + response flags + cursor id + starting from + number returned + documents
	length := HeaderLen + 4 + 8 + 4 + 4
	for _, doc := range r.Documents {
		length += len(doc)
	}
	return length
}

// UnmarshalWireMessage implements the Unmarshaler interface.
func (r *Reply) UnmarshalWireMessage(b []byte) error {
	hdr, err := ReadHeader(b, 0)
	if err != nil {
		return err
	}
	r.MsgHeader = hdr
	// header + response flags + cursor id + starting from + number returned
	if hdr.MessageLength < HeaderLen+20 || len(b) < int(hdr.MessageLength) {
		return errShortMessage
	}

	r.ResponseFlags = ReplyFlag(readInt32(b, 16))
	r.CursorID = readInt64(b, 20)
	r.StartingFrom = readInt32(b, 28)
	r.NumberReturned = readInt32(b, 32)
	pos := int32(36)
	for pos < hdr.MessageLength {
		doc, err := readDocument(b, pos)
		if err != nil {
			return err
		}
		r.Documents = append(r.Documents, birch.Reader(doc))
		pos += int32(len(doc))
	}

	return nil
}
