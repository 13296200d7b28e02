package wiremessage

import "fmt"

// HeaderLen is the length, in bytes, of a wire protocol message header.
const HeaderLen = 16

// Header represents the header of a MongoDB wire protocol message.
type Header struct {
	MessageLength int32
	RequestID     int32
	ResponseTo    int32
	OpCode        OpCode
}

// ReadHeader reads a header from the given slice of bytes starting at offset
// pos.
func ReadHeader(b []byte, pos int32) (Header, error) {
	if len(b) < int(pos)+HeaderLen {
		return Header{}, ErrHeaderTooSmall
	}

	return Header{
		MessageLength: readInt32(b, pos),
		RequestID:     readInt32(b, pos+4),
		ResponseTo:    readInt32(b, pos+8),
		OpCode:        OpCode(readInt32(b, pos+12)),
	}, nil
}

// AppendHeader appends the header to the given slice of bytes.
func (h Header) AppendHeader(b []byte) []byte {
	b = appendInt32(b, h.MessageLength)
	b = appendInt32(b, h.RequestID)
	b = appendInt32(b, h.ResponseTo)
	b = appendInt32(b, int32(h.OpCode))

	return b
}

// SetDefaults sets the length and opcode of this header.
func (h *Header) SetDefaults(length int, opcode OpCode) error {
	switch {
	case length > int(maxInt32):
		return fmt.Errorf("length of message too large, %d bytes", length)
	case length < HeaderLen:
		return ErrInvalidMessageLength
	}
	h.MessageLength = int32(length)
	h.OpCode = opcode
	if h.RequestID == 0 {
		h.RequestID = NextRequestID()
	}
	return nil
}

// String implements the fmt.Stringer interface.
func (h Header) String() string {
	return fmt.Sprintf(
		`Header{MessageLength: %d, RequestID: %d, ResponseTo: %d, OpCode: %v}`,
		h.MessageLength, h.RequestID, h.ResponseTo, h.OpCode,
	)
}

const maxInt32 = int32(^uint32(0) >> 1)
