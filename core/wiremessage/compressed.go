package wiremessage

import (
	"errors"
	"fmt"

	"github.com/golang/snappy"
)

// CompressorID identifies the algorithm used to compress an OP_COMPRESSED
// message.
type CompressorID uint8

// These constants are the wire-level identifiers of the supported
// compressors.
const (
	CompressorNoOp   CompressorID = 0
	CompressorSnappy CompressorID = 1
)

// ErrUnsupportedCompressor is returned when a message is compressed with an
// algorithm this library does not implement.
var ErrUnsupportedCompressor = errors.New("unsupported compressor")

// Compressed represents the OP_COMPRESSED message of the MongoDB wire
// protocol. It wraps another message whose body is compressed with the
// negotiated algorithm.
type Compressed struct {
	MsgHeader         Header
	OriginalOpCode    OpCode
	UncompressedSize  int32
	CompressorID      CompressorID
	CompressedMessage []byte
}

// NewCompressed compresses the body of wm (everything after the header) with
// snappy and wraps it in an OP_COMPRESSED message.
func NewCompressed(wm WireMessage) (Compressed, error) {
	marshaled, err := wm.MarshalWireMessage()
	if err != nil {
		return Compressed{}, err
	}

	hdr, err := ReadHeader(marshaled, 0)
	if err != nil {
		return Compressed{}, err
	}

	body := marshaled[HeaderLen:]
	return Compressed{
		MsgHeader:         Header{RequestID: hdr.RequestID, ResponseTo: hdr.ResponseTo},
		OriginalOpCode:    hdr.OpCode,
		UncompressedSize:  int32(len(body)),
		CompressorID:      CompressorSnappy,
		CompressedMessage: snappy.Encode(nil, body),
	}, nil
}

// Original decompresses the wrapped message and decodes it.
func (c Compressed) Original() (WireMessage, error) {
	var body []byte
	var err error
	switch c.CompressorID {
	case CompressorNoOp:
		body = c.CompressedMessage
	case CompressorSnappy:
		body, err = snappy.Decode(nil, c.CompressedMessage)
		if err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnsupportedCompressor
	}

	hdr := Header{
		MessageLength: int32(HeaderLen + len(body)),
		RequestID:     c.MsgHeader.RequestID,
		ResponseTo:    c.MsgHeader.ResponseTo,
		OpCode:        c.OriginalOpCode,
	}
	full := hdr.AppendHeader(make([]byte, 0, hdr.MessageLength))
	full = append(full, body...)
	return Unmarshal(full)
}

// MarshalWireMessage implements the Marshaler and WireMessage interfaces.
func (c Compressed) MarshalWireMessage() ([]byte, error) {
	b := make([]byte, 0, c.Len())
	return c.AppendWireMessage(b)
}

// ValidateWireMessage implements the Validator and WireMessage interfaces.
func (c Compressed) ValidateWireMessage() error {
	if int(c.MsgHeader.MessageLength) != c.Len() {
		return errHeaderInvalidLength
	}
	if c.MsgHeader.OpCode != OpCompressed {
		return errOpCodeMismatch
	}
	return nil
}

// AppendWireMessage implements the Appender and WireMessage interfaces.
func (c Compressed) AppendWireMessage(b []byte) ([]byte, error) {
	err := c.MsgHeader.SetDefaults(c.Len(), OpCompressed)
	if err != nil {
		return b, err
	}

	b = c.MsgHeader.AppendHeader(b)
	b = appendInt32(b, int32(c.OriginalOpCode))
	b = appendInt32(b, c.UncompressedSize)
	b = append(b, byte(c.CompressorID))
	b = append(b, c.CompressedMessage...)
	return b, nil
}

// String implements the fmt.Stringer interface.
func (c Compressed) String() string {
	return fmt.Sprintf(
		`OP_COMPRESSED{MsgHeader: %s, OriginalOpCode: %v, UncompressedSize: %d, CompressorID: %d}`,
		c.MsgHeader, c.OriginalOpCode, c.UncompressedSize, c.CompressorID,
	)
}

// Len implements the WireMessage interface.
func (c Compressed) Len() int {
	// header + original opcode + uncompressed size + compressor id + message
	return HeaderLen + 4 + 4 + 1 + len(c.CompressedMessage)
}

// UnmarshalWireMessage implements the Unmarshaler interface.
func (c *Compressed) UnmarshalWireMessage(b []byte) error {
	hdr, err := ReadHeader(b, 0)
	if err != nil {
		return err
	}
	c.MsgHeader = hdr
	// header + original opcode + uncompressed size + compressor id
	if hdr.MessageLength < HeaderLen+9 || len(b) < int(hdr.MessageLength) {
		return errShortMessage
	}

	c.OriginalOpCode = OpCode(readInt32(b, 16))
	c.UncompressedSize = readInt32(b, 20)
	c.CompressorID = CompressorID(b[24])
	c.CompressedMessage = append([]byte(nil), b[25:hdr.MessageLength]...)

	return nil
}
