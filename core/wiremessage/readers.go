package wiremessage

import (
	"bytes"
	"errors"
)

var errInvalidCString = errors.New("invalid cstring")
var errInvalidDocument = errors.New("invalid document")
var errHeaderInvalidLength = errors.New("header message length does not match message contents")
var errOpCodeMismatch = errors.New("header opcode does not match message type")
var errShortMessage = errors.New("message is shorter than its stated length")

func readInt32(b []byte, pos int32) int32 {
	return (int32(b[pos+0])) | (int32(b[pos+1]) << 8) | (int32(b[pos+2]) << 16) | (int32(b[pos+3]) << 24)
}

func readInt64(b []byte, pos int32) int64 {
	return (int64(b[pos+0])) | (int64(b[pos+1]) << 8) | (int64(b[pos+2]) << 16) | (int64(b[pos+3]) << 24) |
		(int64(b[pos+4]) << 32) | (int64(b[pos+5]) << 40) | (int64(b[pos+6]) << 48) | (int64(b[pos+7]) << 56)
}

func readCString(b []byte, pos int32) (string, error) {
	null := bytes.IndexByte(b[pos:], 0x00)
	if null == -1 {
		return "", errInvalidCString
	}
	return string(b[pos : int(pos)+null]), nil
}

// readDocument reads a single BSON document starting at pos, returning the
// bytes of the document without copying.
func readDocument(b []byte, pos int32) ([]byte, error) {
	if len(b) < int(pos)+4 {
		return nil, errInvalidDocument
	}
	length := readInt32(b, pos)
	if length < 5 || len(b) < int(pos)+int(length) {
		return nil, errInvalidDocument
	}
	return b[pos : pos+length], nil
}

func appendInt32(b []byte, i int32) []byte {
	return append(b, byte(i), byte(i>>8), byte(i>>16), byte(i>>24))
}

func appendInt64(b []byte, i int64) []byte {
	return append(b, byte(i), byte(i>>8), byte(i>>16), byte(i>>24),
		byte(i>>32), byte(i>>40), byte(i>>48), byte(i>>56))
}

func appendCString(b []byte, s string) []byte {
	b = append(b, s...)
	return append(b, 0x00)
}
