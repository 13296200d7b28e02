// Package result contains the typed results of the commands this driver core
// executes. Results are populated by reading specific named fields out of
// opaque reply documents; the document model itself is external.
package result

import (
	"github.com/tychoish/birch"
)

// IsMaster is the result of an isMaster command. It is the first reply a
// connection receives and carries the server's capability summary.
type IsMaster struct {
	OK                  bool
	IsMaster            bool
	MaxBSONObjectSize   int32
	MaxMessageSizeBytes int32
	MaxWriteBatchSize   int32
	MinWireVersion      int32
	MaxWireVersion      int32
	Msg                 string
	ReadOnly            bool
	Secondary           bool
	SetName             string
	Compression         []string
}

// ReadIsMaster extracts an IsMaster result from a reply document.
func ReadIsMaster(doc *birch.Document) IsMaster {
	res := IsMaster{
		OK:                  readOK(doc),
		IsMaster:            readBool(doc, "ismaster"),
		MaxBSONObjectSize:   readInt32(doc, "maxBsonObjectSize"),
		MaxMessageSizeBytes: readInt32(doc, "maxMessageSizeBytes"),
		MaxWriteBatchSize:   readInt32(doc, "maxWriteBatchSize"),
		MinWireVersion:      readInt32(doc, "minWireVersion"),
		MaxWireVersion:      readInt32(doc, "maxWireVersion"),
		Msg:                 readString(doc, "msg"),
		ReadOnly:            readBool(doc, "readOnly"),
		Secondary:           readBool(doc, "secondary"),
		SetName:             readString(doc, "setName"),
	}

	if elem, err := doc.Search("compression"); err == nil {
		if arr, ok := elem.Value().MutableArrayOK(); ok {
			for i := 0; ; i++ {
				val, err := arr.Lookup(uint(i))
				if err != nil {
					break
				}
				if s, ok := val.StringValueOK(); ok {
					res.Compression = append(res.Compression, s)
				}
			}
		}
	}

	return res
}

// BuildInfo is the result of a buildInfo command.
type BuildInfo struct {
	OK           bool
	GitVersion   string
	Version      string
	VersionArray []uint8
}

// ReadBuildInfo extracts a BuildInfo result from a reply document.
func ReadBuildInfo(doc *birch.Document) BuildInfo {
	res := BuildInfo{
		OK:         readOK(doc),
		GitVersion: readString(doc, "gitVersion"),
		Version:    readString(doc, "version"),
	}

	if elem, err := doc.Search("versionArray"); err == nil {
		if arr, ok := elem.Value().MutableArrayOK(); ok {
			for i := 0; ; i++ {
				val, err := arr.Lookup(uint(i))
				if err != nil {
					break
				}
				if n, ok := val.IntOK(); ok {
					res.VersionArray = append(res.VersionArray, uint8(n))
				}
			}
		}
	}

	return res
}

// IsZero returns true if the BuildInfo is the zero value.
func (bi BuildInfo) IsZero() bool {
	return !bi.OK && bi.GitVersion == "" && bi.Version == "" && bi.VersionArray == nil
}

// GetLastError is the result of a getLastError command. During the handshake
// only the server-assigned connection identifier is read from it; after a
// legacy write it also carries the affected-document count and any write
// error.
type GetLastError struct {
	OK              bool
	ConnectionID    uint32
	HasConnectionID bool
	N               int32
	Err             string
	Code            int32
}

// ReadGetLastError extracts a GetLastError result from a reply document.
func ReadGetLastError(doc *birch.Document) GetLastError {
	res := GetLastError{
		OK:   readOK(doc),
		N:    readInt32(doc, "n"),
		Err:  readString(doc, "err"),
		Code: readInt32(doc, "code"),
	}
	if elem, err := doc.Search("connectionId"); err == nil {
		if n, ok := elem.Value().IntOK(); ok {
			res.ConnectionID = uint32(n)
			res.HasConnectionID = true
		}
	}
	return res
}

// Delete is the result of a delete. N is the number of documents the server
// removed. Acknowledged is false when the write concern did not request a
// server reply; in that case N is meaningless.
type Delete struct {
	Acknowledged bool
	N            int32
}

// ReadDelete extracts a Delete result from a reply document.
func ReadDelete(doc *birch.Document) Delete {
	return Delete{Acknowledged: true, N: readInt32(doc, "n")}
}

// Insert is the result of an insert.
type Insert struct {
	Acknowledged bool
	N            int32
}

// ReadInsert extracts an Insert result from a reply document.
func ReadInsert(doc *birch.Document) Insert {
	return Insert{Acknowledged: true, N: readInt32(doc, "n")}
}

func readOK(doc *birch.Document) bool {
	elem, err := doc.Search("ok")
	if err != nil {
		return false
	}
	if n, ok := elem.Value().IntOK(); ok {
		return n == 1
	}
	if f, ok := elem.Value().DoubleOK(); ok {
		return f == 1
	}
	return false
}

func readInt32(doc *birch.Document, key string) int32 {
	elem, err := doc.Search(key)
	if err != nil {
		return 0
	}
	if n, ok := elem.Value().IntOK(); ok {
		return int32(n)
	}
	return 0
}

func readString(doc *birch.Document, key string) string {
	elem, err := doc.Search(key)
	if err != nil {
		return ""
	}
	if s, ok := elem.Value().StringValueOK(); ok {
		return s
	}
	return ""
}

func readBool(doc *birch.Document, key string) bool {
	elem, err := doc.Search(key)
	if err != nil {
		return false
	}
	if b, ok := elem.Value().BooleanOK(); ok {
		return b
	}
	return false
}
