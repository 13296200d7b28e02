// Package msgtest provides helpers for constructing wire messages in tests.
package msgtest

import (
	"github.com/tychoish/birch"

	"github.com/mongocore/driver/core/wiremessage"
)

// CreateCommandReply builds an OP_REPLY carrying a single command response
// document with the given elements.
func CreateCommandReply(elems ...*birch.Element) wiremessage.Reply {
	doc := birch.DC.Elements(elems...)
	raw, err := doc.MarshalBSON()
	if err != nil {
		panic(err)
	}

	return wiremessage.Reply{
		MsgHeader:      wiremessage.Header{RequestID: wiremessage.NextRequestID()},
		NumberReturned: 1,
		Documents:      []birch.Reader{birch.Reader(raw)},
	}
}

// OKReply builds a command reply reporting success, with any extra elements
// appended after the ok field.
func OKReply(elems ...*birch.Element) wiremessage.Reply {
	all := append([]*birch.Element{birch.EC.Int32("ok", 1)}, elems...)
	return CreateCommandReply(all...)
}
