package dispatch

import (
	"context"

	"github.com/tychoish/birch"

	"github.com/mongocore/driver/core/command"
	"github.com/mongocore/driver/core/connection"
	"github.com/mongocore/driver/core/result"
	"github.com/mongocore/driver/core/wiremessage"
	"github.com/mongocore/driver/internal/budget"
)

// Insert handles the full cycle dispatch and execution of an insert
// operation. It follows the same borrow and release discipline as Delete.
func Insert(ctx context.Context, cmd command.Insert, binding WriteBinding, b budget.Budget) (result.Insert, error) {
	if err := cmd.NS.Validate(); err != nil {
		return result.Insert{}, err
	}
	if len(cmd.Docs) == 0 {
		return result.Insert{}, ErrNoDocuments
	}
	if err := guard(ctx, b); err != nil {
		return result.Insert{}, err
	}

	ctx, cancel := b.Context(ctx)
	defer cancel()

	src, err := binding.WriteSource(ctx)
	if err != nil {
		return result.Insert{}, mapContextError(ctx, b, err)
	}
	defer src.Close()

	if err := guard(ctx, b); err != nil {
		return result.Insert{}, err
	}

	conn, err := src.Connection(ctx)
	if err != nil {
		return result.Insert{}, mapContextError(ctx, b, err)
	}
	defer conn.Close()

	if err := guard(ctx, b); err != nil {
		return result.Insert{}, err
	}

	desc := conn.Desc()
	if useWriteCommands(desc, cmd.WriteConcern) {
		res, err := cmd.RoundTrip(ctx, desc, conn)
		return res, mapContextError(ctx, b, err)
	}

	res, err := legacyInsert(ctx, cmd, conn)
	return res, mapContextError(ctx, b, err)
}

// legacyInsert sends a single OP_INSERT carrying every document. An
// acknowledged write is followed by getLastError; an unacknowledged write is
// fire and forget.
func legacyInsert(ctx context.Context, cmd command.Insert, conn connection.Connection) (result.Insert, error) {
	docs := make([]birch.Reader, 0, len(cmd.Docs))
	for _, doc := range cmd.Docs {
		raw, err := doc.MarshalBSON()
		if err != nil {
			return result.Insert{}, err
		}
		docs = append(docs, birch.Reader(raw))
	}

	wm := wiremessage.Insert{
		MsgHeader:          wiremessage.Header{RequestID: wiremessage.NextRequestID()},
		FullCollectionName: cmd.NS.FullName(),
		Documents:          docs,
	}
	if !cmd.Ordered {
		wm.Flags = wiremessage.ContinueOnError
	}

	if err := conn.WriteWireMessage(ctx, wm); err != nil {
		return result.Insert{}, err
	}

	if !cmd.WriteConcern.Acknowledged() {
		return result.Insert{Acknowledged: false}, nil
	}

	gle, err := (&command.GetLastError{DB: cmd.NS.DB}).RoundTrip(ctx, conn)
	if err != nil {
		return result.Insert{}, err
	}
	if gle.Err != "" {
		return result.Insert{}, command.Error{Code: gle.Code, Message: gle.Err}
	}

	// The server does not count inserts in getLastError's n, so report the
	// number of documents sent.
	return result.Insert{Acknowledged: true, N: int32(len(cmd.Docs))}, nil
}
