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

// Delete handles the full cycle dispatch and execution of a delete
// operation. The borrowed connection is released before its source on every
// exit path.
func Delete(ctx context.Context, cmd command.Delete, binding WriteBinding, b budget.Budget) (result.Delete, error) {
	if err := cmd.NS.Validate(); err != nil {
		return result.Delete{}, err
	}
	if len(cmd.Deletes) == 0 {
		return result.Delete{}, ErrNoDocuments
	}
	for _, entry := range cmd.Deletes {
		if !hasDeleteFilter(entry) {
			return result.Delete{}, ErrMissingFilter
		}
	}
	if err := guard(ctx, b); err != nil {
		return result.Delete{}, err
	}

	ctx, cancel := b.Context(ctx)
	defer cancel()

	src, err := binding.WriteSource(ctx)
	if err != nil {
		return result.Delete{}, mapContextError(ctx, b, err)
	}
	defer src.Close()

	if err := guard(ctx, b); err != nil {
		return result.Delete{}, err
	}

	conn, err := src.Connection(ctx)
	if err != nil {
		return result.Delete{}, mapContextError(ctx, b, err)
	}
	defer conn.Close()

	if err := guard(ctx, b); err != nil {
		return result.Delete{}, err
	}

	desc := conn.Desc()
	if useWriteCommands(desc, cmd.WriteConcern) {
		res, err := cmd.RoundTrip(ctx, desc, conn)
		return res, mapContextError(ctx, b, err)
	}

	res, err := legacyDelete(ctx, cmd, conn)
	return res, mapContextError(ctx, b, err)
}

// legacyDelete sends one OP_DELETE per delete document. An acknowledged
// write is followed by getLastError so the server reports the outcome; an
// unacknowledged write is fire and forget.
func legacyDelete(ctx context.Context, cmd command.Delete, conn connection.Connection) (result.Delete, error) {
	for _, entry := range cmd.Deletes {
		selector, single, err := splitDeleteEntry(entry)
		if err != nil {
			return result.Delete{}, err
		}

		wm := wiremessage.Delete{
			MsgHeader:          wiremessage.Header{RequestID: wiremessage.NextRequestID()},
			FullCollectionName: cmd.NS.FullName(),
			Selector:           selector,
		}
		if single {
			wm.Flags = wiremessage.SingleRemove
		}

		if err := conn.WriteWireMessage(ctx, wm); err != nil {
			return result.Delete{}, err
		}
	}

	if !cmd.WriteConcern.Acknowledged() {
		return result.Delete{Acknowledged: false}, nil
	}

	gle, err := (&command.GetLastError{DB: cmd.NS.DB}).RoundTrip(ctx, conn)
	if err != nil {
		return result.Delete{}, err
	}
	if gle.Err != "" {
		return result.Delete{}, command.Error{Code: gle.Code, Message: gle.Err}
	}

	return result.Delete{Acknowledged: true, N: gle.N}, nil
}

// hasDeleteFilter reports whether a delete document carries a {q: <filter>}
// field. Both wire forms require one, so its absence is an argument error
// checked before any I/O.
func hasDeleteFilter(entry *birch.Document) bool {
	elem, err := entry.Search("q")
	if err != nil {
		return false
	}
	_, ok := elem.Value().MutableDocumentOK()
	return ok
}

// splitDeleteEntry pulls the filter and limit out of a delete document of
// the form {q: <filter>, limit: <n>}.
func splitDeleteEntry(entry *birch.Document) (birch.Reader, bool, error) {
	var selector birch.Reader
	if elem, err := entry.Search("q"); err == nil {
		if doc, ok := elem.Value().MutableDocumentOK(); ok {
			raw, err := doc.MarshalBSON()
			if err != nil {
				return nil, false, err
			}
			selector = birch.Reader(raw)
		}
	}
	if selector == nil {
		return nil, false, ErrMissingFilter
	}

	single := false
	if elem, err := entry.Search("limit"); err == nil {
		if n, ok := elem.Value().IntOK(); ok {
			single = n == 1
		}
	}
	return selector, single, nil
}
