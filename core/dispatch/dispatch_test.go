package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tychoish/birch"

	"github.com/mongocore/driver/core/command"
	"github.com/mongocore/driver/core/connection"
	"github.com/mongocore/driver/core/description"
	"github.com/mongocore/driver/core/version"
	"github.com/mongocore/driver/core/wiremessage"
	"github.com/mongocore/driver/core/writeconcern"
	"github.com/mongocore/driver/internal/budget"
	"github.com/mongocore/driver/internal/conntest"
	"github.com/mongocore/driver/internal/msgtest"
)

// server30 describes a server that supports write commands.
func server30() description.Connection {
	return description.Connection{
		WireVersion: version.NewRange(0, 3),
		Version:     version.New(3, 0, 0),
	}
}

// server24 describes a server from before write commands existed.
func server24() description.Connection {
	return description.Connection{
		WireVersion: version.NewRange(0, 0),
		Version:     version.New(2, 4, 0),
	}
}

type mockConnection struct {
	*conntest.MockReadWriter
	desc   description.Connection
	events *[]string
}

func (m *mockConnection) Desc() description.Connection { return m.desc }
func (m *mockConnection) Expired() bool                { return false }
func (m *mockConnection) Alive() bool                  { return true }
func (m *mockConnection) ID() string                   { return "mock" }

func (m *mockConnection) Close() error {
	*m.events = append(*m.events, "connection released")
	return nil
}

type mockSource struct {
	conn   *mockConnection
	events *[]string
}

func (s *mockSource) Connection(ctx context.Context) (connection.Connection, error) {
	return s.conn, nil
}

func (s *mockSource) Close() error {
	*s.events = append(*s.events, "source released")
	return nil
}

type mockBinding struct {
	src *mockSource
}

func (b *mockBinding) WriteSource(ctx context.Context) (ConnectionSource, error) {
	return b.src, nil
}

type fixture struct {
	binding *mockBinding
	conn    *mockConnection
	events  []string
}

func newFixture(desc description.Connection, responses ...wiremessage.WireMessage) *fixture {
	f := &fixture{}
	f.conn = &mockConnection{
		MockReadWriter: &conntest.MockReadWriter{ResponseQ: responses},
		desc:           desc,
		events:         &f.events,
	}
	f.binding = &mockBinding{src: &mockSource{conn: f.conn, events: &f.events}}
	return f
}

func deleteCommand(wc *writeconcern.WriteConcern) command.Delete {
	return command.Delete{
		NS: command.NewNamespace("db", "coll"),
		Deletes: []*birch.Document{
			birch.DC.Elements(
				birch.EC.SubDocumentFromElements("q", birch.EC.String("status", "old")),
				birch.EC.Int32("limit", 0),
			),
		},
		WriteConcern: wc,
	}
}

func sentCommand(t *testing.T, wm wiremessage.WireMessage) *birch.Document {
	t.Helper()

	q, ok := wm.(wiremessage.Query)
	require.True(t, ok)
	doc, err := birch.ReadDocument(q.Query)
	require.NoError(t, err)
	return doc
}

func TestDeleteUsesCommandEmulationOnCapableServers(t *testing.T) {
	f := newFixture(server30(), msgtest.OKReply(birch.EC.Int32("n", 4)))

	res, err := Delete(context.Background(), deleteCommand(writeconcern.Default()), f.binding, budget.Unlimited())
	require.NoError(t, err)
	require.True(t, res.Acknowledged)
	require.Equal(t, int32(4), res.N)

	require.Len(t, f.conn.Sent, 1)
	doc := sentCommand(t, f.conn.Sent[0])

	elem, err := doc.Search("delete")
	require.NoError(t, err)
	require.Equal(t, "coll", elem.Value().StringValue())

	status, err := doc.Search("deletes")
	require.NoError(t, err)
	arr, ok := status.Value().MutableArrayOK()
	require.True(t, ok)
	entryVal, err := arr.Lookup(0)
	require.NoError(t, err)
	entry, ok := entryVal.MutableDocumentOK()
	require.True(t, ok)
	filter, err := entry.Search("q", "status")
	require.NoError(t, err)
	require.Equal(t, "old", filter.Value().StringValue())
	limit, err := entry.Search("limit")
	require.NoError(t, err)
	require.Equal(t, int32(0), limit.Value().Int32())

	w, err := doc.Search("writeConcern", "w")
	require.NoError(t, err)
	require.Equal(t, int32(1), w.Value().Int32())

	require.Equal(t, []string{"connection released", "source released"}, f.events)
}

func TestDeleteFallsBackToLegacyOpcode(t *testing.T) {
	f := newFixture(server24(), msgtest.OKReply(birch.EC.Int32("n", 3)))

	cmd := deleteCommand(writeconcern.Default())
	cmd.Deletes = append(cmd.Deletes, birch.DC.Elements(
		birch.EC.SubDocumentFromElements("q", birch.EC.String("status", "stale")),
		birch.EC.Int32("limit", 1),
	))

	res, err := Delete(context.Background(), cmd, f.binding, budget.Unlimited())
	require.NoError(t, err)
	require.True(t, res.Acknowledged)
	require.Equal(t, int32(3), res.N)

	// One OP_DELETE per filter, then the getLastError probe.
	require.Len(t, f.conn.Sent, 3)

	first, ok := f.conn.Sent[0].(wiremessage.Delete)
	require.True(t, ok)
	require.Equal(t, "db.coll", first.FullCollectionName)
	require.Equal(t, wiremessage.DeleteFlag(0), first.Flags)
	selector, err := birch.ReadDocument(first.Selector)
	require.NoError(t, err)
	elem, err := selector.Search("status")
	require.NoError(t, err)
	require.Equal(t, "old", elem.Value().StringValue())

	second, ok := f.conn.Sent[1].(wiremessage.Delete)
	require.True(t, ok)
	require.Equal(t, wiremessage.SingleRemove, second.Flags)

	gle, ok := f.conn.Sent[2].(wiremessage.Query)
	require.True(t, ok)
	require.Equal(t, "db.$cmd", gle.FullCollectionName)
	_, err = sentCommand(t, gle).Search("getLastError")
	require.NoError(t, err)

	require.Equal(t, []string{"connection released", "source released"}, f.events)
}

func TestDeleteUnacknowledgedIsFireAndForget(t *testing.T) {
	// Even a server that supports write commands gets the legacy opcode
	// when no acknowledgement is requested.
	f := newFixture(server30())

	res, err := Delete(context.Background(), deleteCommand(writeconcern.Unacknowledged()), f.binding, budget.Unlimited())
	require.NoError(t, err)
	require.False(t, res.Acknowledged)

	require.Len(t, f.conn.Sent, 1)
	_, ok := f.conn.Sent[0].(wiremessage.Delete)
	require.True(t, ok)
}

func TestDeleteLegacyWriteErrorIsSurfaced(t *testing.T) {
	f := newFixture(server24(), msgtest.OKReply(
		birch.EC.Int32("n", 0),
		birch.EC.String("err", "cannot delete from system collection"),
		birch.EC.Int32("code", 73),
	))

	_, err := Delete(context.Background(), deleteCommand(writeconcern.Default()), f.binding, budget.Unlimited())
	require.Error(t, err)

	cmdErr, ok := err.(command.Error)
	require.True(t, ok)
	require.Equal(t, int32(73), cmdErr.Code)
	require.Equal(t, "cannot delete from system collection", cmdErr.Message)

	require.Equal(t, []string{"connection released", "source released"}, f.events)
}

func TestDeleteReleasesResourcesOnFailure(t *testing.T) {
	// The connection and its source are each released exactly once,
	// connection first, even when the exchange fails after both were
	// acquired. The same holds on either wire form.
	readFailed := errors.New("read failed")
	for name, desc := range map[string]description.Connection{
		"legacy":  server24(),
		"command": server30(),
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(desc)
			f.conn.ReadErr = readFailed

			_, err := Delete(context.Background(), deleteCommand(writeconcern.Default()), f.binding, budget.Unlimited())
			require.Equal(t, readFailed, err)
			require.Equal(t, []string{"connection released", "source released"}, f.events)
		})
	}
}

func TestDeleteArgumentValidation(t *testing.T) {
	f := newFixture(server30())
	ctx := context.Background()

	cmd := deleteCommand(nil)
	cmd.NS = command.Namespace{}
	_, err := Delete(ctx, cmd, f.binding, budget.Unlimited())
	require.Equal(t, command.ErrEmptyDB, err)

	cmd = deleteCommand(nil)
	cmd.Deletes = nil
	_, err = Delete(ctx, cmd, f.binding, budget.Unlimited())
	require.Equal(t, ErrNoDocuments, err)

	// Validation happens before any I/O.
	require.Empty(t, f.conn.Sent)
}

func TestDeleteRequiresFilter(t *testing.T) {
	// A delete document without a filter is rejected before any I/O on
	// both wire forms, so the outcome does not depend on the negotiated
	// server version.
	for name, desc := range map[string]description.Connection{
		"legacy":  server24(),
		"command": server30(),
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(desc)

			cmd := deleteCommand(writeconcern.Default())
			cmd.Deletes = []*birch.Document{birch.DC.Elements(birch.EC.Int32("limit", 1))}

			_, err := Delete(context.Background(), cmd, f.binding, budget.Unlimited())
			require.Equal(t, ErrMissingFilter, err)
			require.Empty(t, f.conn.Sent)
		})
	}
}

func TestDeleteExpiredBudget(t *testing.T) {
	f := newFixture(server30())

	b := budget.New(time.Nanosecond)
	time.Sleep(time.Millisecond)

	_, err := Delete(context.Background(), deleteCommand(writeconcern.Default()), f.binding, b)
	require.Error(t, err)
	_, ok := err.(budget.TimeoutError)
	require.True(t, ok)
	require.Empty(t, f.conn.Sent)
}

func TestDeleteCancelledContext(t *testing.T) {
	f := newFixture(server30())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Delete(ctx, deleteCommand(writeconcern.Default()), f.binding, budget.Unlimited())
	require.Error(t, err)
	_, ok := err.(CancelledError)
	require.True(t, ok)
	require.Empty(t, f.conn.Sent)
}

func TestInsertUsesCommandEmulationOnCapableServers(t *testing.T) {
	f := newFixture(server30(), msgtest.OKReply(birch.EC.Int32("n", 2)))

	cmd := command.Insert{
		NS: command.NewNamespace("db", "coll"),
		Docs: []*birch.Document{
			birch.DC.Elements(birch.EC.String("x", "a")),
			birch.DC.Elements(birch.EC.String("x", "b")),
		},
		Ordered:      true,
		WriteConcern: writeconcern.Default(),
	}

	res, err := Insert(context.Background(), cmd, f.binding, budget.Unlimited())
	require.NoError(t, err)
	require.True(t, res.Acknowledged)
	require.Equal(t, int32(2), res.N)

	require.Len(t, f.conn.Sent, 1)
	doc := sentCommand(t, f.conn.Sent[0])
	elem, err := doc.Search("insert")
	require.NoError(t, err)
	require.Equal(t, "coll", elem.Value().StringValue())

	require.Equal(t, []string{"connection released", "source released"}, f.events)
}

func TestInsertFallsBackToLegacyOpcode(t *testing.T) {
	f := newFixture(server24(), msgtest.OKReply(birch.EC.Int32("n", 0)))

	cmd := command.Insert{
		NS:           command.NewNamespace("db", "coll"),
		Docs:         []*birch.Document{birch.DC.Elements(birch.EC.String("x", "a"))},
		WriteConcern: writeconcern.Default(),
	}

	res, err := Insert(context.Background(), cmd, f.binding, budget.Unlimited())
	require.NoError(t, err)
	require.True(t, res.Acknowledged)
	require.Equal(t, int32(1), res.N)

	require.Len(t, f.conn.Sent, 2)
	ins, ok := f.conn.Sent[0].(wiremessage.Insert)
	require.True(t, ok)
	require.Equal(t, "db.coll", ins.FullCollectionName)
	// An unordered insert asks the server to continue past failures.
	require.Equal(t, wiremessage.ContinueOnError, ins.Flags)

	_, ok = f.conn.Sent[1].(wiremessage.Query)
	require.True(t, ok)
}

func TestInsertUnacknowledgedIsFireAndForget(t *testing.T) {
	f := newFixture(server24())

	cmd := command.Insert{
		NS:           command.NewNamespace("db", "coll"),
		Docs:         []*birch.Document{birch.DC.Elements(birch.EC.String("x", "a"))},
		WriteConcern: writeconcern.Unacknowledged(),
	}

	res, err := Insert(context.Background(), cmd, f.binding, budget.Unlimited())
	require.NoError(t, err)
	require.False(t, res.Acknowledged)
	require.Len(t, f.conn.Sent, 1)
}

func TestUseWriteCommands(t *testing.T) {
	tests := []struct {
		name string
		desc description.Connection
		wc   *writeconcern.WriteConcern
		want bool
	}{
		{"capable server acknowledged", server30(), writeconcern.Default(), true},
		{"capable server nil concern", server30(), nil, true},
		{"capable server unacknowledged", server30(), writeconcern.Unacknowledged(), false},
		{"old server acknowledged", server24(), writeconcern.Default(), false},
		{"old server unacknowledged", server24(), writeconcern.Unacknowledged(), false},
		{"wire version absent but version new enough", description.Connection{Version: version.New(2, 6, 0)}, writeconcern.Default(), true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.want, useWriteCommands(test.desc, test.wc))
		})
	}
}
