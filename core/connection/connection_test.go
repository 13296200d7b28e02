package connection

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tychoish/birch"

	"github.com/mongocore/driver/core/description"
	"github.com/mongocore/driver/core/wiremessage"
	"github.com/mongocore/driver/internal/msgtest"
)

// readOneMessage reads a single length-prefixed wire message off the server
// end of a pipe.
func readOneMessage(t *testing.T, r io.Reader) []byte {
	t.Helper()

	var sizeBuf [4]byte
	_, err := io.ReadFull(r, sizeBuf[:])
	require.NoError(t, err)
	size := binary.LittleEndian.Uint32(sizeBuf[:])

	b := make([]byte, size)
	copy(b, sizeBuf[:])
	_, err = io.ReadFull(r, b[4:])
	require.NoError(t, err)
	return b
}

func pipeConnection(nc net.Conn) *connection {
	c := &connection{
		addr: "pipe",
		conn: nc,
		desc: description.Connection{Addr: "pipe", ID: description.ConnectionID{Local: 1}},
	}
	return c
}

func TestConnectionReadWrite(t *testing.T) {
	clientEnd, serverEnd := net.Pipe()
	defer clientEnd.Close()
	defer serverEnd.Close()

	c := pipeConnection(clientEnd)

	reply := msgtest.OKReply(birch.EC.Int32("n", 1))
	rawReply, err := reply.MarshalWireMessage()
	require.NoError(t, err)

	received := make(chan []byte, 1)
	go func() {
		received <- readOneMessage(t, serverEnd)
		_, _ = serverEnd.Write(rawReply)
	}()

	query := wiremessage.Query{
		MsgHeader:          wiremessage.Header{RequestID: wiremessage.NextRequestID()},
		FullCollectionName: "db.$cmd",
		NumberToReturn:     -1,
		Query:              mustDocBytes(t, birch.DC.Elements(birch.EC.Int32("ping", 1))),
	}

	ctx := context.Background()
	require.NoError(t, c.WriteWireMessage(ctx, query))

	sent, err := wiremessage.Unmarshal(<-received)
	require.NoError(t, err)
	sentQuery, ok := sent.(wiremessage.Query)
	require.True(t, ok)
	require.Equal(t, "db.$cmd", sentQuery.FullCollectionName)

	wm, err := c.ReadWireMessage(ctx)
	require.NoError(t, err)
	got, ok := wm.(wiremessage.Reply)
	require.True(t, ok)
	require.Equal(t, int32(1), got.NumberReturned)
	require.True(t, c.Alive())
}

func TestConnectionCompressesWhenNegotiated(t *testing.T) {
	clientEnd, serverEnd := net.Pipe()
	defer clientEnd.Close()
	defer serverEnd.Close()

	c := pipeConnection(clientEnd)
	c.compress = true

	received := make(chan []byte, 1)
	go func() {
		received <- readOneMessage(t, serverEnd)
	}()

	query := wiremessage.Query{
		MsgHeader:          wiremessage.Header{RequestID: wiremessage.NextRequestID()},
		FullCollectionName: "db.$cmd",
		NumberToReturn:     -1,
		Query:              mustDocBytes(t, birch.DC.Elements(birch.EC.Int32("ping", 1))),
	}
	require.NoError(t, c.WriteWireMessage(context.Background(), query))

	sent, err := wiremessage.Unmarshal(<-received)
	require.NoError(t, err)
	compressed, ok := sent.(wiremessage.Compressed)
	require.True(t, ok)
	require.Equal(t, wiremessage.OpQuery, compressed.OriginalOpCode)

	original, err := compressed.Original()
	require.NoError(t, err)
	originalQuery, ok := original.(wiremessage.Query)
	require.True(t, ok)
	require.Equal(t, "db.$cmd", originalQuery.FullCollectionName)
}

func TestConnectionDeadAfterNetworkError(t *testing.T) {
	clientEnd, serverEnd := net.Pipe()
	_ = serverEnd.Close()
	_ = clientEnd.Close()

	c := pipeConnection(clientEnd)

	err := c.WriteWireMessage(context.Background(), msgtest.OKReply())
	require.Error(t, err)
	_, ok := err.(NetworkError)
	require.True(t, ok)
	require.False(t, c.Alive())

	// Every use after a network error fails fast.
	err = c.WriteWireMessage(context.Background(), msgtest.OKReply())
	require.Error(t, err)
	_, ok = err.(*Error)
	require.True(t, ok)
}

func TestConnectionReadHonorsContextDeadline(t *testing.T) {
	clientEnd, serverEnd := net.Pipe()
	defer clientEnd.Close()
	defer serverEnd.Close()

	c := pipeConnection(clientEnd)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.ReadWireMessage(ctx)
	require.Error(t, err)
	_, ok := err.(NetworkError)
	require.True(t, ok)
}

func mustDocBytes(t *testing.T, doc *birch.Document) birch.Reader {
	t.Helper()

	raw, err := doc.MarshalBSON()
	require.NoError(t, err)
	return birch.Reader(raw)
}
