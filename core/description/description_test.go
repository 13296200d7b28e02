package description

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mongocore/driver/core/result"
	"github.com/mongocore/driver/core/version"
)

func TestNewConnection(t *testing.T) {
	isMaster := result.IsMaster{
		OK:                  true,
		MaxBSONObjectSize:   1 << 24,
		MaxMessageSizeBytes: 1 << 25,
		MaxWriteBatchSize:   1000,
		MinWireVersion:      0,
		MaxWireVersion:      3,
		SetName:             "rs0",
		Compression:         []string{"snappy"},
	}
	buildInfo := result.BuildInfo{
		OK:           true,
		Version:      "3.0.6",
		GitVersion:   "abcdef",
		VersionArray: []uint8{3, 0, 6},
	}

	d := NewConnection("localhost", ConnectionID{Local: 3}, isMaster, buildInfo)

	require.Equal(t, "localhost:27017", d.Addr.String())
	require.Equal(t, int32(1<<24), d.MaxDocumentSize)
	require.Equal(t, int32(1<<25), d.MaxMessageSize)
	require.Equal(t, int32(1000), d.MaxBatchCount)
	require.Equal(t, "rs0", d.SetName)
	require.Equal(t, []string{"snappy"}, d.Compression)
	require.Equal(t, version.NewRange(0, 3), d.WireVersion)
	require.Equal(t, "3.0.6", d.Version.String())
	require.Equal(t, "abcdef", d.GitVersion)
	require.True(t, ReplicaSetMember(d))
}

func TestNewConnectionZeroBuildInfo(t *testing.T) {
	d := NewConnection("localhost", ConnectionID{Local: 1}, result.IsMaster{OK: true}, result.BuildInfo{})
	require.Equal(t, "", d.Version.String())
	require.False(t, ReplicaSetMember(d))
}

func TestWithServerConnectionID(t *testing.T) {
	d := NewConnection("localhost", ConnectionID{Local: 9}, result.IsMaster{OK: true}, result.BuildInfo{})
	require.Equal(t, "localhost:27017[-9]", d.String())

	refined := d.WithServerConnectionID(4021)
	require.Equal(t, "localhost:27017[4021]", refined.String())

	// the original is untouched
	require.False(t, d.ID.ServerKnown)
	require.Equal(t, "localhost:27017[-9]", d.String())
}

func TestSupportsWriteCommands(t *testing.T) {
	tests := []struct {
		name     string
		desc     Connection
		expected bool
	}{
		{
			"wire version at threshold",
			Connection{WireVersion: version.NewRange(0, 2)},
			true,
		},
		{
			"wire version above threshold",
			Connection{WireVersion: version.NewRange(0, 5)},
			true,
		},
		{
			"wire version below threshold",
			Connection{WireVersion: version.NewRange(0, 1)},
			false,
		},
		{
			"no wire version, new server version",
			Connection{Version: version.New(3, 0, 0)},
			true,
		},
		{
			"no wire version, old server version",
			Connection{Version: version.New(2, 4, 9)},
			false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, SupportsWriteCommands(test.desc))
		})
	}
}
