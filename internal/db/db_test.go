// ABOUTME: Tests for the sqlite exchange capture
// ABOUTME: Validates probe records and envelope classification

package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "capture.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestProbeLifecycle(t *testing.T) {
	database := openTestDB(t)

	require.NoError(t, database.CreateProbe("probe_ab12cd34", "192.168.1.100:8080", "newline"))
	require.NoError(t, database.CloseProbe("probe_ab12cd34"))

	probes, err := database.GetAllProbes()
	require.NoError(t, err)
	require.Len(t, probes, 1)
	assert.Equal(t, "192.168.1.100:8080", probes[0].Target)
	assert.Equal(t, "newline", probes[0].Framing)
	assert.NotNil(t, probes[0].ClosedAt)
}

func TestLogMessageClassification(t *testing.T) {
	database := openTestDB(t)
	require.NoError(t, database.CreateProbe("probe_1", "dev:8080", "newline"))

	frames := [][]byte{
		[]byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`),
		[]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`),
		[]byte(`{"jsonrpc":"2.0","id":1,"result":{}}`),
		[]byte(`not json at all`),
	}
	directions := []MessageDirection{
		DirectionProbeToDevice,
		DirectionProbeToDevice,
		DirectionDeviceToProbe,
		DirectionDeviceToProbe,
	}

	for i, frame := range frames {
		require.NoError(t, database.LogMessage("probe_1", directions[i], frame))
	}

	messages, err := database.GetProbeMessages("probe_1")
	require.NoError(t, err)
	require.Len(t, messages, 4)

	assert.Equal(t, "request", messages[0].MessageType)
	assert.Equal(t, "ping", messages[0].Method)
	assert.Equal(t, "1", messages[0].JSONRPCId)

	assert.Equal(t, "notification", messages[1].MessageType)
	assert.Equal(t, "notifications/initialized", messages[1].Method)

	assert.Equal(t, "response", messages[2].MessageType)

	// Unparseable frames are still captured, just unclassified.
	assert.Empty(t, messages[3].MessageType)
	assert.Equal(t, "not json at all", messages[3].RawMessage)
}
