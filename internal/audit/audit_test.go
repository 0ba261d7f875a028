// ABOUTME: Tests for the SQLite audit log
// ABOUTME: Verifies schema creation, record round-trips, and ordering

package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azernov/modx-proxy/internal/mcp"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	log, err := New(filepath.Join(t.TempDir(), "nested", "audit.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	return log
}

func TestRecordCallRoundTrip(t *testing.T) {
	log := newTestLog(t)
	ctx := context.Background()

	require.NoError(t, log.RecordCall(ctx, mcp.CallRecord{
		RequestID: "req-1",
		Tool:      "modx_core_resource_getlist",
		Duration:  125 * time.Millisecond,
		IsError:   false,
	}))
	time.Sleep(2 * time.Millisecond) // distinct timestamps for ordering
	require.NoError(t, log.RecordCall(ctx, mcp.CallRecord{
		RequestID: "req-2",
		Tool:      "modx_core_resource_create",
		Duration:  40 * time.Millisecond,
		IsError:   true,
	}))

	entries, err := log.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first
	assert.Equal(t, "req-2", entries[0].RequestID)
	assert.Equal(t, "modx_core_resource_create", entries[0].Tool)
	assert.True(t, entries[0].IsError)
	assert.Equal(t, 40*time.Millisecond, entries[0].Duration)

	assert.Equal(t, "req-1", entries[1].RequestID)
	assert.False(t, entries[1].IsError)
	assert.NotEmpty(t, entries[1].ID)
	assert.False(t, entries[1].Timestamp.IsZero())
}

func TestRecentLimit(t *testing.T) {
	log := newTestLog(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, log.RecordCall(ctx, mcp.CallRecord{
			RequestID: "req",
			Tool:      "modx_core_x",
		}))
	}

	entries, err := log.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestRecentEmpty(t *testing.T) {
	log := newTestLog(t)

	entries, err := log.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
