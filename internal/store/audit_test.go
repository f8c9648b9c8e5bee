package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestToolCallLog_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	log := NewToolCallLog(openTestDB(t))

	require.NoError(t, log.Record(ctx, ToolCall{SessionID: "s1", CallID: "t1", Tool: "get_weather", Duration: 120 * time.Millisecond, Preview: "The weather in Paris is Sunny"}))
	require.NoError(t, log.Record(ctx, ToolCall{SessionID: "s1", CallID: "t2", Tool: "generate_image", IsError: true}))
	require.NoError(t, log.Record(ctx, ToolCall{SessionID: "s2", CallID: "t3", Tool: "get_collection"}))

	all, err := log.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "t3", all[0].CallID)

	s1, err := log.Recent(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, s1, 2)
	assert.Equal(t, "generate_image", s1[0].Tool)
	assert.True(t, s1[0].IsError)
	assert.Equal(t, 120*time.Millisecond, s1[1].Duration)
	assert.Equal(t, "The weather in Paris is Sunny", s1[1].Preview)
	assert.False(t, s1[1].CreatedAt.IsZero())
}

func TestToolCallLog_Cleanup(t *testing.T) {
	ctx := context.Background()
	log := NewToolCallLog(openTestDB(t))

	require.NoError(t, log.Record(ctx, ToolCall{SessionID: "s", CallID: "old", Tool: "x", CreatedAt: time.Now().Add(-48 * time.Hour)}))
	require.NoError(t, log.Record(ctx, ToolCall{SessionID: "s", CallID: "new", Tool: "x"}))

	n, err := log.Cleanup(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := log.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "new", left[0].CallID)
}
