package middleware

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hattiebot/conduit/internal/core"
	"github.com/hattiebot/conduit/internal/store"
)

type fakeRecorder struct {
	entries []store.ToolCall
	err     error
}

func (f *fakeRecorder) Record(ctx context.Context, c store.ToolCall) error {
	f.entries = append(f.entries, c)
	return f.err
}

func TestAuditingExecutor_RecordsCall(t *testing.T) {
	rec := &fakeRecorder{}
	res := textResult(strings.Repeat("w", 400))
	res.IsError = true
	wrap := NewAuditingExecutor(&mockExecutor{result: res}, rec, zerolog.Nop())

	ctx := core.WithSessionID(context.Background(), "sess-1")
	got := wrap.Execute(ctx, core.ToolCallRequest{ID: "t1", Name: "get_weather"})

	assert.Equal(t, "t1", got.ID)
	require.Len(t, rec.entries, 1)
	e := rec.entries[0]
	assert.Equal(t, "sess-1", e.SessionID)
	assert.Equal(t, "t1", e.CallID)
	assert.Equal(t, "get_weather", e.Tool)
	assert.True(t, e.IsError)
	assert.Equal(t, previewRunes, len([]rune(e.Preview)))
}

func TestAuditingExecutor_WriteFailureDoesNotChangeResult(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}
	wrap := NewAuditingExecutor(&mockExecutor{result: textResult("ok")}, rec, zerolog.Nop())
	got := wrap.Execute(context.Background(), core.ToolCallRequest{ID: "t9", Name: "get_weather"})
	assert.Equal(t, "ok", got.Text())
	assert.False(t, got.IsError)
}
