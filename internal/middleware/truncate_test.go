package middleware

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/hattiebot/conduit/internal/core"
	"github.com/hattiebot/conduit/internal/tools"
)

type mockExecutor struct {
	result core.ToolResult
	calls  []core.ToolCallRequest
}

func (m *mockExecutor) Execute(ctx context.Context, req core.ToolCallRequest) core.ToolResult {
	m.calls = append(m.calls, req)
	res := m.result
	res.ID = req.ID
	return res
}

func textResult(s string) core.ToolResult {
	return core.ToolResult{Content: []core.ContentBlock{core.TextBlock(s)}}
}

func TestTruncatingExecutor_NoTruncationWhenLimitZero(t *testing.T) {
	long := strings.Repeat("x", 1000)
	wrap := NewTruncatingExecutor(&mockExecutor{result: textResult(long)}, 0)
	got := wrap.Execute(context.Background(), core.ToolCallRequest{ID: "t1", Name: "get_collection"})
	assert.Equal(t, long, got.Text())
}

func TestTruncatingExecutor_TruncatesToExactLimit(t *testing.T) {
	long := strings.Repeat("x", 500)
	inner := &mockExecutor{result: textResult(long)}
	wrap := NewTruncatingExecutor(inner, 200)
	got := wrap.Execute(context.Background(), core.ToolCallRequest{ID: "t1", Name: "get_workspace_collections"})

	assert.Equal(t, "t1", got.ID)
	assert.Equal(t, 200, utf8.RuneCountInString(got.Text()))
	assert.True(t, strings.HasSuffix(got.Text(), tools.Ellipsis))
	// The inner result is not modified in place.
	assert.Equal(t, long, inner.result.Content[0].Text)
}

func TestTruncatingExecutor_KeepsErrorFlag(t *testing.T) {
	res := textResult(strings.Repeat("e", 50))
	res.IsError = true
	wrap := NewTruncatingExecutor(&mockExecutor{result: res}, 10)
	got := wrap.Execute(context.Background(), core.ToolCallRequest{ID: "t2", Name: "x"})
	assert.True(t, got.IsError)
	assert.Equal(t, 10, utf8.RuneCountInString(got.Text()))
}
