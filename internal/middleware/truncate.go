package middleware

import (
	"context"

	"github.com/hattiebot/conduit/internal/core"
	"github.com/hattiebot/conduit/internal/tools"
)

// TruncatingExecutor wraps a ToolExecutor and truncates each text block of the
// result to limit runes (0 = no truncation).
type TruncatingExecutor struct {
	next  core.ToolExecutor
	limit int
}

// NewTruncatingExecutor returns an executor that truncates results from next.
func NewTruncatingExecutor(next core.ToolExecutor, limit int) *TruncatingExecutor {
	return &TruncatingExecutor{next: next, limit: limit}
}

// Execute runs the inner executor and truncates the result before returning.
func (t *TruncatingExecutor) Execute(ctx context.Context, req core.ToolCallRequest) core.ToolResult {
	res := t.next.Execute(ctx, req)
	if t.limit <= 0 {
		return res
	}
	content := make([]core.ContentBlock, len(res.Content))
	for i, b := range res.Content {
		if b.Type == core.BlockText {
			b.Text = tools.Truncate(b.Text, t.limit)
		}
		content[i] = b
	}
	res.Content = content
	return res
}
