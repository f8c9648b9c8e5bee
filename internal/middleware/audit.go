package middleware

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hattiebot/conduit/internal/core"
	"github.com/hattiebot/conduit/internal/store"
	"github.com/hattiebot/conduit/internal/tools"
)

// previewRunes caps the result text kept in the audit log.
const previewRunes = 200

// Recorder persists audit entries; *store.ToolCallLog implements it.
type Recorder interface {
	Record(ctx context.Context, c store.ToolCall) error
}

// AuditingExecutor records every tool call made through next. A failed write
// is logged and does not affect the result.
type AuditingExecutor struct {
	next core.ToolExecutor
	rec  Recorder
	log  zerolog.Logger
}

func NewAuditingExecutor(next core.ToolExecutor, rec Recorder, log zerolog.Logger) *AuditingExecutor {
	return &AuditingExecutor{next: next, rec: rec, log: log}
}

func (a *AuditingExecutor) Execute(ctx context.Context, req core.ToolCallRequest) core.ToolResult {
	start := time.Now()
	res := a.next.Execute(ctx, req)
	entry := store.ToolCall{
		CreatedAt: start,
		SessionID: core.SessionID(ctx),
		CallID:    req.ID,
		Tool:      req.Name,
		IsError:   res.IsError,
		Duration:  time.Since(start),
		Preview:   tools.Truncate(res.Text(), previewRunes),
	}
	// The turn may already be cancelled; the audit write should still land.
	if err := a.rec.Record(context.WithoutCancel(ctx), entry); err != nil {
		a.log.Warn().Err(err).Str("tool", req.Name).Str("call_id", req.ID).Msg("audit write failed")
	}
	return res
}
