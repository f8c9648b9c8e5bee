package core

import (
	"context"
)

// LLMClient abstracts the model provider (Anthropic, OpenRouter).
type LLMClient interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// ToolExecutor runs one tool call. Failures are reported inside the ToolResult,
// never as a Go error, so one bad tool cannot abort a turn.
type ToolExecutor interface {
	Execute(ctx context.Context, req ToolCallRequest) ToolResult
}
