package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/hattiebot/conduit/internal/config"
	"github.com/hattiebot/conduit/internal/core"
)

// Executor resolves tool calls against a Registry and runs their handlers.
// It implements core.ToolExecutor: every outcome, including unknown tools,
// invalid arguments and handler panics, comes back as a ToolResult.
type Executor struct {
	reg     *Registry
	retry   map[string]config.RetryPolicy
	timeout time.Duration
	log     zerolog.Logger
}

// NewExecutor returns an executor over reg configured by cfg.
func NewExecutor(reg *Registry, cfg config.Agent, log zerolog.Logger) *Executor {
	return &Executor{
		reg:     reg,
		retry:   cfg.Retry,
		timeout: cfg.ToolTimeout,
		log:     log,
	}
}

// Execute runs one tool call. The result ID always equals req.ID.
func (e *Executor) Execute(ctx context.Context, req core.ToolCallRequest) core.ToolResult {
	start := time.Now()
	log := e.log.With().Str("tool", req.Name).Str("call_id", req.ID).Logger()

	t, ok := e.reg.Lookup(req.Name)
	if !ok {
		err := &core.UnknownToolError{Name: req.Name}
		log.Warn().Err(err).Msg("model requested unknown tool")
		return ErrorResult(req.ID, "Error: "+err.Error())
	}
	if err := t.Def.InputSchema.Validate(req.Arguments); err != nil {
		log.Warn().Err(err).Msg("rejected tool arguments")
		return ErrorResult(req.ID, fmt.Sprintf("Error calling %s: %v", req.Name, err))
	}

	out, err := e.invoke(ctx, t, req.Arguments)
	dur := time.Since(start)
	if err != nil {
		log.Error().Err(err).Dur("duration", dur).Msg("tool failed")
		return ErrorResult(req.ID, fmt.Sprintf("Error calling %s: %v", req.Name, err))
	}
	log.Info().Dur("duration", dur).Int("bytes", len(out)).Msg("tool completed")
	return core.ToolResult{ID: req.ID, Content: []core.ContentBlock{core.TextBlock(out)}}
}

// ErrorResult builds an error ToolResult carrying msg as its only text block.
func ErrorResult(id, msg string) core.ToolResult {
	return core.ToolResult{ID: id, Content: []core.ContentBlock{core.TextBlock(msg)}, IsError: true}
}

func (e *Executor) invoke(ctx context.Context, t Tool, args map[string]any) (string, error) {
	policy, ok := e.retry[t.Def.Name]
	if !ok || policy.Attempts <= 0 {
		return e.call(ctx, t, args)
	}

	base := policy.Backoff
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	backoff := retry.WithMaxRetries(uint64(policy.Attempts), retry.NewExponential(base))

	var out string
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		var err error
		out, err = e.call(ctx, t, args)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		e.log.Debug().Str("tool", t.Def.Name).Int("attempt", attempt).Err(err).Msg("retrying tool")
		return retry.RetryableError(err)
	})
	return out, err
}

// call runs the handler once, converting a panic into an error.
func (e *Executor) call(ctx context.Context, t Tool, args map[string]any) (out string, err error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Str("tool", t.Def.Name).Bytes("stack", debug.Stack()).Msg("tool panicked")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.Handler(ctx, args)
}

func retryable(err error) bool {
	var missing *core.MissingCredentialError
	if errors.As(err, &missing) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var status *core.HTTPStatusError
	if errors.As(err, &status) {
		return status.Status == http.StatusTooManyRequests || status.Status >= 500
	}
	return true
}
