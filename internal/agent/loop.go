package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/hattiebot/conduit/internal/config"
	"github.com/hattiebot/conduit/internal/core"
)

// Options are the generation parameters sent with every model call.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	System      string
	// MaxTurns caps model calls per user request; 0 means no ceiling.
	MaxTurns int
}

// OptionsFromConfig maps provider and agent settings to loop options.
func OptionsFromConfig(p config.Provider, a config.Agent) Options {
	return Options{
		Model:       p.Model,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		System:      p.SystemPrompt,
		MaxTurns:    a.MaxTurns,
	}
}

// Loop runs one user request: conversation + tool catalogue -> model -> run
// every requested tool concurrently -> append results -> repeat until the
// model answers with text only.
type Loop struct {
	Client   core.LLMClient
	Executor core.ToolExecutor
	Tools    []core.ToolDefinition
	Options  Options
	Log      zerolog.Logger
}

// Run appends userText to conv and drives the model until it stops asking for
// tools. The returned text is the final reply's text blocks joined by
// newlines. A provider failure aborts the request with a *ProviderError;
// everything appended before the failure stays in conv.
func (l *Loop) Run(ctx context.Context, conv *Conversation, userText string, obs Observer) (string, error) {
	conv.Append(core.UserText(userText))

	for turn := 1; ; turn++ {
		if l.Options.MaxTurns > 0 && turn > l.Options.MaxTurns {
			msg := fmt.Sprintf("maximum turns exceeded (%d)", l.Options.MaxTurns)
			l.Log.Warn().Int("max_turns", l.Options.MaxTurns).Msg("turn ceiling reached")
			conv.Append(core.AssistantText(msg))
			obs.emit(Event{Type: EventText, Turn: turn - 1, Text: msg, Final: true})
			return msg, fmt.Errorf("%w (%d)", core.ErrMaxTurns, l.Options.MaxTurns)
		}

		start := time.Now()
		reply, err := l.Client.Complete(ctx, core.CompletionRequest{
			System:      l.Options.System,
			Messages:    conv.Messages(),
			Tools:       l.Tools,
			Model:       l.Options.Model,
			Temperature: l.Options.Temperature,
			MaxTokens:   l.Options.MaxTokens,
		})
		if err != nil {
			l.Log.Error().Err(err).Int("turn", turn).Msg("model call failed")
			return "", &ProviderError{Turn: turn, Err: err}
		}
		msg := reply.Message()
		calls := msg.ToolCalls()
		l.Log.Debug().Int("turn", turn).Int("tool_calls", len(calls)).Str("stop_reason", reply.StopReason).
			Dur("duration", time.Since(start)).Msg("model replied")

		// An assistant turn without content is rejected by the providers on
		// every later request, so an empty reply is never stored.
		if len(calls) == 0 && msg.Text() == "" {
			l.Log.Warn().Int("turn", turn).Str("stop_reason", reply.StopReason).Msg("model returned an empty reply")
			obs.emit(Event{Type: EventText, Turn: turn, Final: true})
			return "", nil
		}
		conv.Append(msg)

		if len(calls) == 0 {
			text := msg.Text()
			obs.emit(Event{Type: EventText, Turn: turn, Text: text, Final: true})
			return text, nil
		}
		if text := msg.Text(); text != "" {
			obs.emit(Event{Type: EventText, Turn: turn, Text: text})
		}

		conv.Append(core.ToolResults(l.dispatch(ctx, turn, calls, obs)))
	}
}

// dispatch runs every call concurrently and returns only after all of them
// finished. results[i] answers calls[i].
func (l *Loop) dispatch(ctx context.Context, turn int, calls []core.ToolCallRequest, obs Observer) []core.ToolResult {
	results := make([]core.ToolResult, len(calls))
	var wg conc.WaitGroup
	for i, call := range calls {
		wg.Go(func() {
			obs.emit(Event{Type: EventToolCall, Turn: turn, Call: &call})
			res := l.Executor.Execute(ctx, call)
			res.ID = call.ID
			results[i] = res
			obs.emit(Event{Type: EventToolResult, Turn: turn, Result: &res})
		})
	}
	wg.Wait()
	return results
}
