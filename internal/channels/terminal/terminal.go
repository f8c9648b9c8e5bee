// Package terminal is the interactive console front end.
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hattiebot/conduit/internal/agent"
)

const prompt = "You: "

// Terminal reads one request per line from In and writes replies to Out.
type Terminal struct {
	In      io.Reader
	Out     io.Writer
	Session *agent.Session
	Log     zerolog.Logger
}

// Run loops until quit/exit, end of input or ctx cancellation. All three end
// the session normally. Request errors are reported and the loop continues.
func (t *Terminal) Run(ctx context.Context) error {
	lines := t.scan(ctx)
	for {
		fmt.Fprint(t.Out, prompt)
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(t.Out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(t.Out)
				return nil
			}
			line = strings.TrimSpace(l)
		}

		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			fmt.Fprintln(t.Out, "Goodbye.")
			return nil
		}

		reply, err := t.Session.Handle(ctx, line, t.observe)
		if ctx.Err() != nil {
			fmt.Fprintln(t.Out)
			return nil
		}
		if err != nil {
			t.Log.Error().Err(err).Str("session_id", t.Session.ID).Msg("request failed")
			if reply == "" {
				fmt.Fprintf(t.Out, "error: %s\n\n", agent.UserMessage(err))
				continue
			}
		}
		fmt.Fprintf(t.Out, "Assistant: %s\n\n", reply)
	}
}

// scan feeds input lines to the returned channel; it is closed at end of input.
func (t *Terminal) scan(ctx context.Context) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(t.In)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			t.Log.Warn().Err(err).Msg("reading input")
		}
	}()
	return lines
}

func (t *Terminal) observe(e agent.Event) {
	switch e.Type {
	case agent.EventToolCall:
		t.Log.Debug().Str("tool", e.Call.Name).Str("call_id", e.Call.ID).Msg("tool call")
	case agent.EventToolResult:
		t.Log.Debug().Str("call_id", e.Result.ID).Bool("is_error", e.Result.IsError).Msg("tool result")
	}
}
