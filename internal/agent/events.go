package agent

import "github.com/hattiebot/conduit/internal/core"

// EventType classifies loop progress reported to an Observer.
type EventType string

const (
	// EventText carries assistant text. Final is set on the answer that ends the request.
	EventText       EventType = "message"
	EventToolCall   EventType = "tool_call"
	EventToolResult EventType = "tool_result"
)

// Event is one observable step of a request.
type Event struct {
	Type   EventType             `json:"type"`
	Turn   int                   `json:"turn"`
	Text   string                `json:"text,omitempty"`
	Final  bool                  `json:"final,omitempty"`
	Call   *core.ToolCallRequest `json:"call,omitempty"`
	Result *core.ToolResult      `json:"result,omitempty"`
}

// Observer receives events while a request runs. Tool events arrive from the
// goroutines running the calls, so implementations must be safe for
// concurrent use. A nil Observer is allowed.
type Observer func(Event)

func (o Observer) emit(e Event) {
	if o != nil {
		o(e)
	}
}
