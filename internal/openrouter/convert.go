package openrouter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hattiebot/conduit/internal/core"
)

// Wire types for the OpenAI chat completions format.

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Tools       []chatTool    `json:"tools,omitempty"`
	ToolChoice  any           `json:"tool_choice,omitempty"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role       string     `json:"role"`
	Content    *string    `json:"content"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function functionSpec `json:"function"`
}

type functionSpec struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Parameters  *core.Schema `json:"parameters,omitempty"`
}

type toolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type responseMessage struct {
	Content   json.RawMessage `json:"content"`
	Role      string          `json:"role"`
	ToolCalls []toolCall      `json:"tool_calls,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      responseMessage `json:"message"`
		FinishReason string          `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func text(s string) *string { return &s }

func buildRequest(req core.CompletionRequest) (chatRequest, error) {
	body := chatRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: text(req.System)})
	}
	for _, m := range req.Messages {
		msgs, err := toChatMessages(m)
		if err != nil {
			return body, err
		}
		body.Messages = append(body.Messages, msgs...)
	}
	for _, def := range req.Tools {
		body.Tools = append(body.Tools, chatTool{
			Type:     "function",
			Function: functionSpec{Name: def.Name, Description: def.Description, Parameters: def.InputSchema},
		})
	}
	if len(body.Tools) > 0 {
		body.ToolChoice = "auto"
	}
	return body, nil
}

// toChatMessages flattens one block-structured message. Tool results become
// role "tool" messages, one per result; text in the same message follows as
// a user message.
func toChatMessages(m core.Message) ([]chatMessage, error) {
	if m.Role == core.RoleAssistant {
		msg := chatMessage{Role: "assistant"}
		if t := m.Text(); t != "" {
			msg.Content = text(t)
		}
		for _, call := range m.ToolCalls() {
			args := call.Arguments
			if args == nil {
				args = map[string]any{}
			}
			raw, err := json.Marshal(args)
			if err != nil {
				return nil, fmt.Errorf("openrouter: encode arguments for %s: %w", call.ID, err)
			}
			tc := toolCall{ID: call.ID, Type: "function"}
			tc.Function.Name = call.Name
			tc.Function.Arguments = string(raw)
			msg.ToolCalls = append(msg.ToolCalls, tc)
		}
		if msg.Content == nil && len(msg.ToolCalls) == 0 {
			return nil, nil
		}
		return []chatMessage{msg}, nil
	}

	var out []chatMessage
	for _, b := range m.Content {
		if b.Type == core.BlockToolResult && b.ToolResult != nil {
			out = append(out, chatMessage{Role: "tool", ToolCallID: b.ToolResult.ID, Content: text(b.ToolResult.Text())})
		}
	}
	if t := m.Text(); t != "" {
		out = append(out, chatMessage{Role: "user", Content: text(t)})
	}
	return out, nil
}

func toCompletion(msg responseMessage, finish string) (core.Completion, error) {
	out := core.Completion{StopReason: finish}
	if content := parseContent(msg.Content); content != "" {
		out.Content = append(out.Content, core.TextBlock(content))
	}
	for _, tc := range msg.ToolCalls {
		args := map[string]any{}
		if s := strings.TrimSpace(tc.Function.Arguments); s != "" {
			if err := json.Unmarshal([]byte(s), &args); err != nil {
				return core.Completion{}, fmt.Errorf("openrouter: tool call %s: invalid arguments: %w", tc.ID, err)
			}
		}
		out.Content = append(out.Content, core.ContentBlock{
			Type:    core.BlockToolUse,
			ToolUse: &core.ToolCallRequest{ID: tc.ID, Name: tc.Function.Name, Arguments: args},
		})
	}
	return out, nil
}

// parseContent parses API content that may be string, null, or array of parts (e.g. [{"type":"text","text":"..."}]).
func parseContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err == nil {
		var b strings.Builder
		for _, p := range parts {
			if p.Type == "text" {
				b.WriteString(p.Text)
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return parseContentArrayGeneric(raw)
}

// parseContentArrayGeneric extracts text from an array of objects that may have "text" key (e.g. OpenRouter/Kimi).
func parseContentArrayGeneric(raw json.RawMessage) string {
	var parts []map[string]any
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var b strings.Builder
	for _, p := range parts {
		if t, ok := p["text"].(string); ok {
			b.WriteString(t)
		}
	}
	return b.String()
}
