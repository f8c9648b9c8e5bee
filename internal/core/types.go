package core

import "strings"

// Role is the author of a Message. Tool results travel in user messages.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType tags a ContentBlock.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// ContentBlock is one typed element of a message's content. Exactly one of
// Text, ToolUse or ToolResult is meaningful, selected by Type.
type ContentBlock struct {
	Type       BlockType        `json:"type"`
	Text       string           `json:"text,omitempty"`
	ToolUse    *ToolCallRequest `json:"tool_use,omitempty"`
	ToolResult *ToolResult      `json:"tool_result,omitempty"`
}

// TextBlock returns a text content block.
func TextBlock(s string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: s}
}

// Message is one exchanged unit of conversation.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// UserText builds a user message holding a single text block.
func UserText(s string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{TextBlock(s)}}
}

// AssistantText builds an assistant message holding a single text block.
func AssistantText(s string) Message {
	return Message{Role: RoleAssistant, Content: []ContentBlock{TextBlock(s)}}
}

// ToolResults packages results as the user message answering a tool_use reply.
func ToolResults(results []ToolResult) Message {
	blocks := make([]ContentBlock, 0, len(results))
	for i := range results {
		r := results[i]
		blocks = append(blocks, ContentBlock{Type: BlockToolResult, ToolResult: &r})
	}
	return Message{Role: RoleUser, Content: blocks}
}

// Text joins the message's text blocks with newlines.
func (m Message) Text() string {
	return joinText(m.Content)
}

// ToolCalls returns the tool_use requests in the order the model emitted them.
func (m Message) ToolCalls() []ToolCallRequest {
	var calls []ToolCallRequest
	for _, b := range m.Content {
		if b.Type == BlockToolUse && b.ToolUse != nil {
			calls = append(calls, *b.ToolUse)
		}
	}
	return calls
}

// ToolCallRequest is an instruction from the model to run a tool.
type ToolCallRequest struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResult is the outcome of one ToolCallRequest; ID always equals the request ID.
type ToolResult struct {
	ID      string         `json:"id"`
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"is_error,omitempty"`
}

// Text joins the result's text blocks with newlines.
func (r ToolResult) Text() string {
	return joinText(r.Content)
}

// ToolDefinition is the model-facing half of a tool declaration.
type ToolDefinition struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	InputSchema *Schema `json:"input_schema"`
}

// CompletionRequest is one provider call: the whole conversation plus the catalogue.
type CompletionRequest struct {
	System      string
	Messages    []Message
	Tools       []ToolDefinition
	Model       string
	Temperature float64
	MaxTokens   int
}

// Completion is the provider's reply, blocks in emitted order.
type Completion struct {
	Content    []ContentBlock
	StopReason string
}

// Message converts the completion into the assistant message appended to the conversation.
func (c Completion) Message() Message {
	return Message{Role: RoleAssistant, Content: c.Content}
}

func joinText(blocks []ContentBlock) string {
	var parts []string
	for _, b := range blocks {
		if b.Type == BlockText && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}
