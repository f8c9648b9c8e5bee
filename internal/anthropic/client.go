// Package anthropic adapts the Anthropic Messages API to core.LLMClient.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hattiebot/conduit/internal/config"
	"github.com/hattiebot/conduit/internal/core"
	"github.com/hattiebot/conduit/internal/registry"
)

func init() {
	registry.RegisterClient("anthropic", func(cfg config.Provider, hc *http.Client) (core.LLMClient, error) {
		return NewClient(cfg, hc)
	})
}

// Client calls the Anthropic Messages API.
type Client struct {
	api sdk.Client
}

// NewClient builds a client from provider settings. An empty BaseURL uses
// the SDK default.
func NewClient(cfg config.Provider, hc *http.Client) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &core.MissingCredentialError{Setting: "provider.api_key"}
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if hc != nil {
		opts = append(opts, option.WithHTTPClient(hc))
	}
	return &Client{api: sdk.NewClient(opts...)}, nil
}

// Complete sends the conversation and tool catalogue and maps the reply
// blocks back in emitted order.
func (c *Client) Complete(ctx context.Context, req core.CompletionRequest) (core.Completion, error) {
	params, err := buildParams(req)
	if err != nil {
		return core.Completion{}, err
	}
	msg, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return core.Completion{}, wrapError(err)
	}

	out := core.Completion{StopReason: string(msg.StopReason)}
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case sdk.TextBlock:
			out.Content = append(out.Content, core.TextBlock(b.Text))
		case sdk.ToolUseBlock:
			args := map[string]any{}
			if len(b.Input) > 0 {
				if err := json.Unmarshal(b.Input, &args); err != nil {
					return core.Completion{}, fmt.Errorf("anthropic: tool_use %s: decode input: %w", b.ID, err)
				}
			}
			out.Content = append(out.Content, core.ContentBlock{
				Type:    core.BlockToolUse,
				ToolUse: &core.ToolCallRequest{ID: b.ID, Name: b.Name, Arguments: args},
			})
		}
	}
	return out, nil
}

func buildParams(req core.CompletionRequest) (sdk.MessageNewParams, error) {
	params := sdk.MessageNewParams{
		Model:       sdk.Model(req.Model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: sdk.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	for _, def := range req.Tools {
		params.Tools = append(params.Tools, toolParam(def))
	}
	for _, m := range req.Messages {
		mp, err := messageParam(m)
		if err != nil {
			return params, err
		}
		// The API rejects messages without content blocks.
		if len(mp.Content) == 0 {
			continue
		}
		params.Messages = append(params.Messages, mp)
	}
	return params, nil
}

func toolParam(def core.ToolDefinition) sdk.ToolUnionParam {
	schema := sdk.ToolInputSchemaParam{}
	if def.InputSchema != nil {
		schema.Properties = def.InputSchema.Properties
		schema.Required = def.InputSchema.Required
	}
	tool := &sdk.ToolParam{Name: def.Name, InputSchema: schema}
	if def.Description != "" {
		tool.Description = sdk.String(def.Description)
	}
	return sdk.ToolUnionParam{OfTool: tool}
}

func messageParam(m core.Message) (sdk.MessageParam, error) {
	blocks := make([]sdk.ContentBlockParamUnion, 0, len(m.Content))
	for _, b := range m.Content {
		switch b.Type {
		case core.BlockText:
			if b.Text == "" {
				continue
			}
			blocks = append(blocks, sdk.NewTextBlock(b.Text))
		case core.BlockToolUse:
			args := b.ToolUse.Arguments
			if args == nil {
				args = map[string]any{}
			}
			blocks = append(blocks, sdk.NewToolUseBlock(b.ToolUse.ID, args, b.ToolUse.Name))
		case core.BlockToolResult:
			r := b.ToolResult
			blocks = append(blocks, sdk.NewToolResultBlock(r.ID, r.Text(), r.IsError))
		default:
			return sdk.MessageParam{}, fmt.Errorf("anthropic: unsupported block type %q", b.Type)
		}
	}
	if m.Role == core.RoleAssistant {
		return sdk.NewAssistantMessage(blocks...), nil
	}
	return sdk.NewUserMessage(blocks...), nil
}

func wrapError(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return &core.HTTPStatusError{Service: "anthropic", Status: apiErr.StatusCode, Body: apiErr.RawJSON()}
	}
	return fmt.Errorf("anthropic: %w", err)
}
