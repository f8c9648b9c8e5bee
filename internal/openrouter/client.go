package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/hattiebot/conduit/internal/config"
	"github.com/hattiebot/conduit/internal/core"
	"github.com/hattiebot/conduit/internal/registry"
)

func init() {
	registry.RegisterClient("openrouter", func(cfg config.Provider, hc *http.Client) (core.LLMClient, error) {
		return NewClient(cfg, hc)
	})
}

const BaseURL = "https://openrouter.ai/api/v1"

// Client calls an OpenAI-compatible chat completions endpoint (OpenRouter by default).
type Client struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client

	// MaxRetries applies to network errors, 429 and 5xx.
	MaxRetries uint64
	Backoff    time.Duration
}

// NewClient creates a client from provider settings.
func NewClient(cfg config.Provider, hc *http.Client) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &core.MissingCredentialError{Setting: "provider.api_key"}
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	base := cfg.BaseURL
	if base == "" {
		base = BaseURL
	}
	return &Client{
		APIKey:     cfg.APIKey,
		BaseURL:    strings.TrimRight(base, "/"),
		HTTP:       hc,
		MaxRetries: 3,
		Backoff:    time.Second,
	}, nil
}

// Complete sends one chat completion with the tool catalogue attached.
func (c *Client) Complete(ctx context.Context, req core.CompletionRequest) (core.Completion, error) {
	if req.Model == "" {
		return core.Completion{}, fmt.Errorf("openrouter: model not set")
	}
	body, err := buildRequest(req)
	if err != nil {
		return core.Completion{}, err
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return core.Completion{}, err
	}

	bodyBytes, err := c.post(ctx, raw)
	if err != nil {
		return core.Completion{}, err
	}

	var out chatResponse
	if err := json.Unmarshal(bodyBytes, &out); err != nil {
		return core.Completion{}, fmt.Errorf("openrouter: decode: %w", err)
	}
	if out.Error != nil {
		return core.Completion{}, fmt.Errorf("openrouter: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return core.Completion{}, fmt.Errorf("openrouter: no choices in response (body: %s)", string(bodyBytes))
	}
	return toCompletion(out.Choices[0].Message, out.Choices[0].FinishReason)
}

// post sends the request, retrying transient failures with exponential backoff.
func (c *Client) post(ctx context.Context, raw []byte) ([]byte, error) {
	backoff := retry.WithMaxRetries(c.MaxRetries, retry.NewExponential(c.Backoff))

	var bodyBytes []byte
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(raw))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.APIKey)

		resp, err := c.HTTP.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			return retry.RetryableError(fmt.Errorf("openrouter: %w", err))
		}
		defer resp.Body.Close()
		bodyBytes, _ = io.ReadAll(resp.Body)

		if resp.StatusCode == http.StatusOK {
			return nil
		}
		statusErr := &core.HTTPStatusError{Service: "openrouter", Status: resp.StatusCode, Body: string(bodyBytes)}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return retry.RetryableError(statusErr)
		}
		return statusErr
	})
	if err != nil {
		return nil, err
	}
	return bodyBytes, nil
}
