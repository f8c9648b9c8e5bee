package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hattiebot/conduit/internal/core"
)

// maxErrorBody caps how much of a failed response is quoted back to the model.
const maxErrorBody = 512

// APIClient issues JSON requests to one upstream service.
type APIClient struct {
	// Service names the upstream in error messages ("postman", "weatherapi").
	Service string
	BaseURL string
	// Header is added to every request (API keys, Authorization).
	Header http.Header
	HTTP   *http.Client
}

// Get issues GET base+path?query and decodes the JSON body into out.
func (c *APIClient) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues POST base+path with body encoded as JSON and decodes into out.
func (c *APIClient) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Do sends one request. Non-2xx responses become *core.HTTPStatusError; out may
// be nil to discard the body.
func (c *APIClient) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := strings.TrimRight(c.BaseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", c.Service, err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Service, err)
	}
	for k, vs := range c.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Service, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", c.Service, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &core.HTTPStatusError{Service: c.Service, Status: resp.StatusCode, Body: Truncate(strings.TrimSpace(string(raw)), maxErrorBody)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.Service, err)
	}
	return nil
}

// RequireKey reports a MissingCredentialError when value is empty.
func RequireKey(setting, value string) error {
	if strings.TrimSpace(value) == "" {
		return &core.MissingCredentialError{Setting: setting}
	}
	return nil
}

// PrettyJSON indents v for inclusion in tool output.
func PrettyJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
