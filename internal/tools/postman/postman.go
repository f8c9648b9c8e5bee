// Package postman implements the Postman API Platform tools: collection
// lookup, API Network search, workspace listing, Private API Network
// browsing and Postbot tool generation.
package postman

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hattiebot/conduit/internal/config"
	"github.com/hattiebot/conduit/internal/core"
	"github.com/hattiebot/conduit/internal/tools"
)

// client is shared by every Postman tool; it carries the X-API-Key header.
type client struct {
	cfg config.Postman
	api *tools.APIClient
}

// Tools returns all Postman tools in catalogue order.
func Tools(cfg config.Postman, hc *http.Client) []tools.Tool {
	c := &client{
		cfg: cfg,
		api: &tools.APIClient{
			Service: "postman",
			BaseURL: cfg.BaseURL,
			Header:  http.Header{"X-API-Key": {cfg.APIKey}},
			HTTP:    hc,
		},
	}
	return []tools.Tool{
		c.collectionTool(),
		c.searchTool(),
		c.workspaceTool(),
		c.privateNetworkTool(),
		c.toolgenTool(),
	}
}

func (c *client) requireKey() error {
	return tools.RequireKey("tools.postman.api_key", c.cfg.APIKey)
}

// viewURL links to an entity in the Postman web app.
func (c *client) viewURL(kind, id string) string {
	return fmt.Sprintf("https://%s/%s/%s", c.cfg.TeamDomain, kind, id)
}

// problem is Postman's error body (RFC 7807 style, or the legacy error object).
type problem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Error  *struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

// describe replaces an HTTP error with Postman's own explanation when the body
// carries one.
func describe(err error) error {
	var status *core.HTTPStatusError
	if !errors.As(err, &status) {
		return err
	}
	var p problem
	if json.Unmarshal([]byte(status.Body), &p) != nil {
		return err
	}
	switch {
	case p.Detail != "":
		return fmt.Errorf("postman: HTTP %d: %s", status.Status, p.Detail)
	case p.Error != nil && p.Error.Message != "":
		return fmt.Errorf("postman: HTTP %d: %s", status.Status, p.Error.Message)
	case p.Title != "":
		return fmt.Errorf("postman: HTTP %d: %s", status.Status, p.Title)
	}
	return err
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
