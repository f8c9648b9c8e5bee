// Package builtin assembles the tool catalogue every front end shares.
package builtin

import (
	"net/http"

	"github.com/hattiebot/conduit/internal/config"
	"github.com/hattiebot/conduit/internal/tools"
	"github.com/hattiebot/conduit/internal/tools/confluence"
	"github.com/hattiebot/conduit/internal/tools/image"
	"github.com/hattiebot/conduit/internal/tools/postman"
	"github.com/hattiebot/conduit/internal/tools/song"
	"github.com/hattiebot/conduit/internal/tools/weather"
)

// Catalog lists every built-in tool configured from cfg. All tools share hc.
func Catalog(cfg config.Tools, hc *http.Client) []tools.Tool {
	ts := []tools.Tool{
		weather.New(cfg.Weather, hc),
		song.New(cfg.Song, hc),
	}
	ts = append(ts, confluence.Tools(cfg.Confluence, hc)...)
	ts = append(ts, image.New(cfg.Image, hc))
	ts = append(ts, postman.Tools(cfg.Postman, hc)...)
	return ts
}

// Registry builds the immutable registry for cfg. A duplicate tool name is a
// startup configuration error.
func Registry(cfg config.Tools, hc *http.Client) (*tools.Registry, error) {
	return tools.NewRegistry(Catalog(cfg, hc)...)
}

// HTTPClient returns the client shared by all tools.
func HTTPClient(cfg config.Tools) *http.Client {
	return &http.Client{Timeout: cfg.HTTPTimeout}
}
