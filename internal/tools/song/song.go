// Package song implements generate_song against a Suno-compatible generation API.
package song

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hattiebot/conduit/internal/config"
	"github.com/hattiebot/conduit/internal/core"
	"github.com/hattiebot/conduit/internal/tools"
)

const Name = "generate_song"

type input struct {
	Prompt       string `json:"prompt"`
	Tags         string `json:"tags,omitempty"`
	Title        string `json:"title,omitempty"`
	Instrumental bool   `json:"make_instrumental,omitempty"`
}

type generateRequest struct {
	Prompt           string `json:"prompt"`
	Tags             string `json:"tags,omitempty"`
	Title            string `json:"title,omitempty"`
	MakeInstrumental bool   `json:"make_instrumental"`
	WaitAudio        bool   `json:"wait_audio"`
}

type clip struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	AudioURL string `json:"audio_url"`
	ImageURL string `json:"image_url"`
	Tags     string `json:"tags"`
	Lyric    string `json:"lyric"`
}

// New returns the generate_song tool. A request with tags or a title goes to
// the custom endpoint, where prompt is treated as lyrics.
func New(cfg config.Song, hc *http.Client) tools.Tool {
	api := &tools.APIClient{
		Service: "song",
		BaseURL: cfg.BaseURL,
		Header:  http.Header{"Authorization": {"Bearer " + cfg.APIKey}},
		HTTP:    hc,
	}
	return tools.Tool{
		Def: core.ToolDefinition{
			Name:        Name,
			Description: "Generate a song from a text description. Returns titles and audio links for the generated clips.",
			InputSchema: core.Object(map[string]*core.Schema{
				"prompt":            core.String("Description of the song, or its lyrics when tags or title are given."),
				"tags":              core.String("Comma-separated musical style tags, e.g. \"pop, upbeat\" (optional)."),
				"title":             core.String("Title of the song (optional)."),
				"make_instrumental": core.Bool("Generate without vocals (optional)."),
			}, "prompt"),
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			in, err := tools.Decode[input](args)
			if err != nil {
				return "", err
			}
			if err := tools.RequireKey("tools.song.api_key", cfg.APIKey); err != nil {
				return "", err
			}
			path := "/api/generate"
			if in.Tags != "" || in.Title != "" {
				path = "/api/custom_generate"
			}
			req := generateRequest{
				Prompt:           in.Prompt,
				Tags:             in.Tags,
				Title:            in.Title,
				MakeInstrumental: in.Instrumental,
				WaitAudio:        true,
			}
			var clips []clip
			if err := api.Post(ctx, path, req, &clips); err != nil {
				return "", err
			}
			return format(clips), nil
		},
	}
}

func format(clips []clip) string {
	if len(clips) == 0 {
		return "The song service returned no clips."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Generated %d clip(s):", len(clips))
	for _, c := range clips {
		title := c.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&b, "\n\n## %s\nID: %s\nStatus: %s", title, c.ID, c.Status)
		if c.Tags != "" {
			fmt.Fprintf(&b, "\nTags: %s", c.Tags)
		}
		if c.AudioURL != "" {
			fmt.Fprintf(&b, "\nAudio: %s", c.AudioURL)
		}
		if c.ImageURL != "" {
			fmt.Fprintf(&b, "\nCover: %s", c.ImageURL)
		}
	}
	return b.String()
}
