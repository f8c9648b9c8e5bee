// Package image implements generate_image against an OpenAI-compatible
// images endpoint.
package image

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hattiebot/conduit/internal/config"
	"github.com/hattiebot/conduit/internal/core"
	"github.com/hattiebot/conduit/internal/tools"
)

const Name = "generate_image"

type input struct {
	Prompt string `json:"prompt"`
	Size   string `json:"size,omitempty"`
	N      int    `json:"n,omitempty"`
}

type generationRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
	N      int    `json:"n"`
}

type generationResponse struct {
	Data []struct {
		URL           string `json:"url"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

// New returns the generate_image tool.
func New(cfg config.Image, hc *http.Client) tools.Tool {
	api := &tools.APIClient{
		Service: "images",
		BaseURL: cfg.BaseURL,
		Header:  http.Header{"Authorization": {"Bearer " + cfg.APIKey}},
		HTTP:    hc,
	}
	return tools.Tool{
		Def: core.ToolDefinition{
			Name:        Name,
			Description: "Generate an image from a text prompt. Returns links to the generated images.",
			InputSchema: core.Object(map[string]*core.Schema{
				"prompt": core.String("A detailed description of the image to generate."),
				"size":   core.Enum("Image dimensions (optional).", "1024x1024", "1792x1024", "1024x1792"),
				"n":      core.Integer("Number of images to generate (optional, 1-4).").Between(1, 4),
			}, "prompt"),
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			in, err := tools.Decode[input](args)
			if err != nil {
				return "", err
			}
			if err := tools.RequireKey("tools.image.api_key", cfg.APIKey); err != nil {
				return "", err
			}
			req := generationRequest{Model: cfg.Model, Prompt: in.Prompt, Size: in.Size, N: in.N}
			if req.Size == "" {
				req.Size = cfg.Size
			}
			if req.N == 0 {
				req.N = 1
			}
			var resp generationResponse
			if err := api.Post(ctx, "/v1/images/generations", req, &resp); err != nil {
				return "", err
			}
			if len(resp.Data) == 0 {
				return "The image service returned no images.", nil
			}
			var b strings.Builder
			fmt.Fprintf(&b, "Generated %d image(s) for %q:", len(resp.Data), in.Prompt)
			for i, d := range resp.Data {
				fmt.Fprintf(&b, "\n%d. %s", i+1, d.URL)
				if d.RevisedPrompt != "" {
					fmt.Fprintf(&b, "\n   Revised prompt: %s", d.RevisedPrompt)
				}
			}
			return b.String(), nil
		},
	}
}
