package postman

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/hattiebot/conduit/internal/core"
	"github.com/hattiebot/conduit/internal/tools"
)

type collectionInput struct {
	CollectionID string `json:"collectionId"`
	AccessKey    string `json:"access_key,omitempty"`
	Model        string `json:"model,omitempty"`
}

type collectionInfo struct {
	PostmanID     string `json:"_postman_id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	UpdatedAt     string `json:"updatedAt"`
	CreatedAt     string `json:"createdAt"`
	LastUpdatedBy string `json:"lastUpdatedBy"`
	UID           string `json:"uid"`
}

type collectionItem struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Item        []collectionItem `json:"item"`
	Request     *struct {
		Method string `json:"method"`
		URL    *struct {
			Raw string `json:"raw"`
		} `json:"url"`
	} `json:"request"`
}

type collectionResponse struct {
	Collection struct {
		Info collectionInfo   `json:"info"`
		Item []collectionItem `json:"item"`
	} `json:"collection"`
}

func (c *client) collectionTool() tools.Tool {
	return tools.Tool{
		Def: core.ToolDefinition{
			Name:        "get_collection",
			Description: "Get information about a Postman collection.",
			InputSchema: core.Object(map[string]*core.Schema{
				"collectionId": core.String("The ID of the collection to retrieve."),
				"access_key":   core.String("A collection's read-only access key (optional)."),
				"model":        core.Enum("Return a minimal representation of the collection (optional).", "minimal"),
			}, "collectionId"),
		},
		Handler: c.getCollection,
	}
}

func (c *client) getCollection(ctx context.Context, args map[string]any) (string, error) {
	in, err := tools.Decode[collectionInput](args)
	if err != nil {
		return "", err
	}
	if err := c.requireKey(); err != nil {
		return "", err
	}
	q := url.Values{}
	if in.AccessKey != "" {
		q.Set("access_key", in.AccessKey)
	}
	if in.Model != "" {
		q.Set("model", in.Model)
	}
	var resp collectionResponse
	if err := c.api.Get(ctx, "/collections/"+url.PathEscape(in.CollectionID), q, &resp); err != nil {
		return "", describe(err)
	}
	return c.formatCollection(resp), nil
}

func (c *client) formatCollection(resp collectionResponse) string {
	info := resp.Collection.Info
	items := resp.Collection.Item

	var b strings.Builder
	fmt.Fprintf(&b, "# Collection: %s\n\n", info.Name)
	b.WriteString("## Collection Information\n")
	fmt.Fprintf(&b, "Created: %s\n", info.CreatedAt)
	fmt.Fprintf(&b, "Updated: %s\n", info.UpdatedAt)
	fmt.Fprintf(&b, "Last Updated By: %s\n", info.LastUpdatedBy)
	fmt.Fprintf(&b, "ID: %s\n", info.UID)
	fmt.Fprintf(&b, "Postman View URL: %s\n\n", c.viewURL("collection", info.PostmanID))
	fmt.Fprintf(&b, "## Description\n%s\n\n", orDefault(info.Description, "No description provided"))

	b.WriteString("## Top-Level Folders\n")
	if len(items) == 0 {
		b.WriteString("No folders in collection\n\n## Folders and Requests\nNo items in collection")
		return b.String()
	}
	b.WriteString(formatFolders(items))
	b.WriteString("\n\n## Folders and Requests\n")
	b.WriteString(formatItems(items))
	return b.String()
}

func formatFolders(items []collectionItem) string {
	var lines []string
	for _, it := range items {
		if it.Item == nil {
			continue
		}
		line := "- " + it.Name
		if it.Description != "" {
			line += "\n  Description: " + it.Description
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "No top-level folders"
	}
	return strings.Join(lines, "\n")
}

// formatItems walks folders depth-first, listing each request's URL.
func formatItems(items []collectionItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		var b strings.Builder
		b.WriteString("\n " + it.Name)
		if it.Description != "" {
			b.WriteString("\nDescription: " + it.Description)
		}
		if it.Request != nil {
			b.WriteString("\nRequest:")
			if it.Request.Method != "" {
				b.WriteString("\n  - Method: " + it.Request.Method)
			}
			if it.Request.URL != nil && it.Request.URL.Raw != "" {
				b.WriteString("\n  - URL: " + it.Request.URL.Raw)
			}
		}
		if len(it.Item) > 0 {
			b.WriteString(formatItems(it.Item))
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n---")
}
