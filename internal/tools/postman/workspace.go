package postman

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/hattiebot/conduit/internal/core"
	"github.com/hattiebot/conduit/internal/tools"
)

type workspaceInput struct {
	WorkspaceID string `json:"workspaceId"`
	Name        string `json:"name,omitempty"`
}

type workspaceCollections struct {
	Collections []struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Owner     string `json:"owner"`
		UpdatedAt string `json:"updatedAt"`
		CreatedAt string `json:"createdAt"`
		UID       string `json:"uid"`
		IsPublic  bool   `json:"isPublic"`
	} `json:"collections"`
}

func (c *client) workspaceTool() tools.Tool {
	return tools.Tool{
		Def: core.ToolDefinition{
			Name:        "get_workspace_collections",
			Description: "Get all collections that exist inside a given postman workspace.",
			InputSchema: core.Object(map[string]*core.Schema{
				"workspaceId": core.String("The mandatory ID / UID of the workspace to retrieve collections from."),
				"name":        core.String("Return only collections whose name includes the given value."),
			}, "workspaceId"),
		},
		Handler: c.workspaceCollections,
	}
}

func (c *client) workspaceCollections(ctx context.Context, args map[string]any) (string, error) {
	in, err := tools.Decode[workspaceInput](args)
	if err != nil {
		return "", err
	}
	if err := c.requireKey(); err != nil {
		return "", err
	}
	q := url.Values{"workspace": {in.WorkspaceID}}
	if in.Name != "" {
		q.Set("name", in.Name)
	}
	var resp workspaceCollections
	if err := c.api.Get(ctx, "/collections", q, &resp); err != nil {
		return "", describe(err)
	}

	sections := make([]string, 0, len(resp.Collections))
	for _, col := range resp.Collections {
		sections = append(sections, fmt.Sprintf("# Collection: %s\n\n## Collection Information\nCreated: %s\nUpdated: %s\nID: %s",
			col.Name, col.CreatedAt, col.UpdatedAt, col.UID))
	}
	text := strings.Join(sections, "\n\n")
	if text == "" {
		text = "No collections found in workspace " + in.WorkspaceID
	}
	return text + "\n\nFull List of Workspace Collections Spec:\n" + tools.PrettyJSON(resp), nil
}
