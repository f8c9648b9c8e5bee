package postman

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/hattiebot/conduit/internal/core"
	"github.com/hattiebot/conduit/internal/tools"
)

type networkInput struct {
	Since          string `json:"since,omitempty"`
	Until          string `json:"until,omitempty"`
	AddedBy        *int   `json:"addedBy,omitempty"`
	Name           string `json:"name,omitempty"`
	Summary        string `json:"summary,omitempty"`
	Description    string `json:"description,omitempty"`
	Sort           string `json:"sort,omitempty"`
	Direction      string `json:"direction,omitempty"`
	CreatedBy      *int   `json:"createdBy,omitempty"`
	Offset         *int   `json:"offset,omitempty"`
	Limit          *int   `json:"limit,omitempty"`
	ParentFolderID *int   `json:"parentFolderId,omitempty"`
	Type           string `json:"type,omitempty"`
}

// query renders the set filters in a stable order.
func (in networkInput) query() url.Values {
	q := url.Values{}
	str := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	num := func(k string, v *int) {
		if v != nil {
			q.Set(k, strconv.Itoa(*v))
		}
	}
	str("since", in.Since)
	str("until", in.Until)
	num("addedBy", in.AddedBy)
	str("name", in.Name)
	str("summary", in.Summary)
	str("description", in.Description)
	str("sort", in.Sort)
	str("direction", in.Direction)
	num("createdBy", in.CreatedBy)
	num("offset", in.Offset)
	num("limit", in.Limit)
	num("parentFolderId", in.ParentFolderID)
	str("type", in.Type)
	return q
}

type networkElement struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Name           string `json:"name"`
	Summary        string `json:"summary"`
	Description    string `json:"description"`
	ParentFolderID int    `json:"parentFolderId"`
	Href           string `json:"href"`
}

type networkFolder struct {
	ID             int    `json:"id"`
	ParentFolderID int    `json:"parentFolderId"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Type           string `json:"type"`
}

type networkResponse struct {
	Elements []networkElement `json:"elements"`
	Folders  []networkFolder  `json:"folders"`
	Meta     struct {
		Limit      int `json:"limit"`
		Offset     int `json:"offset"`
		TotalCount int `json:"totalCount"`
	} `json:"meta"`
}

func (c *client) privateNetworkTool() tools.Tool {
	return tools.Tool{
		Def: core.ToolDefinition{
			Name:        "get_all_elements_and_folders",
			Description: "Fetch all elements and folders from the Private API Network.",
			InputSchema: core.Object(map[string]*core.Schema{
				"since":          core.String("Return only results created since the given time, in ISO 8601 format."),
				"until":          core.String("Return only results created until this given time, in ISO 8601 format."),
				"addedBy":        core.Integer("Return only elements published by the given user ID."),
				"name":           core.String("Return only elements whose name includes the given value."),
				"summary":        core.String("Return only elements whose summary includes the given value."),
				"description":    core.String("Return only elements whose description includes the given value."),
				"sort":           core.Enum("Sort the results by the given value.", "createdAt", "updatedAt"),
				"direction":      core.Enum("Sort in ascending or descending order.", "asc", "desc"),
				"createdBy":      core.Integer("Return only the elements created by the given user ID."),
				"offset":         core.Integer("The zero-based offset of the first item to return."),
				"limit":          core.Integer("The maximum number of elements to return."),
				"parentFolderId": core.Integer("Return the folders and elements in a specific folder."),
				"type":           core.Enum("Filter by the element type.", "folder", "workspace", "collection", "api"),
			}),
		},
		Handler: c.privateNetwork,
	}
}

func (c *client) privateNetwork(ctx context.Context, args map[string]any) (string, error) {
	in, err := tools.Decode[networkInput](args)
	if err != nil {
		return "", err
	}
	if err := c.requireKey(); err != nil {
		return "", err
	}
	var resp networkResponse
	if err := c.api.Get(ctx, "/network/private", in.query(), &resp); err != nil {
		return "", describe(err)
	}
	return c.formatNetwork(resp), nil
}

func (c *client) formatNetwork(resp networkResponse) string {
	folders := make([]string, 0, len(resp.Folders))
	for _, f := range resp.Folders {
		var b strings.Builder
		fmt.Fprintf(&b, "## 📁 %s\n**Type**: %s\n**ID**: %d\n**Parent Folder**: %d\n", f.Name, f.Type, f.ID, f.ParentFolderID)
		if f.Description != "" {
			fmt.Fprintf(&b, "**Description**: %s\n", f.Description)
		}
		folders = append(folders, b.String())
	}

	elements := make([]string, 0, len(resp.Elements))
	for _, e := range resp.Elements {
		var b strings.Builder
		fmt.Fprintf(&b, "## %s\n**Type**: %s\n**ID**: %s\n**Parent Folder**: %d\n", e.Name, e.Type, e.ID, e.ParentFolderID)
		if e.Description != "" {
			fmt.Fprintf(&b, "**Description**: %s\n", e.Description)
		}
		if e.Summary != "" {
			fmt.Fprintf(&b, "**Summary**: %s\n", e.Summary)
		}
		fmt.Fprintf(&b, "🔗 [View in Postman](%s)\n", c.viewURL(e.Type, e.ID))
		elements = append(elements, b.String())
	}

	return fmt.Sprintf("# Summary\nTotal Elements: %d\n# Folders\n%s\n# Elements\n%s",
		resp.Meta.TotalCount,
		strings.Join(folders, "\n---\n"),
		strings.Join(elements, "\n---\n"))
}
