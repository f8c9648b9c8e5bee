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

type searchInput struct {
	ElementType         string `json:"elementType"`
	Query               string `json:"query"`
	PublisherIsVerified *bool  `json:"publisherIsVerified,omitempty"`
	Limit               int    `json:"limit,omitempty"`
	NextCursor          string `json:"nextCursor,omitempty"`
}

type searchResult struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Method    string `json:"method"`
	Publisher struct {
		Type       string `json:"type"`
		Name       string `json:"name"`
		IsVerified bool   `json:"isVerified"`
	} `json:"publisher"`
	Links struct {
		Web struct {
			Href string `json:"href"`
		} `json:"web"`
	} `json:"links"`
}

type searchResponse struct {
	Data []searchResult `json:"data"`
	Meta struct {
		Q          string `json:"q"`
		Total      int    `json:"total"`
		NextCursor string `json:"nextCursor"`
	} `json:"meta"`
}

func (c *client) searchTool() tools.Tool {
	return tools.Tool{
		Def: core.ToolDefinition{
			Name:        "search_postman_network",
			Description: "Search the Postman API Network for requests based on a query.",
			InputSchema: core.Object(map[string]*core.Schema{
				"elementType":         core.Enum(`The type of Postman element to search for. At this time, this only accepts the "requests" value.`, "requests"),
				"query":               core.String("The search query to find relevant requests."),
				"publisherIsVerified": core.Bool("Filter the search results to only return entities from publishers verified by Postman."),
				"limit":               core.Integer("The max number of search results returned in the response. The maximum allowed value is 10.").Between(1, 10),
				"nextCursor":          core.String("The pagination cursor that points to the next record in the results set."),
			}, "elementType", "query"),
		},
		Handler: c.searchNetwork,
	}
}

func (c *client) searchNetwork(ctx context.Context, args map[string]any) (string, error) {
	in, err := tools.Decode[searchInput](args)
	if err != nil {
		return "", err
	}
	if err := c.requireKey(); err != nil {
		return "", err
	}
	q := url.Values{"q": {in.Query}}
	if in.PublisherIsVerified != nil {
		q.Set("publisherIsVerified", strconv.FormatBool(*in.PublisherIsVerified))
	}
	if in.Limit > 0 {
		q.Set("limit", strconv.Itoa(in.Limit))
	}
	if in.NextCursor != "" {
		q.Set("nextCursor", in.NextCursor)
	}
	var resp searchResponse
	if err := c.api.Get(ctx, "/search/"+url.PathEscape(in.ElementType), q, &resp); err != nil {
		return "", describe(err)
	}
	return formatSearch(in.Query, resp), nil
}

func formatSearch(query string, resp searchResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# API Network results for %q\n", query)
	fmt.Fprintf(&b, "Showing %d of %d\n", len(resp.Data), resp.Meta.Total)
	for _, r := range resp.Data {
		fmt.Fprintf(&b, "\n## %s\n", r.Name)
		fmt.Fprintf(&b, "%s %s\n", orDefault(r.Method, "GET"), r.URL)
		publisher := r.Publisher.Name
		if r.Publisher.IsVerified {
			publisher += " (verified)"
		}
		fmt.Fprintf(&b, "Publisher: %s\n", publisher)
		if r.Links.Web.Href != "" {
			fmt.Fprintf(&b, "View: %s\n", r.Links.Web.Href)
		}
	}
	if resp.Meta.NextCursor != "" {
		fmt.Fprintf(&b, "\nNext cursor: %s\n", resp.Meta.NextCursor)
	}
	b.WriteString("\nRaw results:\n")
	b.WriteString(tools.PrettyJSON(resp.Data))
	return b.String()
}
