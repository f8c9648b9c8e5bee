// Package confluence implements search_confluence and get_confluence_page
// against the Confluence Cloud REST API.
package confluence

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/hattiebot/conduit/internal/config"
	"github.com/hattiebot/conduit/internal/core"
	"github.com/hattiebot/conduit/internal/tools"
)

const (
	SearchName = "search_confluence"
	PageName   = "get_confluence_page"
)

type searchInput struct {
	Query string `json:"query"`
	Space string `json:"space,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

type pageInput struct {
	PageID string `json:"pageId"`
}

type content struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Title  string `json:"title"`
	Space  *struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	} `json:"space"`
	Version *struct {
		Number int    `json:"number"`
		When   string `json:"when"`
		By     *struct {
			DisplayName string `json:"displayName"`
		} `json:"by"`
	} `json:"version"`
	Body *struct {
		Storage *struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
	Links struct {
		WebUI string `json:"webui"`
	} `json:"_links"`
}

type searchResponse struct {
	Results []content `json:"results"`
	Size    int       `json:"size"`
}

type client struct {
	cfg config.Confluence
	api *tools.APIClient
}

// Tools returns the Confluence tools sharing one authenticated client.
func Tools(cfg config.Confluence, hc *http.Client) []tools.Tool {
	token := base64.StdEncoding.EncodeToString([]byte(cfg.Email + ":" + cfg.APIToken))
	c := &client{
		cfg: cfg,
		api: &tools.APIClient{
			Service: "confluence",
			BaseURL: cfg.BaseURL,
			Header:  http.Header{"Authorization": {"Basic " + token}},
			HTTP:    hc,
		},
	}
	return []tools.Tool{
		{
			Def: core.ToolDefinition{
				Name:        SearchName,
				Description: "Search Confluence pages by text. Returns titles, page IDs and links.",
				InputSchema: core.Object(map[string]*core.Schema{
					"query": core.String("Text to search for in page titles and bodies."),
					"space": core.String("Restrict the search to this space key (optional)."),
					"limit": core.Integer("Maximum number of results (optional, 1-25).").Between(1, 25),
				}, "query"),
			},
			Handler: c.search,
		},
		{
			Def: core.ToolDefinition{
				Name:        PageName,
				Description: "Retrieve the content of a Confluence page by ID.",
				InputSchema: core.Object(map[string]*core.Schema{
					"pageId": core.String("The ID of the page to retrieve."),
				}, "pageId"),
			},
			Handler: c.page,
		},
	}
}

func (c *client) checkCredentials() error {
	if err := tools.RequireKey("tools.confluence.base_url", c.cfg.BaseURL); err != nil {
		return err
	}
	if err := tools.RequireKey("tools.confluence.email", c.cfg.Email); err != nil {
		return err
	}
	return tools.RequireKey("tools.confluence.api_token", c.cfg.APIToken)
}

func (c *client) search(ctx context.Context, args map[string]any) (string, error) {
	in, err := tools.Decode[searchInput](args)
	if err != nil {
		return "", err
	}
	if err := c.checkCredentials(); err != nil {
		return "", err
	}
	limit := in.Limit
	if limit == 0 {
		limit = 10
	}
	q := url.Values{
		"cql":   {buildCQL(in.Query, in.Space)},
		"limit": {strconv.Itoa(limit)},
	}
	var resp searchResponse
	if err := c.api.Get(ctx, "/wiki/rest/api/content/search", q, &resp); err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return fmt.Sprintf("No Confluence pages match %q.", in.Query), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Confluence results for %q (%d)\n", in.Query, len(resp.Results))
	for _, r := range resp.Results {
		fmt.Fprintf(&b, "\n- %s (ID: %s", r.Title, r.ID)
		if r.Space != nil && r.Space.Key != "" {
			fmt.Fprintf(&b, ", space: %s", r.Space.Key)
		}
		b.WriteString(")")
		if link := c.link(r); link != "" {
			fmt.Fprintf(&b, "\n  %s", link)
		}
	}
	return b.String(), nil
}

func (c *client) page(ctx context.Context, args map[string]any) (string, error) {
	in, err := tools.Decode[pageInput](args)
	if err != nil {
		return "", err
	}
	if err := c.checkCredentials(); err != nil {
		return "", err
	}
	q := url.Values{"expand": {"body.storage,version,space"}}
	var p content
	if err := c.api.Get(ctx, "/wiki/rest/api/content/"+url.PathEscape(in.PageID), q, &p); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", p.Title)
	fmt.Fprintf(&b, "ID: %s\n", p.ID)
	if p.Space != nil {
		fmt.Fprintf(&b, "Space: %s (%s)\n", p.Space.Name, p.Space.Key)
	}
	if p.Version != nil {
		fmt.Fprintf(&b, "Version: %d", p.Version.Number)
		if p.Version.By != nil && p.Version.By.DisplayName != "" {
			fmt.Fprintf(&b, " by %s", p.Version.By.DisplayName)
		}
		if p.Version.When != "" {
			fmt.Fprintf(&b, " at %s", p.Version.When)
		}
		b.WriteString("\n")
	}
	if link := c.link(p); link != "" {
		fmt.Fprintf(&b, "Link: %s\n", link)
	}
	body := ""
	if p.Body != nil && p.Body.Storage != nil {
		body = StripMarkup(p.Body.Storage.Value)
	}
	if body == "" {
		body = "(empty page)"
	}
	b.WriteString("\n## Content\n")
	b.WriteString(body)
	return b.String(), nil
}

func (c *client) link(r content) string {
	if r.Links.WebUI == "" {
		return ""
	}
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/wiki" + r.Links.WebUI
}

func buildCQL(query, space string) string {
	escaped := strings.ReplaceAll(query, `"`, `\"`)
	cql := fmt.Sprintf(`type = page AND text ~ "%s"`, escaped)
	if space != "" {
		cql += fmt.Sprintf(` AND space = "%s"`, strings.ReplaceAll(space, `"`, `\"`))
	}
	return cql
}

var (
	blockTags = regexp.MustCompile(`(?i)</?(p|div|br|li|tr|h[1-6]|ul|ol|table)[^>]*>`)
	anyTag    = regexp.MustCompile(`<[^>]+>`)
	blankRuns = regexp.MustCompile(`\n{3,}`)
)

// StripMarkup reduces Confluence storage-format XHTML to plain text.
func StripMarkup(s string) string {
	s = blockTags.ReplaceAllString(s, "\n")
	s = anyTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(blankRuns.ReplaceAllString(s, "\n\n"))
}
