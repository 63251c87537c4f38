// Package wikipedia reads and searches Wikipedia through the MediaWiki API.
package wikipedia

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/internal/httpx"
	"github.com/hupe1980/campaignmesh/tool"
)

// DefaultEndpoint is the MediaWiki API endpoint; %s is the language code.
const DefaultEndpoint = "https://%s.wikipedia.org/w/api.php"

// Defaults.
const (
	DefaultLang     = "en"
	DefaultMaxChars = 20000
)

// Tool names.
const (
	QueryToolName  = "WikipediaQueryTool"
	SearchToolName = "WikipediaSearchTool"
)

var (
	// ErrInvalidLang is returned for malformed language codes.
	ErrInvalidLang = errors.New("invalid wikipedia language code")

	langRe = regexp.MustCompile(`^[a-z]{2,3}(-[a-z]{2,8})?$`)
)

// Page is a loaded article.
type Page struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type extractResponse struct {
	Query struct {
		Pages map[string]struct {
			Title   string `json:"title"`
			Extract string `json:"extract"`
			Missing any    `json:"missing,omitempty"`
		} `json:"pages"`
	} `json:"query"`
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

// ClientOptions configures a Client.
type ClientOptions struct {
	Endpoint string // format string with one %s for the language
	MaxChars int
	HTTP     *httpx.Client
}

// Client is a Wikipedia client.
type Client struct {
	endpoint string
	maxChars int
	http     *httpx.Client
}

// NewClient creates a Client.
func NewClient(optFns ...func(o *ClientOptions)) *Client {
	opts := ClientOptions{Endpoint: DefaultEndpoint, MaxChars: DefaultMaxChars}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.HTTP == nil {
		opts.HTTP = httpx.New()
	}

	return &Client{endpoint: opts.Endpoint, maxChars: opts.MaxChars, http: opts.HTTP}
}

// Load returns the plain text of the page titled title.
func (c *Client) Load(ctx context.Context, title, lang string) (Page, error) {
	api, lang, err := c.api(lang)
	if err != nil {
		return Page{}, err
	}

	v := url.Values{
		"action":      {"query"},
		"format":      {"json"},
		"prop":        {"extracts"},
		"explaintext": {"1"},
		"redirects":   {"1"},
		"titles":      {title},
	}

	var resp extractResponse
	if err := c.http.GetJSON(ctx, api+"?"+v.Encode(), nil, &resp); err != nil {
		return Page{}, fmt.Errorf("wikipedia page %q: %w", title, err)
	}

	for _, p := range resp.Query.Pages {
		if p.Missing != nil || strings.TrimSpace(p.Extract) == "" {
			continue
		}

		content := p.Extract
		if c.maxChars > 0 && len(content) > c.maxChars {
			content = content[:c.maxChars] + "\n\n[Content truncated]"
		}

		return Page{
			Title:   p.Title,
			URL:     fmt.Sprintf("https://%s.wikipedia.org/wiki/%s", lang, url.PathEscape(strings.ReplaceAll(p.Title, " ", "_"))),
			Content: content,
		}, nil
	}

	return Page{}, fmt.Errorf("wikipedia page %q (%s): %w", title, lang, core.ErrNotFound)
}

// Search returns the titles of pages matching query.
func (c *Client) Search(ctx context.Context, query, lang string, limit int) ([]string, error) {
	api, _, err := c.api(lang)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	v := url.Values{
		"action":   {"query"},
		"format":   {"json"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {fmt.Sprint(limit)},
	}

	var resp searchResponse
	if err := c.http.GetJSON(ctx, api+"?"+v.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("wikipedia search %q: %w", query, err)
	}

	titles := make([]string, 0, len(resp.Query.Search))
	for _, s := range resp.Query.Search {
		titles = append(titles, s.Title)
	}

	return titles, nil
}

// SearchAndLoad searches query and loads the best match.
func (c *Client) SearchAndLoad(ctx context.Context, query, lang string) (Page, error) {
	titles, err := c.Search(ctx, query, lang, 1)
	if err != nil {
		return Page{}, err
	}
	if len(titles) == 0 {
		return Page{}, fmt.Errorf("no wikipedia search results for %q: %w", query, core.ErrNotFound)
	}

	return c.Load(ctx, titles[0], lang)
}

func (c *Client) api(lang string) (string, string, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		lang = DefaultLang
	}
	if !langRe.MatchString(lang) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidLang, lang)
	}
	return fmt.Sprintf(c.endpoint, lang), lang, nil
}

type queryArgs struct {
	Page string `json:"page" jsonschema:"description=Title of the page to read" validate:"required"`
	Lang string `json:"lang,omitempty" jsonschema:"description=Wikipedia language code (default: en)"`
}

type searchArgs struct {
	Query string `json:"query" jsonschema:"description=Text to search for" validate:"required"`
	Lang  string `json:"lang,omitempty" jsonschema:"description=Wikipedia language code (default: en)"`
}

// Tools returns the Wikipedia tools.
func Tools(c *Client) []tool.Tool {
	return []tool.Tool{WikipediaQueryTool(c), WikipediaSearchTool(c)}
}

// WikipediaQueryTool reads a page by title.
func WikipediaQueryTool(c *Client) tool.Tool {
	return tool.NewTypedTool(QueryToolName,
		"Retrieve a Wikipedia page by its exact title.",
		func(tc *core.ToolContext, in queryArgs) (any, error) {
			return c.Load(tc.Context(), in.Page, in.Lang)
		})
}

// WikipediaSearchTool searches Wikipedia and reads the best match. Use it
// when the exact title is unknown.
func WikipediaSearchTool(c *Client) tool.Tool {
	return tool.NewTypedTool(SearchToolName,
		"Search Wikipedia for a page related to the query and return its content. Use when the exact page title is unknown.",
		func(tc *core.ToolContext, in searchArgs) (any, error) {
			return c.SearchAndLoad(tc.Context(), in.Query, in.Lang)
		})
}
