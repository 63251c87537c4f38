// Package arxiv queries the arXiv export API for scientific papers.
package arxiv

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/internal/httpx"
	"github.com/hupe1980/campaignmesh/tool"
)

// DefaultBaseURL is the arXiv export API endpoint.
const DefaultBaseURL = "https://export.arxiv.org/api/query"

// DefaultMaxResults is the number of papers returned per query.
const DefaultMaxResults = 3

// ToolName is the registered name of the arXiv tool.
const ToolName = "ArxivQueryTool"

// Sort orders accepted by the tool.
const (
	SortRelevance = "relevance"
	SortRecent    = "recent"
)

// Paper is a condensed arXiv entry.
type Paper struct {
	Title     string   `json:"title"`
	Authors   []string `json:"authors"`
	Summary   string   `json:"summary"`
	Published string   `json:"published"`
	URL       string   `json:"url"`
}

type feed struct {
	Entries []struct {
		ID        string `xml:"id"`
		Title     string `xml:"title"`
		Summary   string `xml:"summary"`
		Published string `xml:"published"`
		Authors   []struct {
			Name string `xml:"name"`
		} `xml:"author"`
	} `xml:"entry"`
}

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL    string
	MaxResults int
	HTTP       *httpx.Client
}

// Client is an arXiv client.
type Client struct {
	baseURL    string
	maxResults int
	http       *httpx.Client
}

// NewClient creates a Client.
func NewClient(optFns ...func(o *ClientOptions)) *Client {
	opts := ClientOptions{BaseURL: DefaultBaseURL, MaxResults: DefaultMaxResults}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.HTTP == nil {
		opts.HTTP = httpx.New()
	}

	return &Client{baseURL: opts.BaseURL, maxResults: opts.MaxResults, http: opts.HTTP}
}

// Query searches arXiv. sortBy is relevance (default) or recent.
func (c *Client) Query(ctx context.Context, query, sortBy string) ([]Paper, error) {
	order := "relevance"
	switch sortBy {
	case "", SortRelevance:
	case SortRecent:
		order = "submittedDate"
	default:
		return nil, fmt.Errorf("invalid sort_by %q: must be %s or %s", sortBy, SortRelevance, SortRecent)
	}

	v := url.Values{
		"search_query": {"all:" + query},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(c.maxResults)},
		"sortBy":       {order},
		"sortOrder":    {"descending"},
	}

	body, err := c.http.Get(ctx, c.baseURL+"?"+v.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("arxiv query: %w", err)
	}

	var f feed
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode arxiv feed: %w", err)
	}

	papers := make([]Paper, 0, len(f.Entries))
	for _, e := range f.Entries {
		p := Paper{
			Title:     collapse(e.Title),
			Summary:   collapse(e.Summary),
			Published: e.Published,
			URL:       strings.TrimSpace(e.ID),
		}
		for _, a := range e.Authors {
			p.Authors = append(p.Authors, strings.TrimSpace(a.Name))
		}
		papers = append(papers, p)
	}

	return papers, nil
}

func collapse(s string) string { return strings.Join(strings.Fields(s), " ") }

type queryArgs struct {
	Query  string `json:"query" jsonschema:"description=Search terms passed to arXiv" validate:"required"`
	SortBy string `json:"sort_by,omitempty" jsonschema:"description=relevance (default) or recent,enum=relevance,enum=recent"`
}

// ArxivQueryTool searches arXiv for papers.
func ArxivQueryTool(c *Client) tool.Tool {
	return tool.NewTypedTool(ToolName,
		"Query arxiv.org for scientific papers. Returns title, authors, abstract, date and link.",
		func(tc *core.ToolContext, in queryArgs) (any, error) {
			return c.Query(tc.Context(), in.Query, in.SortBy)
		})
}
