// Package news searches NewsAPI (everything, top headlines, sources) and
// reads full article bodies from their URLs.
package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hupe1980/campaignmesh/internal/httpx"
)

// DefaultBaseURL is the NewsAPI v2 endpoint.
const DefaultBaseURL = "https://newsapi.org/v2"

// ErrNoAPIKey is returned when no NewsAPI key is configured.
var ErrNoAPIKey = errors.New("news api key is not configured")

// Source identifies the outlet of an article.
type Source struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Article is a single NewsAPI article.
type Article struct {
	Source      Source `json:"source"`
	Author      string `json:"author,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt,omitempty"`
	Content     string `json:"content,omitempty"`
}

// ArticlesResponse is returned by the everything and top-headlines endpoints.
type ArticlesResponse struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
}

// SourceInfo describes a news source.
type SourceInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Category    string `json:"category,omitempty"`
	Language    string `json:"language,omitempty"`
	Country     string `json:"country,omitempty"`
}

// SourcesResponse is returned by the sources endpoint.
type SourcesResponse struct {
	Status  string       `json:"status"`
	Sources []SourceInfo `json:"sources"`
}

// EverythingQuery holds the /everything parameters.
type EverythingQuery struct {
	Q              string
	QInTitle       string
	Sources        string
	Domains        string
	ExcludeDomains string
	From           string
	To             string
	Language       string
	SortBy         string
	PageSize       int
	Page           int
}

// HeadlinesQuery holds the /top-headlines parameters.
type HeadlinesQuery struct {
	Q        string
	Sources  string
	Category string
	Language string
	Country  string
	PageSize int
	Page     int
}

// SourcesQuery holds the /top-headlines/sources parameters.
type SourcesQuery struct {
	Category string
	Language string
	Country  string
}

// apiError is the error body NewsAPI returns with status "error".
type apiError struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL string
	APIKey  string
	HTTP    *httpx.Client
}

// Client is a NewsAPI client.
type Client struct {
	baseURL string
	apiKey  string
	http    *httpx.Client
}

// NewClient creates a Client.
func NewClient(optFns ...func(o *ClientOptions)) *Client {
	opts := ClientOptions{BaseURL: DefaultBaseURL}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.HTTP == nil {
		opts.HTTP = httpx.New()
	}

	return &Client{baseURL: opts.BaseURL, apiKey: opts.APIKey, http: opts.HTTP}
}

// Everything searches all articles.
func (c *Client) Everything(ctx context.Context, q EverythingQuery) (ArticlesResponse, error) {
	v := url.Values{}
	set(v, "q", q.Q)
	set(v, "qInTitle", q.QInTitle)
	set(v, "sources", q.Sources)
	set(v, "domains", q.Domains)
	set(v, "excludeDomains", q.ExcludeDomains)
	set(v, "from", q.From)
	set(v, "to", q.To)
	set(v, "language", q.Language)
	set(v, "sortBy", q.SortBy)
	setInt(v, "pageSize", q.PageSize)
	setInt(v, "page", q.Page)

	var out ArticlesResponse
	if err := c.get(ctx, "/everything", v, &out); err != nil {
		return ArticlesResponse{}, fmt.Errorf("news everything: %w", err)
	}
	return out, nil
}

// TopHeadlines returns breaking headlines.
func (c *Client) TopHeadlines(ctx context.Context, q HeadlinesQuery) (ArticlesResponse, error) {
	if q.Sources != "" && (q.Country != "" || q.Category != "") {
		return ArticlesResponse{}, errors.New("news top headlines: sources cannot be combined with country or category")
	}

	v := url.Values{}
	set(v, "q", q.Q)
	set(v, "sources", q.Sources)
	set(v, "category", q.Category)
	set(v, "language", q.Language)
	set(v, "country", q.Country)
	setInt(v, "pageSize", q.PageSize)
	setInt(v, "page", q.Page)

	var out ArticlesResponse
	if err := c.get(ctx, "/top-headlines", v, &out); err != nil {
		return ArticlesResponse{}, fmt.Errorf("news top headlines: %w", err)
	}
	return out, nil
}

// Sources lists the available news sources.
func (c *Client) Sources(ctx context.Context, q SourcesQuery) (SourcesResponse, error) {
	v := url.Values{}
	set(v, "category", q.Category)
	set(v, "language", q.Language)
	set(v, "country", q.Country)

	var out SourcesResponse
	if err := c.get(ctx, "/top-headlines/sources", v, &out); err != nil {
		return SourcesResponse{}, fmt.Errorf("news sources: %w", err)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, v url.Values, out any) error {
	if c.apiKey == "" {
		return ErrNoAPIKey
	}

	u := c.baseURL + path
	if len(v) > 0 {
		u += "?" + v.Encode()
	}

	err := c.http.GetJSON(ctx, u, http.Header{"X-Api-Key": {c.apiKey}}, out)

	var se *httpx.StatusError
	if errors.As(err, &se) {
		var ae apiError
		if jerr := json.Unmarshal([]byte(se.Body), &ae); jerr == nil && ae.Message != "" {
			return fmt.Errorf("%s (%s): %w", ae.Message, ae.Code, err)
		}
	}

	return err
}

func set(v url.Values, k, s string) {
	if s != "" {
		v.Set(k, s)
	}
}

func setInt(v url.Values, k string, n int) {
	if n > 0 {
		v.Set(k, strconv.Itoa(n))
	}
}
