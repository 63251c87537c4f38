// Package websearch queries DuckDuckGo: the instant answer API for quick
// facts and the HTML endpoint for full result lists.
package websearch

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hupe1980/campaignmesh/internal/httpx"
)

// Default endpoints.
const (
	DefaultInstantURL = "https://api.duckduckgo.com/"
	DefaultHTMLURL    = "https://html.duckduckgo.com/html/"
	DefaultRegion     = "wt-wt"
	DefaultMaxResults = 10
)

// Topic is a related topic of an instant answer.
type Topic struct {
	Text     string `json:"text"`
	FirstURL string `json:"url,omitempty"`
}

// InstantAnswer is the condensed instant answer response.
type InstantAnswer struct {
	Heading        string  `json:"heading,omitempty"`
	Abstract       string  `json:"abstract,omitempty"`
	AbstractSource string  `json:"abstract_source,omitempty"`
	AbstractURL    string  `json:"abstract_url,omitempty"`
	Answer         string  `json:"answer,omitempty"`
	Definition     string  `json:"definition,omitempty"`
	RelatedTopics  []Topic `json:"related_topics,omitempty"`
}

// Result is a single web search result.
type Result struct {
	Title string `json:"title"`
	Href  string `json:"href"`
	Body  string `json:"body"`
}

type instantResponse struct {
	Heading        string `json:"Heading"`
	AbstractText   string `json:"AbstractText"`
	AbstractSource string `json:"AbstractSource"`
	AbstractURL    string `json:"AbstractURL"`
	Answer         any    `json:"Answer"`
	Definition     string `json:"Definition"`
	RelatedTopics  []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
		Name     string `json:"Name"`
		Topics   []struct {
			Text     string `json:"Text"`
			FirstURL string `json:"FirstURL"`
		} `json:"Topics"`
	} `json:"RelatedTopics"`
}

// ClientOptions configures a Client.
type ClientOptions struct {
	InstantURL string
	HTMLURL    string
	HTTP       *httpx.Client
}

// Client is a DuckDuckGo client.
type Client struct {
	instantURL string
	htmlURL    string
	http       *httpx.Client
}

// NewClient creates a Client.
func NewClient(optFns ...func(o *ClientOptions)) *Client {
	opts := ClientOptions{InstantURL: DefaultInstantURL, HTMLURL: DefaultHTMLURL}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.HTTP == nil {
		opts.HTTP = httpx.New()
	}

	return &Client{instantURL: opts.InstantURL, htmlURL: opts.HTMLURL, http: opts.HTTP}
}

// Instant returns the instant answer for query.
func (c *Client) Instant(ctx context.Context, query string) (InstantAnswer, error) {
	v := url.Values{
		"q":             {query},
		"format":        {"json"},
		"no_html":       {"1"},
		"skip_disambig": {"1"},
	}

	var raw instantResponse
	if err := c.http.GetJSON(ctx, c.instantURL+"?"+v.Encode(), nil, &raw); err != nil {
		return InstantAnswer{}, fmt.Errorf("duckduckgo instant search: %w", err)
	}

	out := InstantAnswer{
		Heading:        raw.Heading,
		Abstract:       raw.AbstractText,
		AbstractSource: raw.AbstractSource,
		AbstractURL:    raw.AbstractURL,
		Definition:     raw.Definition,
	}

	// Answer is a string for most queries and an object for calculators.
	if s, ok := raw.Answer.(string); ok {
		out.Answer = s
	}

	for _, t := range raw.RelatedTopics {
		if t.Text != "" {
			out.RelatedTopics = append(out.RelatedTopics, Topic{Text: t.Text, FirstURL: t.FirstURL})
			continue
		}
		for _, sub := range t.Topics {
			out.RelatedTopics = append(out.RelatedTopics, Topic{Text: sub.Text, FirstURL: sub.FirstURL})
		}
	}

	return out, nil
}

// Search returns up to maxResults web results for query in region.
func (c *Client) Search(ctx context.Context, query, region string, maxResults int) ([]Result, error) {
	if region == "" {
		region = DefaultRegion
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	v := url.Values{"q": {query}, "kl": {region}}

	body, err := c.http.Get(ctx, c.htmlURL+"?"+v.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo search: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse duckduckgo results: %w", err)
	}

	results := make([]Result, 0, maxResults)

	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}

		link := s.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		if title == "" || href == "" {
			return true
		}

		results = append(results, Result{
			Title: title,
			Href:  resolveHref(href),
			Body:  strings.TrimSpace(s.Find(".result__snippet").First().Text()),
		})

		return len(results) < maxResults
	})

	return results, nil
}

// resolveHref unwraps DuckDuckGo redirect links (//duckduckgo.com/l/?uddg=...).
func resolveHref(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}
