package news

import (
	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/tool"
)

// Tool names.
const (
	EverythingToolName = "NewsEverythingSearchTool"
	HeadlinesToolName  = "NewsHeadlinesSearchTool"
	SourcesToolName    = "NewsSourcesSearchTool"
	ReaderToolName     = "NewsArticlesReaderTool"
)

// Defaults applied when the model omits paging.
const (
	DefaultPage     = 1
	DefaultPageSize = 5
)

type everythingArgs struct {
	Q              string `json:"q,omitempty" jsonschema:"description=Keywords or phrase to search for in title and body"`
	QInTitle       string `json:"qintitle,omitempty" jsonschema:"description=Keywords or phrase to search for in the title only"`
	Sources        string `json:"sources,omitempty" jsonschema:"description=Comma separated source identifiers"`
	Domains        string `json:"domains,omitempty" jsonschema:"description=Comma separated domains to restrict the search to"`
	ExcludeDomains string `json:"exclude_domains,omitempty" jsonschema:"description=Comma separated domains to exclude"`
	FromParam      string `json:"from_param,omitempty" jsonschema:"description=Oldest article date (YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS)"`
	To             string `json:"to,omitempty" jsonschema:"description=Newest article date (YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS)"`
	Language       string `json:"language,omitempty" jsonschema:"description=2-letter ISO-639-1 language code"`
	SortBy         string `json:"sort_by,omitempty" jsonschema:"description=Sort order,enum=relevancy,enum=popularity,enum=publishedAt"`
	PageSize       int    `json:"page_size,omitempty" jsonschema:"description=Results per page (default 5; max 100)" validate:"omitempty,min=1,max=100"`
	Page           int    `json:"page,omitempty" jsonschema:"description=Page number (default 1)" validate:"omitempty,min=1"`
}

type headlinesArgs struct {
	Q        string `json:"q,omitempty" jsonschema:"description=Keywords or phrase to search for"`
	Sources  string `json:"sources,omitempty" jsonschema:"description=Comma separated source identifiers; cannot be mixed with country or category"`
	Category string `json:"category,omitempty" jsonschema:"description=Category such as business or technology"`
	Language string `json:"language,omitempty" jsonschema:"description=2-letter ISO-639-1 language code"`
	Country  string `json:"country,omitempty" jsonschema:"description=2-letter ISO 3166-1 country code"`
	PageSize int    `json:"page_size,omitempty" jsonschema:"description=Results per page (max 100)" validate:"omitempty,min=1,max=100"`
	Page     int    `json:"page,omitempty" jsonschema:"description=Page number" validate:"omitempty,min=1"`
}

type sourcesArgs struct {
	Category string `json:"category,omitempty" jsonschema:"description=Only sources of this category"`
	Language string `json:"language,omitempty" jsonschema:"description=Only sources in this language"`
	Country  string `json:"country,omitempty" jsonschema:"description=Only sources from this country"`
}

type readerArgs struct {
	URLs []string `json:"urls" jsonschema:"description=Article URLs to read" validate:"required,min=1,dive,url"`
}

// Tools returns the news tools.
func Tools(c *Client, r *ArticleReader) []tool.Tool {
	return []tool.Tool{
		NewsEverythingSearchTool(c),
		NewsHeadlinesSearchTool(c),
		NewsSourcesSearchTool(c),
		NewsArticlesReaderTool(r),
	}
}

// NewsEverythingSearchTool searches all indexed articles.
func NewsEverythingSearchTool(c *Client) tool.Tool {
	return tool.NewTypedTool(EverythingToolName,
		"Search news articles from over 30,000 sources. Use from_param to limit the time window. page defaults to 1 and page_size to 5.",
		func(tc *core.ToolContext, in everythingArgs) (any, error) {
			q := EverythingQuery{
				Q:              in.Q,
				QInTitle:       in.QInTitle,
				Sources:        in.Sources,
				Domains:        in.Domains,
				ExcludeDomains: in.ExcludeDomains,
				From:           in.FromParam,
				To:             in.To,
				Language:       in.Language,
				SortBy:         in.SortBy,
				PageSize:       in.PageSize,
				Page:           in.Page,
			}
			if q.Page == 0 {
				q.Page = DefaultPage
			}
			if q.PageSize == 0 {
				q.PageSize = DefaultPageSize
			}

			return c.Everything(tc.Context(), q)
		})
}

// NewsHeadlinesSearchTool returns top headlines.
func NewsHeadlinesSearchTool(c *Client) tool.Tool {
	return tool.NewTypedTool(HeadlinesToolName,
		"Fetch top headlines by keyword, source, category, language or country.",
		func(tc *core.ToolContext, in headlinesArgs) (any, error) {
			return c.TopHeadlines(tc.Context(), HeadlinesQuery(in))
		})
}

// NewsSourcesSearchTool lists news sources.
func NewsSourcesSearchTool(c *Client) tool.Tool {
	return tool.NewTypedTool(SourcesToolName,
		"List available news sources, optionally filtered by category, language or country.",
		func(tc *core.ToolContext, in sourcesArgs) (any, error) {
			return c.Sources(tc.Context(), SourcesQuery(in))
		})
}

// NewsArticlesReaderTool reads the full text of articles.
func NewsArticlesReaderTool(r *ArticleReader) tool.Tool {
	return tool.NewTypedTool(ReaderToolName,
		"Read the main text of news articles from their URLs. Unreadable pages are skipped.",
		func(tc *core.ToolContext, in readerArgs) (any, error) {
			return r.Read(tc.Context(), in.URLs)
		})
}
