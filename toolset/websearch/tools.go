package websearch

import (
	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/tool"
)

// Tool names.
const (
	InstantToolName = "DuckDuckGoInstantSearchTool"
	FullToolName    = "DuckDuckGoFullSearchTool"
)

type instantArgs struct {
	Query string `json:"query" jsonschema:"description=Search query" validate:"required"`
}

type fullArgs struct {
	Query      string `json:"query" jsonschema:"description=Search query" validate:"required"`
	Region     string `json:"region,omitempty" jsonschema:"description=Region code such as us-en or wt-wt (default)"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"description=Maximum number of results (default 10)" validate:"omitempty,min=1,max=50"`
}

// Tools returns the DuckDuckGo tools.
func Tools(c *Client) []tool.Tool {
	return []tool.Tool{DuckDuckGoInstantSearchTool(c), DuckDuckGoFullSearchTool(c)}
}

// DuckDuckGoInstantSearchTool returns a quick answer for a query.
func DuckDuckGoInstantSearchTool(c *Client) tool.Tool {
	return tool.NewTypedTool(InstantToolName,
		"Perform an instant search using DuckDuckGo: abstract, direct answer and related topics.",
		func(tc *core.ToolContext, in instantArgs) (any, error) {
			return c.Instant(tc.Context(), in.Query)
		})
}

// DuckDuckGoFullSearchTool returns a list of web results.
func DuckDuckGoFullSearchTool(c *Client) tool.Tool {
	return tool.NewTypedTool(FullToolName,
		"Perform a full web search using DuckDuckGo and return titles, links and snippets.",
		func(tc *core.ToolContext, in fullArgs) (any, error) {
			return c.Search(tc.Context(), in.Query, in.Region, in.MaxResults)
		})
}
