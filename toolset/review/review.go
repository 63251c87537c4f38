// Package review exposes the content reviewer as a tool for the manager.
package review

import (
	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/subagent"
	"github.com/hupe1980/campaignmesh/tool"
)

// ToolName is the registered name of the review tool.
const ToolName = "ReviewContentTool"

type reviewArgs struct {
	ContentType string `json:"content_type" jsonschema:"description=Kind of content to review,enum=blog_posts,enum=scripts,enum=draft_article,enum=draft_script" validate:"required"`
	Key         string `json:"key,omitempty" jsonschema:"description=Key the content is stored under; empty selects the latest item"`
}

// ReviewContentTool reviews a stored draft article or script and returns the
// reviewer's verdict with feedback and suggested packaging.
func ReviewContentTool(reviewer *subagent.Reviewer) tool.Tool {
	return tool.NewTypedTool(ToolName,
		"Review a prepared blog post (blog_posts) or video script (scripts) stored in the context. Returns review status, feedback, title, meta description and hashtags.",
		func(tc *core.ToolContext, in reviewArgs) (any, error) {
			return reviewer.Review(tc.Context(), tc, in.ContentType, in.Key)
		})
}
