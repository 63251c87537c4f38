package blogger

import (
	"fmt"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/tool"
)

// Tool names.
const (
	FetchUserBlogsToolName       = "FetchUserBlogsTool"
	SearchBlogPostsToolName      = "SearchBlogPostsTool"
	PrepareBlogPostToolName      = "PrepareBlogPostTool"
	ReadPreparedBlogPostToolName = "ReadPreparedBlogPostTool"
	CreateBlogPostToolName       = "CreateBlogPostTool"
	UpdateBlogPostToolName       = "UpdateBlogPostTool"
	DeleteBlogPostToolName       = "DeleteBlogPostTool"
)

type fetchArgs struct{}

type searchArgs struct {
	BlogID string `json:"blog_id" jsonschema:"description=ID of the blog to search" validate:"required"`
	Query  string `json:"query" jsonschema:"description=Search query such as a post title" validate:"required"`
}

type prepareArgs struct {
	Title       string `json:"title" jsonschema:"description=Proposed post title" validate:"required"`
	ContentHTML string `json:"content_html" jsonschema:"description=Proposed post body as HTML including citations" validate:"required"`
	Key         string `json:"key,omitempty" jsonschema:"description=Key to store the draft under (default: latest)"`
}

type readArgs struct {
	Key string `json:"key,omitempty" jsonschema:"description=Key of the prepared draft; empty selects the most recent one"`
}

type createArgs struct {
	BlogID      string `json:"blog_id" jsonschema:"description=ID of the blog to publish to" validate:"required"`
	Title       string `json:"title" jsonschema:"description=Post title" validate:"required"`
	ContentHTML string `json:"content_html" jsonschema:"description=Post body as HTML" validate:"required"`
}

type updateArgs struct {
	BlogID      string `json:"blog_id" jsonschema:"description=ID of the blog" validate:"required"`
	PostID      string `json:"post_id" jsonschema:"description=ID of the post to update" validate:"required"`
	Title       string `json:"title" jsonschema:"description=New post title" validate:"required"`
	ContentHTML string `json:"content_html" jsonschema:"description=New post body as HTML" validate:"required"`
}

type deleteArgs struct {
	BlogID string `json:"blog_id" jsonschema:"description=ID of the blog" validate:"required"`
	PostID string `json:"post_id" jsonschema:"description=ID of the post to delete" validate:"required"`
}

// PreparedPost is what ReadPreparedBlogPostTool returns.
type PreparedPost struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	ContentHTML string `json:"content_html"`
}

// Tools returns every blog tool bound to c.
func Tools(c *Client) []tool.Tool {
	return []tool.Tool{
		FetchUserBlogsTool(c),
		SearchBlogPostsTool(c),
		PrepareBlogPostTool(),
		ReadPreparedBlogPostTool(),
		CreateBlogPostTool(c),
		UpdateBlogPostTool(c),
		DeleteBlogPostTool(c),
	}
}

// FetchUserBlogsTool lists the authenticated user's blogs.
func FetchUserBlogsTool(c *Client) tool.Tool {
	return tool.NewTypedTool(FetchUserBlogsToolName,
		"List the blogs of the authenticated Blogger user (id, name, url).",
		func(tc *core.ToolContext, _ fetchArgs) (any, error) {
			return c.ListBlogs(tc.Context())
		})
}

// SearchBlogPostsTool searches the posts of one blog.
func SearchBlogPostsTool(c *Client) tool.Tool {
	return tool.NewTypedTool(SearchBlogPostsToolName,
		"Search the posts of a blog. Use it to resolve a post title to a post_id.",
		func(tc *core.ToolContext, in searchArgs) (any, error) {
			return c.SearchPosts(tc.Context(), in.BlogID, in.Query)
		})
}

// PrepareBlogPostTool stores a draft in the shared state without touching
// the Blogger API.
func PrepareBlogPostTool() tool.Tool {
	return tool.NewTypedTool(PrepareBlogPostToolName,
		"Store a proposed blog post (title and HTML content) in the context for review and user confirmation. Does not publish anything.",
		func(tc *core.ToolContext, in prepareArgs) (any, error) {
			key := in.Key
			if key == "" {
				key = core.DefaultKey
			}
			tc.Drafts().SetDraft(key, core.Draft{Title: in.Title, Content: in.ContentHTML})
			return "Blog post prepared in context.", nil
		})
}

// ReadPreparedBlogPostTool returns a prepared draft.
func ReadPreparedBlogPostTool() tool.Tool {
	return tool.NewTypedTool(ReadPreparedBlogPostToolName,
		"Read a blog post prepared in the context.",
		func(tc *core.ToolContext, in readArgs) (any, error) {
			var (
				d  core.Draft
				ok bool
			)

			key := in.Key
			if key == "" {
				key, d, ok = tc.Drafts().LatestDraft()
			} else {
				d, ok = tc.Drafts().Draft(key)
			}
			if !ok {
				return "No blog post prepared in context.", nil
			}

			return PreparedPost{Key: key, Title: d.Title, ContentHTML: d.Content}, nil
		})
}

// CreateBlogPostTool publishes a post. It requires user confirmation.
func CreateBlogPostTool(c *Client) tool.Tool {
	return tool.NewTypedTool(CreateBlogPostToolName,
		"Publish a new post on a blog. Only call after the user explicitly confirmed publishing.",
		func(tc *core.ToolContext, in createArgs) (any, error) {
			return c.InsertPost(tc.Context(), in.BlogID, in.Title, in.ContentHTML)
		}, tool.WithConfirmation())
}

// UpdateBlogPostTool updates a post. It requires user confirmation.
func UpdateBlogPostTool(c *Client) tool.Tool {
	return tool.NewTypedTool(UpdateBlogPostToolName,
		"Replace the title and content of an existing post. Only call after the user explicitly confirmed the update.",
		func(tc *core.ToolContext, in updateArgs) (any, error) {
			return c.UpdatePost(tc.Context(), in.BlogID, in.PostID, in.Title, in.ContentHTML)
		}, tool.WithConfirmation())
}

// DeleteBlogPostTool deletes a post. It requires user confirmation.
func DeleteBlogPostTool(c *Client) tool.Tool {
	return tool.NewTypedTool(DeleteBlogPostToolName,
		"Delete a post from a blog. Only call after the user explicitly confirmed the deletion.",
		func(tc *core.ToolContext, in deleteArgs) (any, error) {
			if err := c.DeletePost(tc.Context(), in.BlogID, in.PostID); err != nil {
				return nil, err
			}
			return fmt.Sprintf("Deleted post %s from blog %s.", in.PostID, in.BlogID), nil
		}, tool.WithConfirmation())
}
