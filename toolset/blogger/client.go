// Package blogger talks to the Blogger v3 REST API and exposes the blog tools:
// listing the user's blogs, searching posts, preparing a draft in the shared
// state and the side-effecting create, update and delete operations.
package blogger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hupe1980/campaignmesh/internal/httpx"
)

// DefaultBaseURL is the Blogger v3 endpoint.
const DefaultBaseURL = "https://www.googleapis.com/blogger/v3"

// ErrNoCredentials is returned when no access token is configured.
var ErrNoCredentials = errors.New("blogger access token is not configured")

// Blog is the subset of a Blogger blog resource the agents need.
type Blog struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
}

// Post is the subset of a Blogger post resource the agents need.
type Post struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	URL       string `json:"url,omitempty"`
	Published string `json:"published,omitempty"`
	Updated   string `json:"updated,omitempty"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
}

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL     string
	AccessToken string
	HTTP        *httpx.Client
}

// Client is a minimal Blogger v3 client.
type Client struct {
	baseURL string
	token   string
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

	return &Client{baseURL: opts.BaseURL, token: opts.AccessToken, http: opts.HTTP}
}

// ListBlogs returns the blogs of the authenticated user.
func (c *Client) ListBlogs(ctx context.Context) ([]Blog, error) {
	var out listResponse[Blog]
	if err := c.do(ctx, http.MethodGet, "/users/self/blogs", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	return nonNil(out.Items), nil
}

// SearchPosts searches the posts of a blog.
func (c *Client) SearchPosts(ctx context.Context, blogID, query string) ([]Post, error) {
	q := url.Values{"q": {query}, "fetchBodies": {"false"}}

	var out listResponse[Post]
	if err := c.do(ctx, http.MethodGet, "/blogs/"+url.PathEscape(blogID)+"/posts/search", q, nil, &out); err != nil {
		return nil, fmt.Errorf("search posts in blog %s: %w", blogID, err)
	}
	return nonNil(out.Items), nil
}

// InsertPost publishes a new post.
func (c *Client) InsertPost(ctx context.Context, blogID, title, content string) (Post, error) {
	var out Post
	body := map[string]string{"kind": "blogger#post", "title": title, "content": content}
	if err := c.do(ctx, http.MethodPost, "/blogs/"+url.PathEscape(blogID)+"/posts/", nil, body, &out); err != nil {
		return Post{}, fmt.Errorf("create post in blog %s: %w", blogID, err)
	}
	return out, nil
}

// UpdatePost replaces the title and content of an existing post.
func (c *Client) UpdatePost(ctx context.Context, blogID, postID, title, content string) (Post, error) {
	var out Post
	body := map[string]string{"kind": "blogger#post", "id": postID, "title": title, "content": content}
	path := "/blogs/" + url.PathEscape(blogID) + "/posts/" + url.PathEscape(postID)
	if err := c.do(ctx, http.MethodPut, path, nil, body, &out); err != nil {
		return Post{}, fmt.Errorf("update post %s in blog %s: %w", postID, blogID, err)
	}
	return out, nil
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, blogID, postID string) error {
	path := "/blogs/" + url.PathEscape(blogID) + "/posts/" + url.PathEscape(postID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("delete post %s in blog %s: %w", postID, blogID, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	if c.token == "" {
		return ErrNoCredentials
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	header := http.Header{"Authorization": {"Bearer " + c.token}}

	return c.http.SendJSON(ctx, method, u, header, in, out)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
