package websearch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/logging"
)

const instantJSON = `{
  "Heading": "Go (programming language)",
  "AbstractText": "Go is a statically typed, compiled language.",
  "AbstractSource": "Wikipedia",
  "AbstractURL": "https://en.wikipedia.org/wiki/Go_(programming_language)",
  "Answer": "",
  "Definition": "",
  "RelatedTopics": [
    {"Text": "Gopher - mascot", "FirstURL": "https://duckduckgo.com/Gopher"},
    {"Name": "See also", "Topics": [{"Text": "Rob Pike", "FirstURL": "https://duckduckgo.com/Rob_Pike"}]}
  ]
}`

const resultsHTML = `<html><body>
<div class="result result--ad"><a class="result__a" href="https://ads.example">Ad</a></div>
<div class="result"><h2><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F&rut=x">The Go Programming Language</a></h2>
<a class="result__snippet">Build simple, secure, scalable systems with Go.</a></div>
<div class="result"><h2><a class="result__a" href="https://pkg.go.dev">Go Packages</a></h2>
<a class="result__snippet">Discover packages.</a></div>
<div class="result"><h2><a class="result__a" href="https://tour.golang.org">A Tour of Go</a></h2></div>
</body></html>`

func newServer(t *testing.T) *Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/instant":
			assert.Equal(t, "json", r.URL.Query().Get("format"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, instantJSON)
		case "/html":
			assert.Equal(t, "us-en", r.URL.Query().Get("kl"))
			w.Header().Set("Content-Type", "text/html")
			_, _ = io.WriteString(w, resultsHTML)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	return NewClient(func(o *ClientOptions) {
		o.InstantURL = srv.URL + "/instant"
		o.HTMLURL = srv.URL + "/html"
	})
}

func newToolContext() *core.ToolContext {
	turn := core.NewTurnContext(context.Background(), "s1", "t1", "DuckDuckGoAgent", core.NewState(), 10, logging.NoOpLogger{})
	return core.NewToolContext(turn, "fc-1")
}

func TestInstantSearch(t *testing.T) {
	c := newServer(t)

	out, err := DuckDuckGoInstantSearchTool(c).Call(newToolContext(), map[string]any{"query": "golang"})
	require.NoError(t, err)

	ans := out.(InstantAnswer)
	assert.Equal(t, "Go (programming language)", ans.Heading)
	assert.Equal(t, "Wikipedia", ans.AbstractSource)
	require.Len(t, ans.RelatedTopics, 2)
	assert.Equal(t, "Rob Pike", ans.RelatedTopics[1].Text)
}

func TestFullSearch(t *testing.T) {
	c := newServer(t)

	out, err := DuckDuckGoFullSearchTool(c).Call(newToolContext(), map[string]any{
		"query":       "golang",
		"region":      "us-en",
		"max_results": 2.0,
	})
	require.NoError(t, err)

	results := out.([]Result)
	require.Len(t, results, 2)
	assert.Equal(t, Result{Title: "The Go Programming Language", Href: "https://go.dev/", Body: "Build simple, secure, scalable systems with Go."}, results[0])
	assert.Equal(t, "https://pkg.go.dev", results[1].Href)
}

func TestFullSearch_AllResults(t *testing.T) {
	c := newServer(t)

	results, err := c.Search(context.Background(), "golang", "us-en", 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Empty(t, results[2].Body)
}

func TestResolveHref(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fa%3Fb%3D1", "https://example.com/a?b=1"},
		{"https://example.com", "https://example.com"},
		{"//example.com/x", "https://example.com/x"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, resolveHref(tt.in), tt.in)
	}
}
