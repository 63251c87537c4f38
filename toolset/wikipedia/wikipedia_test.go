package wikipedia

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/logging"
	"github.com/hupe1980/campaignmesh/tool"
)

func newServer(t *testing.T) *Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Path != "/en/api.php" && r.URL.Path != "/de/api.php" {
			http.NotFound(w, r)
			return
		}

		if q.Get("list") == "search" {
			var hits []map[string]string
			if q.Get("srsearch") == "einstein physicist" {
				hits = append(hits, map[string]string{"title": "Albert Einstein"})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"query": map[string]any{"search": hits}})
			return
		}

		switch q.Get("titles") {
		case "Albert Einstein":
			_ = json.NewEncoder(w).Encode(map[string]any{"query": map[string]any{"pages": map[string]any{
				"736": map[string]any{"title": "Albert Einstein", "extract": "Albert Einstein was a theoretical physicist."},
			}}})
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{"query": map[string]any{"pages": map[string]any{
				"-1": map[string]any{"title": q.Get("titles"), "missing": ""},
			}}})
		}
	}))
	t.Cleanup(srv.Close)

	return NewClient(func(o *ClientOptions) { o.Endpoint = srv.URL + "/%s/api.php" })
}

func newToolContext() *core.ToolContext {
	turn := core.NewTurnContext(context.Background(), "s1", "t1", "WikipediaAgent", core.NewState(), 10, logging.NoOpLogger{})
	return core.NewToolContext(turn, "fc-1")
}

func TestQueryTool(t *testing.T) {
	c := newServer(t)

	out, err := WikipediaQueryTool(c).Call(newToolContext(), map[string]any{"page": "Albert Einstein"})
	require.NoError(t, err)

	page := out.(Page)
	assert.Equal(t, "Albert Einstein", page.Title)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Albert_Einstein", page.URL)
	assert.Contains(t, page.Content, "theoretical physicist")
}

func TestQueryTool_Missing(t *testing.T) {
	c := newServer(t)

	_, err := WikipediaQueryTool(c).Call(newToolContext(), map[string]any{"page": "Nope Nope"})
	require.Error(t, err)

	var te *tool.ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, tool.CodeNotFound, te.Code)
}

func TestSearchTool(t *testing.T) {
	c := newServer(t)

	out, err := WikipediaSearchTool(c).Call(newToolContext(), map[string]any{"query": "einstein physicist", "lang": "en"})
	require.NoError(t, err)
	assert.Equal(t, "Albert Einstein", out.(Page).Title)

	_, err = c.SearchAndLoad(context.Background(), "zzz", "de")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestInvalidLang(t *testing.T) {
	c := newServer(t)

	_, err := c.Load(context.Background(), "Go", "en/../evil")
	require.ErrorIs(t, err, ErrInvalidLang)
}

func TestTruncation(t *testing.T) {
	c := newServer(t)
	c.maxChars = 10

	page, err := c.Load(context.Background(), "Albert Einstein", "")
	require.NoError(t, err)
	assert.Equal(t, "Albert Ein\n\n[Content truncated]", page.Content)
}
