package arxiv

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/logging"
)

const atomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query</title>
  <entry>
    <id>http://arxiv.org/abs/2401.00001v1</id>
    <published>2024-01-01T00:00:00Z</published>
    <title>Quantum Error
      Correction at Scale</title>
    <summary>  We study   surface codes.
    </summary>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan Turing</name></author>
  </entry>
</feed>`

func newServer(t *testing.T) (*Client, func() url.Values) {
	t.Helper()

	var (
		mu   sync.Mutex
		last url.Values
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		last = r.URL.Query()
		mu.Unlock()

		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = io.WriteString(w, atomFeed)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(func(o *ClientOptions) { o.BaseURL = srv.URL })

	return c, func() url.Values {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
}

func TestArxivQueryTool(t *testing.T) {
	c, last := newServer(t)

	turn := core.NewTurnContext(context.Background(), "s1", "t1", "ArxivAgent", core.NewState(), 10, logging.NoOpLogger{})

	out, err := ArxivQueryTool(c).Call(core.NewToolContext(turn, "fc-1"), map[string]any{"query": "quantum error correction"})
	require.NoError(t, err)

	papers := out.([]Paper)
	require.Len(t, papers, 1)
	assert.Equal(t, Paper{
		Title:     "Quantum Error Correction at Scale",
		Authors:   []string{"Ada Lovelace", "Alan Turing"},
		Summary:   "We study surface codes.",
		Published: "2024-01-01T00:00:00Z",
		URL:       "http://arxiv.org/abs/2401.00001v1",
	}, papers[0])

	q := last()
	assert.Equal(t, "all:quantum error correction", q.Get("search_query"))
	assert.Equal(t, "relevance", q.Get("sortBy"))
	assert.Equal(t, "3", q.Get("max_results"))
}

func TestQuery_SortRecent(t *testing.T) {
	c, last := newServer(t)

	_, err := c.Query(context.Background(), "llm agents", SortRecent)
	require.NoError(t, err)
	assert.Equal(t, "submittedDate", last().Get("sortBy"))
}

func TestQuery_InvalidSort(t *testing.T) {
	c, _ := newServer(t)

	_, err := c.Query(context.Background(), "x", "popular")
	require.Error(t, err)
}
