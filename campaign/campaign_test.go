package campaign

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/campaignmesh/agent"
	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/engine"
	"github.com/hupe1980/campaignmesh/model"
	"github.com/hupe1980/campaignmesh/subagent"
	"github.com/hupe1980/campaignmesh/tool"
	"github.com/hupe1980/campaignmesh/toolset/arxiv"
	"github.com/hupe1980/campaignmesh/toolset/blogger"
	"github.com/hupe1980/campaignmesh/toolset/news"
	"github.com/hupe1980/campaignmesh/toolset/websearch"
	"github.com/hupe1980/campaignmesh/toolset/wikipedia"
	"github.com/hupe1980/campaignmesh/toolset/youtube"
)

type fakeAPIs struct {
	mu        sync.Mutex
	published []string
	srv       *httptest.Server
}

func (f *fakeAPIs) publishedTitles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.published...)
}

func newFakeAPIs(t *testing.T) *fakeAPIs {
	t.Helper()

	f := &fakeAPIs{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/ddg/html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = io.WriteString(w, `<div class="result"><a class="result__a" href="https://ev.example/report">EV report 2025</a><a class="result__snippet">EV sales up 30%.</a></div>`)
		case r.Method == http.MethodPost && r.URL.Path == "/blogger/blogs/b1/posts/":
			var in map[string]string
			_ = json.NewDecoder(r.Body).Decode(&in)
			f.mu.Lock()
			f.published = append(f.published, in["title"])
			f.mu.Unlock()
			_ = json.NewEncoder(w).Encode(blogger.Post{ID: "p9", Title: in["title"], URL: "https://blog.example/p9"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.srv.Close)

	return f
}

func newDeps(t *testing.T, llm model.Model, apis *fakeAPIs) Dependencies {
	t.Helper()

	base := "http://127.0.0.1:1"
	if apis != nil {
		base = apis.srv.URL
	}

	return Dependencies{
		Model:        llm,
		Reviewer:     subagent.NewReviewer(llm),
		ScriptWriter: youtube.NewScriptWriter(llm, nil),
		Transcripts:  youtube.NewTranscriptReader(),
		News:         news.NewClient(),
		Articles:     news.NewArticleReader(),
		Blogger: blogger.NewClient(func(o *blogger.ClientOptions) {
			o.BaseURL = base + "/blogger"
			o.AccessToken = "token"
		}),
		DuckDuckGo: websearch.NewClient(func(o *websearch.ClientOptions) { o.HTMLURL = base + "/ddg/html" }),
		Wikipedia:  wikipedia.NewClient(),
		Arxiv:      arxiv.NewClient(),
		Now:        func() time.Time { return time.Date(2025, 4, 24, 10, 30, 0, 0, time.UTC) },
	}
}

func handoff(to string) core.FunctionCall {
	return core.FunctionCall{ID: core.NewID(), Name: tool.HandoffToolName, Arguments: fmt.Sprintf(`{"to_agent":%q}`, to)}
}

func callTool(name, args string) core.FunctionCall {
	return core.FunctionCall{ID: core.NewID(), Name: name, Arguments: args}
}

func TestNewGraph_Topology(t *testing.T) {
	g, err := NewGraph(newDeps(t, model.NewScriptedModel("m"), nil))
	require.NoError(t, err)

	assert.Equal(t, ManagerAgent, g.Root())
	assert.ElementsMatch(t, []string{
		ManagerAgent, NewsAgent, YoutubeAgent, ArxivAgent, DuckDuckGoAgent,
		WikipediaAgent, BlogAgent, EditorAgent, BriefWriterAgent,
	}, g.Names())

	for _, research := range []string{NewsAgent, YoutubeAgent, ArxivAgent, DuckDuckGoAgent, WikipediaAgent, BlogAgent} {
		assert.True(t, g.CanHandoff(research, ManagerAgent), research)
		assert.True(t, g.CanHandoff(research, BriefWriterAgent), research)
		assert.True(t, g.CanHandoff(ManagerAgent, research), research)
		assert.False(t, g.CanHandoff(research, EditorAgent), research)
	}

	assert.True(t, g.CanHandoff(ManagerAgent, EditorAgent))
	assert.False(t, g.CanHandoff(ManagerAgent, BriefWriterAgent))
	assert.True(t, g.CanHandoff(EditorAgent, ManagerAgent))
	assert.True(t, g.CanHandoff(BriefWriterAgent, ManagerAgent))
	assert.False(t, g.CanHandoff(BriefWriterAgent, NewsAgent))
}

func TestNewGraph_Tools(t *testing.T) {
	g, err := NewGraph(newDeps(t, model.NewScriptedModel("m"), nil))
	require.NoError(t, err)

	toolNames := func(name string) []string {
		p, err := g.Agent(name)
		require.NoError(t, err)

		var out []string
		for _, tl := range p.(*agent.Agent).Tools() {
			out = append(out, tl.Name())
		}
		return out
	}

	assert.ElementsMatch(t, []string{"YoutubeVideoScriptReaderTool", "ReadPreparedBlogPostTool", "ReviewContentTool"}, toolNames(ManagerAgent))
	assert.ElementsMatch(t, []string{"WriteIntelBriefingTool"}, toolNames(BriefWriterAgent))
	assert.ElementsMatch(t, []string{"ArxivQueryTool"}, toolNames(ArxivAgent))
	assert.ElementsMatch(t, []string{"WikipediaQueryTool", "WikipediaSearchTool"}, toolNames(WikipediaAgent))
	assert.ElementsMatch(t, []string{"DuckDuckGoInstantSearchTool", "DuckDuckGoFullSearchTool"}, toolNames(DuckDuckGoAgent))
	assert.Contains(t, toolNames(NewsAgent), "NewsEverythingSearchTool")
	assert.Contains(t, toolNames(YoutubeAgent), "YoutubeVideoScriptWriterTool")
	assert.Contains(t, toolNames(YoutubeAgent), "GetIntelBriefingTool")
	assert.Contains(t, toolNames(BlogAgent), "CreateBlogPostTool")
	assert.Contains(t, toolNames(BlogAgent), "GetIntelBriefingTool")
}

func TestNewGraph_Instructions(t *testing.T) {
	g, err := NewGraph(newDeps(t, model.NewScriptedModel("m"), nil))
	require.NoError(t, err)

	for _, name := range []string{ManagerAgent, NewsAgent} {
		p, err := g.Agent(name)
		require.NoError(t, err)

		text, err := p.(*agent.Agent).ResolveInstructions()
		require.NoError(t, err)
		assert.Contains(t, text, "2025-04-24 10:30:00", name)
	}
}

func TestNewGraph_MissingDependencies(t *testing.T) {
	_, err := NewGraph(Dependencies{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model is required")
	assert.Contains(t, err.Error(), "every toolset client is required")
}

func TestResearchToBriefingFlow(t *testing.T) {
	apis := newFakeAPIs(t)

	llm := model.NewScriptedModel("shared",
		model.CallResponse("", handoff(DuckDuckGoAgent)),
		model.CallResponse("", callTool(websearch.FullToolName, `{"query":"ev trends","max_results":1}`)),
		model.CallResponse("", handoff(BriefWriterAgent)),
		model.CallResponse("", callTool("WriteIntelBriefingTool", `{"intel_briefing":"EV sales up 30% (https://ev.example/report)","key":"ev_brief"}`)),
		model.CallResponse("", handoff(ManagerAgent)),
		model.TextResponse("Research is ready. Shall I draft the blog post?"),
	)

	g, err := NewGraph(newDeps(t, llm, apis))
	require.NoError(t, err)

	e, err := engine.New(g)
	require.NoError(t, err)

	res, err := e.RunTurn(context.Background(), nil, "Research EV trends")
	require.NoError(t, err)

	assert.Equal(t, "Research is ready. Shall I draft the blog post?", res.Response)
	assert.Equal(t, ManagerAgent, res.Context.ActiveAgent)

	brief, ok := res.Context.State.Briefing("ev_brief")
	require.True(t, ok)
	assert.Contains(t, brief, "EV sales up 30%")

	// The brief writer saw the search result.
	reqs := llm.Requests()
	require.Len(t, reqs, 6)
	var sawResult bool
	for _, c := range reqs[3].Contents {
		for _, fr := range c.FunctionResponses() {
			if strings.Contains(fr.ResultText(), "https://ev.example/report") {
				sawResult = true
			}
		}
	}
	assert.True(t, sawResult)
}

func TestPublishRequiresConfirmation(t *testing.T) {
	apis := newFakeAPIs(t)
	create := `{"blog_id":"b1","title":"EV Trends","content_html":"<p>EVs</p>"}`

	llm := model.NewScriptedModel("shared",
		// Turn 1: the blog agent tries to publish and is stopped.
		model.CallResponse("", handoff(BlogAgent)),
		model.CallResponse("", callTool(blogger.CreateBlogPostToolName, create)),
		model.CallResponse("", handoff(ManagerAgent)),
		model.TextResponse("Shall I publish \"EV Trends\" to Tech Notes?"),
		// Turn 2: the user agreed, the same call now goes through.
		model.CallResponse("", handoff(BlogAgent)),
		model.CallResponse("", callTool(blogger.CreateBlogPostToolName, create)),
		model.CallResponse("", handoff(ManagerAgent)),
		model.TextResponse("Published: https://blog.example/p9"),
	)

	g, err := NewGraph(newDeps(t, llm, apis))
	require.NoError(t, err)

	e, err := engine.New(g)
	require.NoError(t, err)

	res, err := e.RunTurn(context.Background(), nil, "Publish the draft to Tech Notes")
	require.NoError(t, err)
	assert.Equal(t, "Shall I publish \"EV Trends\" to Tech Notes?", res.Response)
	assert.Empty(t, apis.publishedTitles())
	require.NotNil(t, res.Context.Pending)

	res, err = e.RunTurn(context.Background(), res.Context, "yes")
	require.NoError(t, err)
	assert.Equal(t, "Published: https://blog.example/p9", res.Response)
	assert.Equal(t, []string{"EV Trends"}, apis.publishedTitles())
	assert.Nil(t, res.Context.Pending)
}
