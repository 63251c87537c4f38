// Package campaign assembles the content-campaign agent graph: a manager that
// plans the campaign, five research agents, a blog agent, an editor and a
// brief writer that stores research as intel briefings.
package campaign

import (
	"errors"
	"time"

	"github.com/hupe1980/campaignmesh/agent"
	"github.com/hupe1980/campaignmesh/logging"
	"github.com/hupe1980/campaignmesh/model"
	"github.com/hupe1980/campaignmesh/subagent"
	"github.com/hupe1980/campaignmesh/tool"
	"github.com/hupe1980/campaignmesh/toolset/arxiv"
	"github.com/hupe1980/campaignmesh/toolset/blogger"
	"github.com/hupe1980/campaignmesh/toolset/briefing"
	"github.com/hupe1980/campaignmesh/toolset/news"
	"github.com/hupe1980/campaignmesh/toolset/review"
	"github.com/hupe1980/campaignmesh/toolset/websearch"
	"github.com/hupe1980/campaignmesh/toolset/wikipedia"
	"github.com/hupe1980/campaignmesh/toolset/youtube"
)

// Agent names.
const (
	ManagerAgent     = "ManagerAgent"
	NewsAgent        = "NewsAgent"
	YoutubeAgent     = "YoutubeAgent"
	ArxivAgent       = "ArxivAgent"
	DuckDuckGoAgent  = "DuckDuckGoAgent"
	WikipediaAgent   = "WikipediaAgent"
	BlogAgent        = "BlogAgent"
	EditorAgent      = "EditorAgent"
	BriefWriterAgent = "BriefWriterAgent"
)

// Root is the agent every conversation starts with.
const Root = ManagerAgent

// Dependencies are the collaborators the agents' tools are bound to.
type Dependencies struct {
	Model        model.Model
	Reviewer     *subagent.Reviewer
	ScriptWriter *youtube.ScriptWriter
	Transcripts  *youtube.TranscriptReader
	News         *news.Client
	Articles     *news.ArticleReader
	Blogger      *blogger.Client
	DuckDuckGo   *websearch.Client
	Wikipedia    *wikipedia.Client
	Arxiv        *arxiv.Client

	MaxHistory int
	Now        func() time.Time
	Logger     logging.Logger
}

func (d Dependencies) validate() error {
	var errs []error
	if d.Model == nil {
		errs = append(errs, errors.New("campaign: model is required"))
	}
	if d.Reviewer == nil {
		errs = append(errs, errors.New("campaign: reviewer is required"))
	}
	if d.ScriptWriter == nil {
		errs = append(errs, errors.New("campaign: script writer is required"))
	}
	if d.Transcripts == nil || d.News == nil || d.Articles == nil || d.Blogger == nil ||
		d.DuckDuckGo == nil || d.Wikipedia == nil || d.Arxiv == nil {
		errs = append(errs, errors.New("campaign: every toolset client is required"))
	}
	return errors.Join(errs...)
}

type spec struct {
	name        string
	description string
	prompt      string
	tools       []tool.Tool
	handoffs    []string
}

// NewGraph builds a fresh agent graph. Agents are immutable, so a reset
// simply builds a new graph.
func NewGraph(deps Dependencies) (*agent.Graph, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	getBriefing := briefing.GetIntelBriefingTool()
	scriptReader := youtube.YoutubeVideoScriptReaderTool()
	draftReader := blogger.ReadPreparedBlogPostTool()

	research := []string{ManagerAgent, BriefWriterAgent}

	specs := []spec{
		{
			name:        NewsAgent,
			description: "Get the latest news regarding a topic, read news articles, and get the latest news headlines.",
			prompt:      newsPrompt,
			tools:       news.Tools(deps.News, deps.Articles),
			handoffs:    research,
		},
		{
			name:        YoutubeAgent,
			description: "Get youtube video transcripts and write video scripts.",
			prompt:      youtubePrompt,
			tools: []tool.Tool{
				youtube.YoutubeVideosTranscriptReaderTool(deps.Transcripts),
				scriptReader,
				youtube.YoutubeVideoScriptWriterTool(deps.ScriptWriter),
				getBriefing,
			},
			handoffs: research,
		},
		{
			name:        ArxivAgent,
			description: "Get the latest arxiv papers.",
			prompt:      arxivPrompt,
			tools:       []tool.Tool{arxiv.ArxivQueryTool(deps.Arxiv)},
			handoffs:    research,
		},
		{
			name:        DuckDuckGoAgent,
			description: "Search the web using DuckDuckGo.",
			prompt:      duckduckgoPrompt,
			tools:       websearch.Tools(deps.DuckDuckGo),
			handoffs:    research,
		},
		{
			name:        WikipediaAgent,
			description: "Get wikipedia articles.",
			prompt:      wikipediaPrompt,
			tools:       wikipedia.Tools(deps.Wikipedia),
			handoffs:    research,
		},
		{
			name:        BlogAgent,
			description: "Handles interactions with Blogger, including fetching, searching, preparing, creating, and updating posts.",
			prompt:      blogPrompt,
			tools:       append(blogger.Tools(deps.Blogger), getBriefing),
			handoffs:    research,
		},
		{
			name:        EditorAgent,
			description: "Review the blog post and youtube video script and provide feedback.",
			prompt:      editorPrompt,
			tools:       []tool.Tool{draftReader, scriptReader},
			handoffs:    []string{ManagerAgent},
		},
		{
			name:        BriefWriterAgent,
			description: "Synthesizes raw research findings or stores prepared content into structured briefs using WriteIntelBriefingTool.",
			prompt:      briefWriterPrompt,
			tools:       []tool.Tool{briefing.WriteIntelBriefingTool()},
			handoffs:    []string{ManagerAgent},
		},
		{
			name:        ManagerAgent,
			description: "Manage the workflow, including user confirmation steps for actions.",
			prompt:      managerPrompt,
			tools:       []tool.Tool{scriptReader, draftReader, review.ReviewContentTool(deps.Reviewer)},
			handoffs:    []string{NewsAgent, YoutubeAgent, ArxivAgent, DuckDuckGoAgent, WikipediaAgent, BlogAgent, EditorAgent},
		},
	}

	agents := make([]agent.Proposer, 0, len(specs))
	for _, s := range specs {
		a, err := agent.New(s.name, deps.Model, func(o *agent.Options) {
			o.Description = s.description
			o.Instruction = agent.NewInstructionFromText(s.prompt)
			o.Tools = s.tools
			o.Handoffs = s.handoffs
			if deps.MaxHistory > 0 {
				o.MaxHistory = deps.MaxHistory
			}
			if deps.Now != nil {
				o.Now = deps.Now
			}
			o.Logger = deps.Logger
		})
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}

	return agent.NewGraph(Root, agents...)
}
