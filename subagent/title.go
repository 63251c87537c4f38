package subagent

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/hupe1980/campaignmesh/internal/util"
	"github.com/hupe1980/campaignmesh/logging"
	"github.com/hupe1980/campaignmesh/model"
)

// NoTitle is the sentinel the model answers with when a chat has no topic.
const NoTitle = "NONE"

var titleRe = regexp.MustCompile(`(?is)<title>\s*(.*?)\s*</title>`)

// TitleOptions configures a TitleGenerator.
type TitleOptions struct {
	// MaxChars bounds the transcript sent to the model; older lines are dropped first.
	MaxChars int
	Logger   logging.Logger
}

// TitleGenerator names sessions from their transcript. It never fails:
// model errors and malformed answers yield nil.
type TitleGenerator struct {
	llm    model.Model
	opts   TitleOptions
	logger logging.Logger
}

// NewTitleGenerator creates a generator backed by llm.
func NewTitleGenerator(llm model.Model, optFns ...func(o *TitleOptions)) *TitleGenerator {
	opts := TitleOptions{MaxChars: 8000}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &TitleGenerator{llm: llm, opts: opts, logger: logging.OrNoOp(opts.Logger)}
}

// Generate returns a title or nil.
func (g *TitleGenerator) Generate(ctx context.Context, transcript []string) *string {
	chat := clipTranscript(labelTranscript(transcript), g.opts.MaxChars)
	if strings.TrimSpace(chat) == "" {
		return nil
	}

	prompt, err := util.RenderTemplate(titlePrompt, map[string]any{"Chat": chat})
	if err != nil {
		g.logger.Error("subagent.title.prompt", "error", err)
		return nil
	}

	start := time.Now()
	text, err := model.CompleteText(ctx, g.llm, "", prompt)
	logging.LogModelCall(g.logger, "TitleGenerator", g.llm.Info().Name, time.Since(start), err)

	if err != nil {
		return nil
	}

	title := ParseTitle(text)
	if title == nil {
		g.logger.Debug("subagent.title.none", "raw", text)
	}

	return title
}

// ParseTitle extracts the title from a <title>...</title> answer. The NONE
// sentinel, an empty title and answers without the wrapper yield nil.
func ParseTitle(text string) *string {
	m := titleRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	title := strings.Join(strings.Fields(m[1]), " ")
	if title == "" || strings.EqualFold(title, NoTitle) {
		return nil
	}

	return &title
}

// labelTranscript prefixes the alternating user and assistant entries of a
// raw transcript with their speaker.
func labelTranscript(transcript []string) []string {
	labeled := make([]string, len(transcript))
	for i, line := range transcript {
		if i%2 == 0 {
			labeled[i] = "User: " + line
		} else {
			labeled[i] = "AI: " + line
		}
	}

	return labeled
}

func clipTranscript(transcript []string, maxChars int) string {
	chat := strings.Join(transcript, "\n")
	if maxChars <= 0 || len(chat) <= maxChars {
		return chat
	}

	chat = chat[len(chat)-maxChars:]
	if i := strings.IndexByte(chat, '\n'); i >= 0 && i < len(chat)-1 {
		chat = chat[i+1:]
	}

	return chat
}
