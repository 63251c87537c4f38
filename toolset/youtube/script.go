package youtube

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/internal/util"
	"github.com/hupe1980/campaignmesh/logging"
	"github.com/hupe1980/campaignmesh/model"
)

const scriptWriterPrompt = `You are a professional video script writer. Write a compelling script for the title or task below, using the provided information and staying true to the campaign briefs.
Respect any length the task asks for; without one, aim for roughly 60 seconds.

Campaign Briefs:
{{.Briefs}}

Title/Task: {{.Title}}

Information:
{{.Information}}

Structure the script as follows:

# Video Script: {{.Title}}

## Introduction
- A hook that fits the briefs
- What the topic is and why it matters
- What viewers will take away

## Main Content
- Key points in a logical order, drawn from the information
- Tone and message consistent with the briefs
- Facts, examples and insights, citing sources with links and dates where available

## Visual Directions
- Visuals, graphics and animations
- Transition notes
- B-roll ideas

## Conclusion
- Recap of the main points
- One clear takeaway
- A call to action if it fits the briefs

## Sources & Citations
- Every source used, with link and date when known.

Use plain Markdown with clear section breaks and timing hints. Do not wrap the answer in a code block.
`

// ScriptWriter turns briefings plus task information into a video script.
type ScriptWriter struct {
	llm    model.Model
	logger logging.Logger
}

// NewScriptWriter creates a ScriptWriter.
func NewScriptWriter(llm model.Model, logger logging.Logger) *ScriptWriter {
	return &ScriptWriter{llm: llm, logger: logging.OrNoOp(logger)}
}

// ScriptRequest is the input of Write.
type ScriptRequest struct {
	Title       string
	Information string
	IntelKeys   []string
}

// Write renders the script for req using the briefings in src. It returns
// the script and the intel keys that were not found.
func (w *ScriptWriter) Write(ctx context.Context, src core.BriefingStore, req ScriptRequest) (string, []string, error) {
	var (
		briefs  []string
		missing []string
	)

	for _, k := range req.IntelKeys {
		if b, ok := src.Briefing(k); ok {
			briefs = append(briefs, b)
		} else {
			missing = append(missing, k)
		}
	}

	prompt, err := util.RenderTemplate(scriptWriterPrompt, map[string]any{
		"Briefs":      strings.Join(briefs, "\n\n"),
		"Title":       req.Title,
		"Information": req.Information,
	})
	if err != nil {
		return "", missing, fmt.Errorf("render script prompt: %w", err)
	}

	start := time.Now()
	text, err := model.CompleteText(ctx, w.llm, "", prompt)
	logging.LogModelCall(w.logger, "ScriptWriter", w.llm.Info().Name, time.Since(start), err)

	if err != nil {
		return "", missing, fmt.Errorf("generate video script: %w", err)
	}

	return stripFence(text), missing, nil
}

// stripFence removes a surrounding ```markdown fence some models add anyway.
func stripFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") || !strings.HasSuffix(t, "```") || len(t) < 6 {
		return t
	}

	t = strings.TrimSuffix(t, "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		t = t[nl+1:]
	} else {
		t = strings.TrimPrefix(t, "```")
	}

	return strings.TrimSpace(t)
}
