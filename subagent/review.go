package subagent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/internal/util"
	"github.com/hupe1980/campaignmesh/logging"
	"github.com/hupe1980/campaignmesh/model"
)

// ContentType selects the namespace a reviewed item is read from.
type ContentType string

const (
	// ContentDraftArticle reviews a prepared blog post.
	ContentDraftArticle ContentType = "draft_article"
	// ContentDraftScript reviews a video script.
	ContentDraftScript ContentType = "draft_script"
)

var (
	// ErrInvalidContentType is returned for unknown content types.
	ErrInvalidContentType = errors.New("invalid content type")
	// ErrContentNotFound is returned when nothing is stored under the key.
	ErrContentNotFound = fmt.Errorf("content %w", core.ErrNotFound)
)

// ParseContentType accepts the canonical names and the namespace aliases
// blog_posts and scripts.
func ParseContentType(s string) (ContentType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ContentDraftArticle), core.NamespaceDrafts:
		return ContentDraftArticle, nil
	case string(ContentDraftScript), core.NamespaceScripts:
		return ContentDraftScript, nil
	default:
		return "", fmt.Errorf("%w %q: must be %s or %s", ErrInvalidContentType, s, ContentDraftArticle, ContentDraftScript)
	}
}

// Source is the read side of the shared state the reviewer needs.
type Source interface {
	Draft(key string) (core.Draft, bool)
	LatestDraft() (string, core.Draft, bool)
	Script(key string) (string, bool)
	LatestScript() (string, string, bool)
}

// ReviewOptions configures a Reviewer.
type ReviewOptions struct {
	Logger logging.Logger
}

// Reviewer runs one model call over a stored draft and returns the raw
// review text. Parsing the review is left to the caller.
type Reviewer struct {
	llm    model.Model
	logger logging.Logger
}

// NewReviewer creates a reviewer backed by llm.
func NewReviewer(llm model.Model, optFns ...func(o *ReviewOptions)) *Reviewer {
	var opts ReviewOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Reviewer{llm: llm, logger: logging.OrNoOp(opts.Logger)}
}

// Review reviews the content stored under key. An empty key selects the most
// recently written item of that type.
func (r *Reviewer) Review(ctx context.Context, src Source, contentType, key string) (string, error) {
	ct, err := ParseContentType(contentType)
	if err != nil {
		return "", err
	}

	content, err := Content(src, ct, key)
	if err != nil {
		return "", err
	}

	prompt, err := util.RenderTemplate(reviewPrompt, map[string]any{"Kind": string(ct), "Content": content})
	if err != nil {
		return "", fmt.Errorf("render review prompt: %w", err)
	}

	start := time.Now()
	text, err := model.CompleteText(ctx, r.llm, "", prompt)
	logging.LogModelCall(r.logger, "Reviewer", r.llm.Info().Name, time.Since(start), err)

	if err != nil {
		return "", fmt.Errorf("review %s %q: %w", ct, key, err)
	}

	return text, nil
}

// Content returns the review input for an item: drafts are converted from
// HTML to Markdown and prefixed with their title.
func Content(src Source, ct ContentType, key string) (string, error) {
	switch ct {
	case ContentDraftArticle:
		var (
			d  core.Draft
			ok bool
		)
		if key == "" {
			key, d, ok = src.LatestDraft()
		} else {
			d, ok = src.Draft(key)
		}
		if !ok {
			return "", fmt.Errorf("%w: no %s under key %q, prepare it first", ErrContentNotFound, ct, key)
		}

		md, err := htmltomarkdown.ConvertString(d.Content)
		if err != nil {
			md = d.Content
		}

		if d.Title == "" {
			return strings.TrimSpace(md), nil
		}

		return fmt.Sprintf("# %s\n\n%s", d.Title, strings.TrimSpace(md)), nil
	case ContentDraftScript:
		var (
			s  string
			ok bool
		)
		if key == "" {
			key, s, ok = src.LatestScript()
		} else {
			s, ok = src.Script(key)
		}
		if !ok {
			return "", fmt.Errorf("%w: no %s under key %q, prepare it first", ErrContentNotFound, ct, key)
		}

		return s, nil
	default:
		return "", fmt.Errorf("%w %q", ErrInvalidContentType, ct)
	}
}
