// Package youtube reads video transcripts and writes or reads the video
// script stored in the shared session state.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/internal/httpx"
	"github.com/hupe1980/campaignmesh/logging"
)

// DefaultWatchURL is the page the caption tracks are discovered from.
const DefaultWatchURL = "https://www.youtube.com/watch"

var (
	// ErrInvalidLink is returned when no video id can be extracted.
	ErrInvalidLink = errors.New("invalid youtube link")
	// ErrNoTranscript is returned when a video has no caption track.
	ErrNoTranscript = fmt.Errorf("transcript %w", core.ErrNotFound)

	videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

const captionTracksKey = `"captionTracks":`

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type timedText struct {
	Texts []struct {
		Body string `xml:",chardata"`
	} `xml:"text"`
}

// TranscriptOptions configures a TranscriptReader.
type TranscriptOptions struct {
	WatchURL string
	Language string // preferred caption language, default en
	HTTP     *httpx.Client
	Logger   logging.Logger
}

// TranscriptReader fetches the caption track of a video and returns it as
// plain text.
type TranscriptReader struct {
	watchURL string
	lang     string
	http     *httpx.Client
	logger   logging.Logger
}

// NewTranscriptReader creates a TranscriptReader.
func NewTranscriptReader(optFns ...func(o *TranscriptOptions)) *TranscriptReader {
	opts := TranscriptOptions{WatchURL: DefaultWatchURL, Language: "en"}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.HTTP == nil {
		opts.HTTP = httpx.New()
	}

	return &TranscriptReader{
		watchURL: opts.WatchURL,
		lang:     opts.Language,
		http:     opts.HTTP,
		logger:   logging.OrNoOp(opts.Logger),
	}
}

// Read returns one transcript per readable link. Unreadable videos are
// logged and skipped; an error is returned only when none could be read.
func (r *TranscriptReader) Read(ctx context.Context, links []string) ([]string, error) {
	var (
		out  []string
		errs []error
	)

	for _, link := range links {
		text, err := r.Transcript(ctx, link)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			r.logger.Warn("youtube.transcript.failed", "link", link, "error", err.Error())
			errs = append(errs, err)
			continue
		}
		out = append(out, text)
	}

	if len(out) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return out, nil
}

// Transcript returns the transcript of a single video.
func (r *TranscriptReader) Transcript(ctx context.Context, link string) (string, error) {
	id, err := VideoID(link)
	if err != nil {
		return "", err
	}

	page, err := r.http.Get(ctx, r.watchURL+"?"+url.Values{"v": {id}}.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("fetch video %s: %w", id, err)
	}

	tracks, err := captionTracks(page)
	if err != nil {
		return "", fmt.Errorf("video %s: %w", id, err)
	}

	track := pickTrack(tracks, r.lang)

	raw, err := r.http.Get(ctx, track.BaseURL, nil)
	if err != nil {
		return "", fmt.Errorf("fetch captions of %s: %w", id, err)
	}

	var tt timedText
	if err := xml.NewDecoder(bytes.NewReader(raw)).Decode(&tt); err != nil {
		return "", fmt.Errorf("decode captions of %s: %w", id, err)
	}

	parts := make([]string, 0, len(tt.Texts))
	for _, t := range tt.Texts {
		// Caption bodies are HTML escaped once more inside the XML.
		if s := strings.Join(strings.Fields(html.UnescapeString(t.Body)), " "); s != "" {
			parts = append(parts, s)
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("video %s: %w", id, ErrNoTranscript)
	}

	return strings.Join(parts, " "), nil
}

// VideoID extracts the 11 character video id from a watch, short, embed or
// youtu.be link, or accepts a bare id.
func VideoID(link string) (string, error) {
	link = strings.TrimSpace(link)
	if videoIDRe.MatchString(link) {
		return link, nil
	}

	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidLink, link)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	host = strings.TrimPrefix(host, "m.")

	var id string
	switch {
	case host == "youtu.be":
		id = strings.Trim(u.Path, "/")
	case strings.HasSuffix(host, "youtube.com"):
		if v := u.Query().Get("v"); v != "" {
			id = v
			break
		}
		segs := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(segs) == 2 && (segs[0] == "shorts" || segs[0] == "embed" || segs[0] == "live") {
			id = segs[1]
		}
	}

	if !videoIDRe.MatchString(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLink, link)
	}

	return id, nil
}

func captionTracks(page []byte) ([]captionTrack, error) {
	i := bytes.Index(page, []byte(captionTracksKey))
	if i < 0 {
		return nil, ErrNoTranscript
	}

	var tracks []captionTrack
	if err := json.NewDecoder(bytes.NewReader(page[i+len(captionTracksKey):])).Decode(&tracks); err != nil {
		return nil, fmt.Errorf("decode caption tracks: %w", err)
	}
	if len(tracks) == 0 {
		return nil, ErrNoTranscript
	}

	return tracks, nil
}

// pickTrack prefers a manual track in lang, then an auto-generated one, then
// the first track.
func pickTrack(tracks []captionTrack, lang string) captionTrack {
	var auto *captionTrack
	for i := range tracks {
		t := &tracks[i]
		if !strings.HasPrefix(t.LanguageCode, lang) {
			continue
		}
		if t.Kind != "asr" {
			return *t
		}
		if auto == nil {
			auto = t
		}
	}

	if auto != nil {
		return *auto
	}

	return tracks[0]
}
