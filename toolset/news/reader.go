package news

import (
	"context"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/hupe1980/campaignmesh/internal/httpx"
	"github.com/hupe1980/campaignmesh/logging"
)

// DefaultMaxArticleChars bounds the text returned per article.
const DefaultMaxArticleChars = 20000

// boilerplate is removed before the article body is located.
const boilerplate = "script, style, noscript, nav, header, footer, aside, form, iframe, svg"

// ReaderOptions configures an ArticleReader.
type ReaderOptions struct {
	MaxChars int
	HTTP     *httpx.Client
	Logger   logging.Logger
}

// ArticleReader crawls article pages and returns their main text as Markdown.
type ArticleReader struct {
	http     *httpx.Client
	maxChars int
	logger   logging.Logger
}

// NewArticleReader creates an ArticleReader.
func NewArticleReader(optFns ...func(o *ReaderOptions)) *ArticleReader {
	opts := ReaderOptions{MaxChars: DefaultMaxArticleChars}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.HTTP == nil {
		opts.HTTP = httpx.New()
	}

	return &ArticleReader{http: opts.HTTP, maxChars: opts.MaxChars, logger: logging.OrNoOp(opts.Logger)}
}

// Read returns the text of every article that could be fetched and parsed.
// Failed or empty pages are skipped.
func (r *ArticleReader) Read(ctx context.Context, urls []string) ([]string, error) {
	texts := make([]string, 0, len(urls))

	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return texts, err
		}

		text, err := r.readOne(u)
		if err != nil {
			r.logger.Warn("news.article.read_failed", "url", u, "error", err.Error())
			continue
		}
		if text == "" {
			continue
		}

		texts = append(texts, text)
	}

	return texts, nil
}

func (r *ArticleReader) readOne(u string) (string, error) {
	c := colly.NewCollector(colly.AllowURLRevisit())
	c.SetClient(r.http.HTTP())

	var (
		text    string
		convErr error
	)

	c.OnHTML("html", func(e *colly.HTMLElement) {
		text, convErr = articleMarkdown(e.DOM)
	})

	if err := c.Visit(u); err != nil {
		return "", fmt.Errorf("visit %s: %w", u, err)
	}
	if convErr != nil {
		return "", convErr
	}

	if r.maxChars > 0 && len(text) > r.maxChars {
		text = text[:r.maxChars] + "\n\n[Content truncated]"
	}

	return text, nil
}

// articleMarkdown picks the main content of a page (article, main or body)
// and converts it to Markdown headed by the page title.
func articleMarkdown(doc *goquery.Selection) (string, error) {
	title := strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find(boilerplate).Remove()

	body := doc.Find("article").First()
	if body.Length() == 0 {
		body = doc.Find("main").First()
	}
	if body.Length() == 0 {
		body = doc.Find("body").First()
	}
	if body.Length() == 0 {
		return "", nil
	}

	html, err := goquery.OuterHtml(body)
	if err != nil {
		return "", fmt.Errorf("render article html: %w", err)
	}

	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("convert article to markdown: %w", err)
	}

	md = strings.TrimSpace(md)
	if md == "" {
		return "", nil
	}

	if title != "" {
		md = "# " + title + "\n\n" + md
	}

	return md, nil
}
