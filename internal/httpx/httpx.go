// Package httpx provides the outbound HTTP client shared by the external
// toolsets: a token-bucket rate limit, a fixed User-Agent, request logging
// and small JSON helpers.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/logging"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "campaignmesh/1.0"

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

// Options configures a Client.
type Options struct {
	Timeout       time.Duration // default 30s
	RatePerSecond float64       // 0 disables limiting
	Burst         int           // default 1
	UserAgent     string
	Transport     http.RoundTripper
	Logger        logging.Logger
}

// Client is a rate limited HTTP client. It is safe for concurrent use.
type Client struct {
	http *http.Client
}

// New creates a Client.
func New(optFns ...func(o *Options)) *Client {
	opts := Options{
		Timeout:   30 * time.Second,
		Burst:     1,
		UserAgent: DefaultUserAgent,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	var limiter *rate.Limiter
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}

	return &Client{
		http: &http.Client{
			Timeout: opts.Timeout,
			Transport: &transport{
				base:      base,
				limiter:   limiter,
				userAgent: opts.UserAgent,
				logger:    logging.OrNoOp(opts.Logger),
			},
		},
	}
}

// HTTP returns the underlying *http.Client so other libraries (crawlers)
// share the same limits.
func (c *Client) HTTP() *http.Client { return c.http }

// Do sends req.
func (c *Client) Do(req *http.Request) (*http.Response, error) { return c.http.Do(req) }

// Get fetches url and returns the body of a 2xx response.
func (c *Client) Get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	return c.send(ctx, http.MethodGet, url, header, nil)
}

// GetJSON fetches url and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, url string, header http.Header, out any) error {
	body, err := c.send(ctx, http.MethodGet, url, header, nil)
	if err != nil {
		return err
	}
	return decode(url, body, out)
}

// SendJSON encodes in (when non-nil) as the request body and decodes the
// response into out (when non-nil).
func (c *Client) SendJSON(ctx context.Context, method, url string, header http.Header, in, out any) error {
	var payload io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(raw)
		if header == nil {
			header = http.Header{}
		}
		header.Set("Content-Type", "application/json")
	}

	body, err := c.send(ctx, method, url, header, payload)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return decode(url, body, out)
}

func (c *Client) send(ctx context.Context, method, url string, header http.Header, payload io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(body)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, &StatusError{Method: method, URL: req.URL.Redacted(), StatusCode: resp.StatusCode, Body: msg}
	}

	return body, nil
}

func decode(url string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}

// StatusError is returned for non-2xx responses. A 404 unwraps to
// core.ErrNotFound.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Unwrap maps 404 to core.ErrNotFound.
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return core.ErrNotFound
	}
	return nil
}

type transport struct {
	base      http.RoundTripper
	limiter   *rate.Limiter
	userAgent string
	logger    logging.Logger
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	if req.Header.Get("User-Agent") == "" && t.userAgent != "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)

	fields := []any{"method", req.Method, "host", req.URL.Host, "path", req.URL.Path, "duration_ms", time.Since(start).Milliseconds()}
	if err != nil {
		t.logger.Warn("http.request", append(fields, "error", err.Error())...)
		return nil, err
	}

	t.logger.Debug("http.request", append(fields, "status", resp.StatusCode)...)

	return resp, nil
}
