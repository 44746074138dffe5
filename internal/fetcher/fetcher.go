package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultUserAgent is sent when no override is configured.
const DefaultUserAgent = "Mozilla/5.0 (compatible; RSSFetcher/1.0; +https://example.com)"

// maxBodyBytes caps how much of a document is read.
const maxBodyBytes = 8 << 20

var (
	// ErrStatus is wrapped by Fetch when the server answers with a non-2xx status.
	ErrStatus = errors.New("unexpected status")
	// ErrTooManyRedirects is wrapped by Fetch when the redirect cap is exceeded.
	ErrTooManyRedirects = errors.New("too many redirects")
)

// Options configures a Fetcher.
type Options struct {
	// UserAgent defaults to DefaultUserAgent.
	UserAgent string
	// MaxRedirects caps followed redirects; zero disables following them.
	MaxRedirects int
	// RequestsPerSecond throttles all outbound requests. 0 means unlimited.
	RequestsPerSecond float64
	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// Fetcher performs single bounded-time HTTP GETs and returns raw documents.
// It is safe for concurrent use.
type Fetcher struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// New returns a Fetcher configured by opts.
func New(opts Options, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	maxRedirects := opts.MaxRedirects
	client := &http.Client{
		Transport: opts.Transport,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("%w: stopped after %d", ErrTooManyRedirects, maxRedirects)
			}
			return nil
		},
	}

	return &Fetcher{
		client:    client,
		userAgent: opts.UserAgent,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
	}
}

// Fetch downloads url and returns its body. The request is bounded by
// timeout in addition to any deadline already carried by ctx.
// It fails on network errors, non-2xx responses and timeouts; it never retries.
func (f *Fetcher) Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("fetch %s: wait: %w", url, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: new request: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("fetch %s: %w: %d", url, ErrStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", url, err)
	}

	f.logger.Debug("document fetched",
		"url", url,
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", time.Since(start),
	)
	return body, nil
}
