package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/net/html"
)

// ErrThrottled marks a response telling the client to slow down.
var ErrThrottled = errors.New("throttled by external source")

// Loader loads and parses one page. It returns an error on any transport
// or HTTP failure.
type Loader interface {
	Load(ctx context.Context, url string) (*html.Node, error)
}

// HTTPLoader is a Loader over net/http.
type HTTPLoader struct {
	client    *http.Client
	userAgent string
}

// NewHTTPLoader creates a loader with the given request timeout and
// User-Agent header.
func NewHTTPLoader(timeout time.Duration, userAgent string) *HTTPLoader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPLoader{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Client exposes the underlying HTTP client for callers that fetch
// non-HTML resources with the same settings.
func (l *HTTPLoader) Client() *http.Client {
	return l.client
}

// Load fetches url and parses the body as HTML.
func (l *HTTPLoader) Load(ctx context.Context, url string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return nil, fmt.Errorf("%w: HTTP %d", ErrThrottled, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}
