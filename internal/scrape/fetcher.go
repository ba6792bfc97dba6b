// Package scrape queries the external catalogue: it paces and retries page
// loads and turns search result pages into candidate records.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/net/html"

	"github.com/superversivesf/saga-importer/internal/cache"
	"github.com/superversivesf/saga-importer/internal/logger"
	"github.com/superversivesf/saga-importer/internal/util"
)

// DefaultMaxAttempts bounds how often a single URL is tried.
const DefaultMaxAttempts = 5

// recoverAfter is the number of consecutive successes that restore the
// pacer's window after a backoff.
const recoverAfter = 10

// ErrFetchFailed is returned once every attempt at a URL has failed.
var ErrFetchFailed = errors.New("fetch failed")

// Querier returns the parsed page at url.
type Querier interface {
	Query(ctx context.Context, url string) (*html.Node, error)
}

// Fetcher wraps a Loader with a randomized delay before every attempt, a
// bounded retry loop and an in-memory page cache. It is not safe for
// concurrent use.
type Fetcher struct {
	loader      Loader
	pacer       *util.Pacer
	cache       cache.Cache[string, *html.Node]
	maxAttempts int
	log         *logger.Logger

	successes int
	backedOff bool
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithMaxAttempts sets the retry bound.
func WithMaxAttempts(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// WithCache enables page caching with the given TTL. A non-positive TTL
// disables caching.
func WithCache(ttl time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if ttl > 0 {
			f.cache = cache.WithTTL(cache.NewMemoryCache[string, *html.Node](f.log), ttl)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) FetcherOption {
	return func(f *Fetcher) {
		if log != nil {
			f.log = log
		}
	}
}

// NewFetcher creates a Fetcher. A nil pacer uses the default delay window.
func NewFetcher(loader Loader, pacer *util.Pacer, opts ...FetcherOption) *Fetcher {
	if pacer == nil {
		pacer = util.NewPacer(0, 0)
	}
	f := &Fetcher{
		loader:      loader,
		pacer:       pacer,
		maxAttempts: DefaultMaxAttempts,
		log:         logger.Get(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Query loads url, sleeping a randomized interval before each attempt and
// retrying transport failures up to the attempt bound. It returns an error
// wrapping ErrFetchFailed when every attempt failed, or the context error
// when ctx is cancelled.
func (f *Fetcher) Query(ctx context.Context, url string) (*html.Node, error) {
	if f.cache != nil {
		if doc, ok := f.cache.Get(url); ok {
			return doc, nil
		}
	}

	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if err := f.pacer.Wait(ctx); err != nil {
			return nil, err
		}

		doc, err := f.loader.Load(ctx, url)
		if err == nil {
			f.recordSuccess()
			if f.cache != nil {
				f.cache.Set(url, doc, 0)
			}
			return doc, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		if errors.Is(err, ErrThrottled) {
			f.pacer.Backoff()
			f.backedOff = true
			f.successes = 0
		}
		f.log.Debug("Page load failed", map[string]interface{}{
			"url":     url,
			"attempt": attempt,
			"error":   err.Error(),
		})
	}

	f.log.Warn("Giving up on page", map[string]interface{}{
		"url":      url,
		"attempts": f.maxAttempts,
		"error":    lastErr.Error(),
	})
	return nil, fmt.Errorf("%w: %s after %d attempts: %v", ErrFetchFailed, url, f.maxAttempts, lastErr)
}

// Invalidate drops url from the page cache so the next Query reloads it.
func (f *Fetcher) Invalidate(url string) {
	if f.cache != nil {
		f.cache.Delete(url)
	}
}

func (f *Fetcher) recordSuccess() {
	if !f.backedOff {
		return
	}
	f.successes++
	if f.successes >= recoverAfter {
		f.pacer.Reset()
		f.backedOff = false
		f.successes = 0
	}
}
