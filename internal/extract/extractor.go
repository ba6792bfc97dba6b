package extract

import (
	"context"

	"golang.org/x/net/html"

	"github.com/superversivesf/saga-importer/internal/logger"
)

// DefaultDetailRetries bounds how often a book page is refetched while its
// content regions are missing.
const DefaultDetailRetries = 20

// Source is the page provider the Extractor reads from.
type Source interface {
	Query(ctx context.Context, url string) (*html.Node, error)
	// Invalidate forgets any cached copy of url
	Invalidate(url string)
}

// Extractor fetches and parses detail pages.
type Extractor struct {
	src     Source
	retries int
	log     *logger.Logger
}

// NewExtractor creates an Extractor. Non-positive retries use the default.
func NewExtractor(src Source, retries int, log *logger.Logger) *Extractor {
	if retries <= 0 {
		retries = DefaultDetailRetries
	}
	if log == nil {
		log = logger.Get()
	}
	return &Extractor{src: src, retries: retries, log: log}
}

// FetchDetail loads the book page at link, refetching while the page lacks
// its content regions, and parses it.
func (e *Extractor) FetchDetail(ctx context.Context, link string) (*Detail, bool) {
	for attempt := 1; attempt <= e.retries; attempt++ {
		doc, err := e.src.Query(ctx, link)
		if ctx.Err() != nil {
			return nil, false
		}
		if err == nil {
			if d, ok := Extract(doc, link); ok {
				return d, true
			}
		}

		e.src.Invalidate(link)
		e.log.Debug("Book page incomplete, refetching", map[string]interface{}{
			"link":    link,
			"attempt": attempt,
		})
	}

	e.log.Warn("Book page never loaded completely", map[string]interface{}{
		"link":     link,
		"attempts": e.retries,
	})
	return nil, false
}

// FetchAuthor loads and parses an author page.
func (e *Extractor) FetchAuthor(ctx context.Context, link string) (*AuthorProfile, bool) {
	doc, err := e.src.Query(ctx, link)
	if err != nil {
		e.log.Warn("Failed to load author page", map[string]interface{}{"link": link, "error": err.Error()})
		return nil, false
	}
	return ExtractAuthor(doc)
}

// FetchSeries loads and parses a series page.
func (e *Extractor) FetchSeries(ctx context.Context, link string) (*SeriesPage, bool) {
	doc, err := e.src.Query(ctx, link)
	if err != nil {
		e.log.Warn("Failed to load series page", map[string]interface{}{"link": link, "error": err.Error()})
		return nil, false
	}
	return ExtractSeries(doc, link)
}
