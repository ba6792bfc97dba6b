package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/superversivesf/saga-importer/internal/database"
	"github.com/superversivesf/saga-importer/internal/extract"
	"github.com/superversivesf/saga-importer/internal/hints"
	"github.com/superversivesf/saga-importer/internal/images"
	"github.com/superversivesf/saga-importer/internal/logger"
	"github.com/superversivesf/saga-importer/internal/match"
	"github.com/superversivesf/saga-importer/internal/scrape"
)

// Options selects the passes of a run.
type Options struct {
	// Books resolves library books against the catalogue
	Books bool
	// RetryFailedOnly revisits books that were attempted without a match
	// instead of books never attempted
	RetryFailedOnly bool
	// HintFile, when set, resolves the listed books from their given
	// pages instead of searching
	HintFile string
	// Series backfills series descriptions and membership
	Series bool
	// Authors fetches author profiles
	Authors bool
	// Images downloads cover and author images
	Images bool
	// OverwriteSeriesVolume lets a newly seen volume replace a stored one
	OverwriteSeriesVolume bool
	// Limit caps the entities visited per pass; zero means no cap
	Limit int
}

// BookMatcher picks the catalogue entry for a local book.
type BookMatcher interface {
	Match(ctx context.Context, local match.Book) (scrape.Candidate, bool)
}

// PageExtractor fetches and parses catalogue pages.
type PageExtractor interface {
	FetchDetail(ctx context.Context, link string) (*extract.Detail, bool)
	FetchAuthor(ctx context.Context, link string) (*extract.AuthorProfile, bool)
	FetchSeries(ctx context.Context, link string) (*extract.SeriesPage, bool)
}

// ImageFetcher stores an entity's image when it has none yet.
type ImageFetcher interface {
	Store(ctx context.Context, store images.Store, id, url string) (bool, error)
}

// ProgressFunc is told about each entity a pass finishes.
type ProgressFunc func(pass string, done, total int)

// Deps are the collaborators of a run. Matcher and Extractor are needed by
// the book, series and author passes; Images only by the image pass.
type Deps struct {
	Store     Store
	Matcher   BookMatcher
	Extractor PageExtractor
	Images    ImageFetcher
	Log       *logger.Logger
	Progress  ProgressFunc
}

// Report counts what a run did.
type Report struct {
	Books        int
	Resolved     int
	Unresolved   int
	Series       int
	SeriesLinked int
	Authors      int
	ImagesStored int
	Errors       int
}

// ErrMissingDependency is returned when a requested pass lacks a collaborator.
var ErrMissingDependency = errors.New("missing dependency")

// Run executes the passes selected by opts in order: books, series,
// authors, images. Per-entity failures are logged and counted; the run
// only stops early when ctx is done.
func Run(ctx context.Context, deps Deps, opts Options) (Report, error) {
	if err := deps.check(opts); err != nil {
		return Report{}, err
	}
	if deps.Log == nil {
		deps.Log = logger.Get()
	}

	r := &runner{
		deps:   deps,
		opts:   opts,
		merger: NewMerger(deps.Store, opts.OverwriteSeriesVolume, deps.Log),
		log:    deps.Log,
	}

	passes := []struct {
		enabled bool
		run     func(context.Context) error
	}{
		{opts.Books && opts.HintFile != "", r.hintPass},
		{opts.Books && opts.HintFile == "", r.bookPass},
		{opts.Series, r.seriesPass},
		{opts.Authors, r.authorPass},
		{opts.Images, r.imagePass},
	}
	for _, p := range passes {
		if !p.enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			return r.report, err
		}
		if err := p.run(ctx); err != nil {
			return r.report, err
		}
	}

	r.log.Info("Enrichment run finished", map[string]interface{}{
		"books":         r.report.Books,
		"resolved":      r.report.Resolved,
		"unresolved":    r.report.Unresolved,
		"series":        r.report.Series,
		"series_linked": r.report.SeriesLinked,
		"authors":       r.report.Authors,
		"images":        r.report.ImagesStored,
		"errors":        r.report.Errors,
	})
	return r.report, nil
}

func (d Deps) check(opts Options) error {
	if d.Store == nil {
		return fmt.Errorf("%w: store", ErrMissingDependency)
	}
	if opts.Books && opts.HintFile == "" && d.Matcher == nil {
		return fmt.Errorf("%w: matcher", ErrMissingDependency)
	}
	if (opts.Books || opts.Series || opts.Authors) && d.Extractor == nil {
		return fmt.Errorf("%w: extractor", ErrMissingDependency)
	}
	if opts.Images && d.Images == nil {
		return fmt.Errorf("%w: image fetcher", ErrMissingDependency)
	}
	return nil
}

type runner struct {
	deps   Deps
	opts   Options
	merger *Merger
	log    *logger.Logger
	report Report
}

func (r *runner) progress(pass string, done, total int) {
	if r.deps.Progress != nil {
		r.deps.Progress(pass, done, total)
	}
}

func (r *runner) fail(msg string, fields map[string]interface{}, err error) {
	r.report.Errors++
	fields["error"] = err.Error()
	r.log.Warn(msg, fields)
}

func (r *runner) bookPass(ctx context.Context) error {
	filter := database.BookFilter{NotAttempted: !r.opts.RetryFailedOnly, FailedOnly: r.opts.RetryFailedOnly, Limit: r.opts.Limit}
	books, err := r.deps.Store.ListBooks(ctx, filter)
	if err != nil {
		return err
	}
	r.log.Info("Looking up books", map[string]interface{}{"count": len(books), "retry_failed": r.opts.RetryFailedOnly})

	for i := range books {
		if err := ctx.Err(); err != nil {
			return err
		}
		book := &books[i]

		authors, err := r.deps.Store.BookAuthors(ctx, book.ID)
		if err != nil {
			r.fail("Failed to load book authors", map[string]interface{}{"book": book.ID}, err)
			continue
		}
		names := make([]string, 0, len(authors))
		for _, a := range authors {
			names = append(names, a.Name)
		}

		var detail *extract.Detail
		if c, ok := r.deps.Matcher.Match(ctx, match.Book{Title: book.Title, Authors: names}); ok {
			if d, ok := r.deps.Extractor.FetchDetail(ctx, c.Link); ok {
				detail = d
			}
		}
		// an interrupted lookup is not an attempt
		if err := ctx.Err(); err != nil {
			return err
		}

		r.mergeBook(ctx, detail, book)
		r.progress("books", i+1, len(books))
	}
	return nil
}

func (r *runner) hintPass(ctx context.Context) error {
	list, err := hints.Read(r.opts.HintFile)
	if err != nil {
		return err
	}
	if r.opts.Limit > 0 && len(list) > r.opts.Limit {
		list = list[:r.opts.Limit]
	}
	r.log.Info("Resolving books from hints", map[string]interface{}{"count": len(list), "file": r.opts.HintFile})

	for i, h := range list {
		if err := ctx.Err(); err != nil {
			return err
		}

		book, err := r.deps.Store.GetBook(ctx, h.BookID)
		if err != nil {
			r.fail("Hinted book not in library", map[string]interface{}{"book": h.BookID, "title": h.Title}, err)
			continue
		}

		detail, ok := r.deps.Extractor.FetchDetail(ctx, h.Link)
		if err := ctx.Err(); err != nil {
			return err
		}
		if !ok {
			detail = nil
		}

		r.mergeBook(ctx, detail, book)
		r.progress("hints", i+1, len(list))
	}
	return nil
}

func (r *runner) mergeBook(ctx context.Context, detail *extract.Detail, book *database.Book) {
	r.report.Books++
	if detail != nil {
		r.report.Resolved++
	} else {
		r.report.Unresolved++
	}

	if err := r.merger.Merge(ctx, detail, book); err != nil {
		r.fail("Failed to merge book", map[string]interface{}{"book": book.ID, "title": book.Title}, err)
		return
	}
	r.log.Info("Book looked up", map[string]interface{}{
		"title":    book.Title,
		"resolved": detail != nil,
		"link":     book.ExternalLink,
	})
}

func (r *runner) seriesPass(ctx context.Context) error {
	list, err := r.deps.Store.ListSeries(ctx, database.SeriesFilter{WithLink: true, MissingDescription: true, Limit: r.opts.Limit})
	if err != nil {
		return err
	}
	r.log.Info("Backfilling series", map[string]interface{}{"count": len(list)})

	for i := range list {
		if err := ctx.Err(); err != nil {
			return err
		}
		s := &list[i]

		page, ok := r.deps.Extractor.FetchSeries(ctx, s.ExternalLink)
		if !ok {
			r.fail("Series page unreadable", map[string]interface{}{"series": s.Name}, fmt.Errorf("no series data at %s", s.ExternalLink))
			continue
		}

		if page.Description != "" {
			s.Description = page.Description
			if err := r.deps.Store.SaveSeries(ctx, s); err != nil {
				r.fail("Failed to save series", map[string]interface{}{"series": s.Name}, err)
				continue
			}
		}
		r.report.Series++

		for _, sb := range page.Books {
			matches, err := r.deps.Store.BooksByExternalLink(ctx, canonicalLink(sb.Link))
			if err != nil {
				r.fail("Failed to look up series book", map[string]interface{}{"link": sb.Link}, err)
				continue
			}
			// only an unambiguous match is linked
			if len(matches) != 1 {
				continue
			}
			if err := r.deps.Store.LinkSeries(ctx, matches[0].ID, s.ID, sb.Volume, r.opts.OverwriteSeriesVolume); err != nil {
				r.fail("Failed to link series book", map[string]interface{}{"book": matches[0].ID, "series": s.Name}, err)
				continue
			}
			r.report.SeriesLinked++
		}
		r.progress("series", i+1, len(list))
	}
	return nil
}

func (r *runner) authorPass(ctx context.Context) error {
	list, err := r.deps.Store.ListAuthors(ctx, database.AuthorFilter{ExternalOnly: true, MissingProfile: true, Limit: r.opts.Limit})
	if err != nil {
		return err
	}
	r.log.Info("Fetching author profiles", map[string]interface{}{"count": len(list)})

	for i := range list {
		if err := ctx.Err(); err != nil {
			return err
		}
		a := &list[i]

		p, ok := r.deps.Extractor.FetchAuthor(ctx, a.ExternalLink)
		if !ok {
			r.fail("Author page unreadable", map[string]interface{}{"author": a.Name}, fmt.Errorf("no profile at %s", a.ExternalLink))
			continue
		}

		a.Description = p.Description
		a.ImageLink = p.ImageLink
		a.Website = p.Website
		a.Born = p.Born
		a.Died = p.Died
		a.Influences = p.Influences
		a.Genre = p.Genre
		a.Twitter = p.Twitter
		if err := r.deps.Store.SaveAuthor(ctx, a); err != nil {
			r.fail("Failed to save author", map[string]interface{}{"author": a.Name}, err)
			continue
		}
		r.report.Authors++
		r.progress("authors", i+1, len(list))
	}
	return nil
}

func (r *runner) imagePass(ctx context.Context) error {
	books, err := r.deps.Store.ListBooks(ctx, database.BookFilter{Limit: r.opts.Limit})
	if err != nil {
		return err
	}
	authors, err := r.deps.Store.ListAuthors(ctx, database.AuthorFilter{ExternalOnly: true, Limit: r.opts.Limit})
	if err != nil {
		return err
	}

	type target struct{ id, url string }
	var targets []target
	for _, b := range books {
		if b.CoverImageLink != "" {
			targets = append(targets, target{b.ID, b.CoverImageLink})
		}
	}
	for _, a := range authors {
		if a.ImageLink != "" {
			targets = append(targets, target{a.ID, a.ImageLink})
		}
	}
	r.log.Info("Downloading images", map[string]interface{}{"count": len(targets)})

	for i, t := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		stored, err := r.deps.Images.Store(ctx, r.deps.Store, t.id, t.url)
		if err != nil {
			r.fail("Failed to download image", map[string]interface{}{"id": t.id, "url": t.url}, err)
			continue
		}
		if stored {
			r.report.ImagesStored++
		}
		r.progress("images", i+1, len(targets))
	}
	return nil
}

// canonicalLink drops the query string, as book links are stored without one.
func canonicalLink(link string) string {
	return strings.TrimSpace(strings.SplitN(link, "?", 2)[0])
}
