package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/superversivesf/saga-importer/internal/database"
	"github.com/superversivesf/saga-importer/internal/extract"
	"github.com/superversivesf/saga-importer/internal/keys"
	"github.com/superversivesf/saga-importer/internal/logger"
)

// Merger writes extracted records into the store.
type Merger struct {
	store     Store
	overwrite bool
	log       *logger.Logger
}

// NewMerger creates a Merger. overwriteVolume lets a new series volume
// replace one already stored.
func NewMerger(store Store, overwriteVolume bool, log *logger.Logger) *Merger {
	if log == nil {
		log = logger.Get()
	}
	return &Merger{store: store, overwrite: overwriteVolume, log: log}
}

// Merge applies d to book and marks the book attempted. A nil d records a
// failed lookup. The sub-steps run independently; their errors are
// combined.
func (m *Merger) Merge(ctx context.Context, d *extract.Detail, book *database.Book) error {
	var err error
	if d != nil {
		err = multierr.Combine(
			m.MergeGenres(ctx, d, book),
			m.MergeSeries(ctx, d, book),
			m.MergeAuthors(ctx, d, book),
		)
	}
	return multierr.Append(err, m.MergeBook(ctx, d, book))
}

// MergeGenres creates each genre once and tags the book with it.
func (m *Merger) MergeGenres(ctx context.Context, d *extract.Detail, book *database.Book) error {
	for _, name := range d.Genres {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		g := &database.Genre{ID: keys.GenreKey(name), Name: name}
		if err := m.store.SaveGenre(ctx, g); err != nil {
			return err
		}
		if err := m.store.LinkGenre(ctx, book.ID, g.ID); err != nil {
			return err
		}
	}
	return nil
}

// MergeSeries creates the series on first sight and places the book in it.
// An existing series only gains a link it was missing.
func (m *Merger) MergeSeries(ctx context.Context, d *extract.Detail, book *database.Book) error {
	if d.SeriesTitle == "" {
		return nil
	}

	id := keys.SeriesKey(d.SeriesTitle)
	s, err := m.store.GetSeries(ctx, id)
	switch {
	case errors.Is(err, database.ErrNotFound):
		s = &database.Series{ID: id, Name: d.SeriesTitle, ExternalLink: d.SeriesLink}
		if err := m.store.SaveSeries(ctx, s); err != nil {
			return err
		}
	case err != nil:
		return err
	case s.ExternalLink == "" && d.SeriesLink != "":
		s.ExternalLink = d.SeriesLink
		if err := m.store.SaveSeries(ctx, s); err != nil {
			return err
		}
	}

	return m.store.LinkSeries(ctx, book.ID, id, d.SeriesVolume, m.overwrite)
}

// MergeAuthors confirms each credited author as externally sourced and
// links it to the book in its role.
func (m *Merger) MergeAuthors(ctx context.Context, d *extract.Detail, book *database.Book) error {
	for _, c := range d.Authors {
		id := keys.AuthorKey(c.Name)

		a, err := m.store.GetAuthor(ctx, id)
		switch {
		case errors.Is(err, database.ErrNotFound):
			a = &database.Author{ID: id, Name: c.Name}
		case err != nil:
			return err
		}
		a.External = true
		if c.Link != "" {
			a.ExternalLink = c.Link
		}
		if err := m.store.SaveAuthor(ctx, a); err != nil {
			return err
		}

		if err := m.store.LinkAuthor(ctx, book.ID, id, string(c.Role)); err != nil {
			return err
		}
	}
	return nil
}

// MergeBook copies the external fields onto the book and marks it
// attempted, whether or not d is nil.
func (m *Merger) MergeBook(ctx context.Context, d *extract.Detail, book *database.Book) error {
	if d != nil {
		book.ExternalTitle = d.Title
		book.Description = d.Description
		book.ExternalLink = d.Link
		book.CoverImageLink = d.CoverImageLink
		if err := m.store.SaveBook(ctx, book); err != nil {
			return err
		}
	}

	if err := m.store.MarkFetchAttempted(ctx, book.ID); err != nil {
		return fmt.Errorf("book %s: %w", book.ID, err)
	}
	book.FetchAttempted = true

	m.log.Debug("Merged book", map[string]interface{}{
		"book":     book.ID,
		"resolved": d != nil,
	})
	return nil
}
