package enrich

import (
	"context"
	"errors"

	"github.com/superversivesf/saga-importer/internal/database"
	"github.com/superversivesf/saga-importer/internal/extract"
	"github.com/superversivesf/saga-importer/internal/keys"
	"github.com/superversivesf/saga-importer/internal/logger"
	"github.com/superversivesf/saga-importer/internal/normalize"
)

// Tags are the raw tag values read from one audiobook.
type Tags struct {
	// Album carries the book title
	Album        string
	AlbumArtists []string
	// Artists is consulted when AlbumArtists yields no author
	Artists  []string
	Location string
}

// Importer turns raw tag values into library books and authors, keyed so
// that re-importing the same book finds the existing rows.
type Importer struct {
	store Store
	log   *logger.Logger
}

// NewImporter creates an Importer over store.
func NewImporter(store Store, log *logger.Logger) *Importer {
	if log == nil {
		log = logger.Get()
	}
	return &Importer{store: store, log: log}
}

// Import records the book described by t. It reports whether the book was
// new. Existing authors and books are left untouched.
func (im *Importer) Import(ctx context.Context, t Tags) (*database.Book, bool, error) {
	names := normalize.SplitAuthors(t.AlbumArtists...)
	if len(names) == 0 {
		names = normalize.SplitAuthors(t.Artists...)
	}

	authorIDs := make([]string, 0, len(names))
	for _, name := range names {
		id := keys.AuthorKey(name)
		_, err := im.store.GetAuthor(ctx, id)
		switch {
		case errors.Is(err, database.ErrNotFound):
			if err := im.store.SaveAuthor(ctx, &database.Author{ID: id, Name: name}); err != nil {
				return nil, false, err
			}
		case err != nil:
			return nil, false, err
		}
		authorIDs = append(authorIDs, id)
	}

	title := normalize.CleanTitle(t.Album)
	id := keys.BookKey(title, authorIDs)

	existing, err := im.store.GetBook(ctx, id)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, false, err
	}

	book := &database.Book{ID: id, Title: title, Location: t.Location}
	if err := im.store.SaveBook(ctx, book); err != nil {
		return nil, false, err
	}
	for _, aid := range authorIDs {
		if err := im.store.LinkAuthor(ctx, id, aid, string(extract.RoleUnknown)); err != nil {
			return nil, false, err
		}
	}

	im.log.Info("Imported book", map[string]interface{}{
		"title":   title,
		"authors": names,
	})
	return book, true, nil
}
