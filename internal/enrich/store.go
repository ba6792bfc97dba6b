// Package enrich resolves library books against the external catalogue and
// merges what it finds into the store.
//
// A run walks books, series and authors one entity at a time. Every merge
// step is an idempotent upsert, so an interrupted run is resumed by running
// again: books already marked attempted are skipped unless a retry pass is
// requested.
package enrich

import (
	"context"

	"github.com/superversivesf/saga-importer/internal/database"
)

// Store is the persistence the enrichment pipeline needs.
// *database.Repository satisfies it.
type Store interface {
	GetBook(ctx context.Context, id string) (*database.Book, error)
	SaveBook(ctx context.Context, b *database.Book) error
	MarkFetchAttempted(ctx context.Context, id string) error
	ListBooks(ctx context.Context, f database.BookFilter) ([]database.Book, error)
	BooksByExternalLink(ctx context.Context, link string) ([]database.Book, error)
	BookAuthors(ctx context.Context, bookID string) ([]database.Author, error)

	GetAuthor(ctx context.Context, id string) (*database.Author, error)
	SaveAuthor(ctx context.Context, a *database.Author) error
	ListAuthors(ctx context.Context, f database.AuthorFilter) ([]database.Author, error)

	GetSeries(ctx context.Context, id string) (*database.Series, error)
	SaveSeries(ctx context.Context, s *database.Series) error
	ListSeries(ctx context.Context, f database.SeriesFilter) ([]database.Series, error)

	SaveGenre(ctx context.Context, g *database.Genre) error

	LinkAuthor(ctx context.Context, bookID, authorID, role string) error
	LinkSeries(ctx context.Context, bookID, seriesID, volume string, overwrite bool) error
	LinkGenre(ctx context.Context, bookID, genreID string) error

	GetImage(ctx context.Context, id string) (*database.Image, error)
	SaveImage(ctx context.Context, img *database.Image) error
}

var _ Store = (*database.Repository)(nil)
