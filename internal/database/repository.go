package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/superversivesf/saga-importer/internal/logger"
)

// ErrNotFound is returned when a lookup by key matches no row
var ErrNotFound = errors.New("record not found")

// Repository provides store operations for the library entities
type Repository struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewRepository creates a new repository instance
func NewRepository(db *Database, log *logger.Logger) *Repository {
	if log == nil {
		log = logger.Get()
	}
	return &Repository{db: db.GetDB(), logger: log}
}

// BookFilter selects books for a lookup run
type BookFilter struct {
	// NotAttempted keeps books that were never looked up
	NotAttempted bool
	// FailedOnly keeps books that were looked up without finding a record
	FailedOnly bool
	Limit      int
}

// AuthorFilter selects authors for a profile pass
type AuthorFilter struct {
	// ExternalOnly keeps authors confirmed by the external source with a link
	ExternalOnly bool
	// MissingProfile keeps authors without a description
	MissingProfile bool
	Limit          int
}

// SeriesFilter selects series for a backfill pass
type SeriesFilter struct {
	WithLink           bool
	MissingDescription bool
	Limit              int
}

// Stats summarises the store for reporting
type Stats struct {
	Books        int64
	Authors      int64
	Series       int64
	Genres       int64
	Failed       int64
	NotAttempted int64
}

// MissPercent is the share of attempted books that found no record
func (s Stats) MissPercent() float64 {
	attempted := s.Books - s.NotAttempted
	if attempted <= 0 {
		return 0
	}
	return float64(s.Failed) / float64(attempted) * 100
}

func (r *Repository) tx(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s %s: %w", what, id, err)
}

func upsert(db *gorm.DB, value interface{}) error {
	return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(value).Error
}

// GetBook returns the book with the given key
func (r *Repository) GetBook(ctx context.Context, id string) (*Book, error) {
	var b Book
	if err := r.tx(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "book", id)
	}
	return &b, nil
}

// bookColumns are overwritten when an existing book is saved again.
// fetch_attempted is left out so a save can never clear the flag.
var bookColumns = []string{"title", "external_title", "description", "external_link", "cover_image_link", "location", "updated_at"}

// SaveBook inserts the book or overwrites the existing row. The
// fetch-attempted flag only changes through MarkFetchAttempted.
func (r *Repository) SaveBook(ctx context.Context, b *Book) error {
	err := r.tx(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(bookColumns),
	}).Create(b).Error
	if err != nil {
		return fmt.Errorf("failed to save book %s: %w", b.ID, err)
	}
	return nil
}

// MarkFetchAttempted sets the fetch-attempted flag. The flag is never cleared.
func (r *Repository) MarkFetchAttempted(ctx context.Context, id string) error {
	err := r.tx(ctx).Model(&Book{}).Where("id = ?", id).Update("fetch_attempted", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark book %s attempted: %w", id, err)
	}
	return nil
}

// ListBooks returns books ordered by title
func (r *Repository) ListBooks(ctx context.Context, f BookFilter) ([]Book, error) {
	q := r.tx(ctx).Model(&Book{})
	if f.NotAttempted {
		q = q.Where("fetch_attempted = ?", false)
	}
	if f.FailedOnly {
		q = q.Where("fetch_attempted = ?", true).Where("external_link = '' OR external_link IS NULL")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var books []Book
	if err := q.Order("title").Find(&books).Error; err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// BooksByExternalLink returns books resolved to the given external link
func (r *Repository) BooksByExternalLink(ctx context.Context, link string) ([]Book, error) {
	var books []Book
	if err := r.tx(ctx).Where("external_link = ?", link).Find(&books).Error; err != nil {
		return nil, fmt.Errorf("failed to find books by link: %w", err)
	}
	return books, nil
}

// BooksByAuthor returns books the author is credited on
func (r *Repository) BooksByAuthor(ctx context.Context, authorID string) ([]Book, error) {
	return r.booksJoined(ctx, "author_links", "author_id", authorID)
}

// BooksBySeries returns books in the series
func (r *Repository) BooksBySeries(ctx context.Context, seriesID string) ([]Book, error) {
	return r.booksJoined(ctx, "series_links", "series_id", seriesID)
}

// BooksByGenre returns books tagged with the genre
func (r *Repository) BooksByGenre(ctx context.Context, genreID string) ([]Book, error) {
	return r.booksJoined(ctx, "genre_links", "genre_id", genreID)
}

func (r *Repository) booksJoined(ctx context.Context, table, column, id string) ([]Book, error) {
	var books []Book
	err := r.tx(ctx).
		Joins(fmt.Sprintf("JOIN %s ON %s.book_id = books.id", table, table)).
		Where(fmt.Sprintf("%s.%s = ?", table, column), id).
		Order("books.title").
		Find(&books).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list books by %s: %w", column, err)
	}
	return books, nil
}

// BookAuthors returns the authors linked to a book
func (r *Repository) BookAuthors(ctx context.Context, bookID string) ([]Author, error) {
	var authors []Author
	err := r.tx(ctx).
		Joins("JOIN author_links ON author_links.author_id = authors.id").
		Where("author_links.book_id = ?", bookID).
		Order("authors.name").
		Find(&authors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list authors of book %s: %w", bookID, err)
	}
	return authors, nil
}

// GetAuthor returns the author with the given key
func (r *Repository) GetAuthor(ctx context.Context, id string) (*Author, error) {
	var a Author
	if err := r.tx(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "author", id)
	}
	return &a, nil
}

// SaveAuthor inserts or overwrites an author
func (r *Repository) SaveAuthor(ctx context.Context, a *Author) error {
	if err := upsert(r.tx(ctx), a); err != nil {
		return fmt.Errorf("failed to save author %s: %w", a.ID, err)
	}
	return nil
}

// ListAuthors returns authors ordered by name
func (r *Repository) ListAuthors(ctx context.Context, f AuthorFilter) ([]Author, error) {
	q := r.tx(ctx).Model(&Author{})
	if f.ExternalOnly {
		q = q.Where("external = ?", true).Where("external_link <> ''")
	}
	if f.MissingProfile {
		q = q.Where("description = '' OR description IS NULL")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var authors []Author
	if err := q.Order("name").Find(&authors).Error; err != nil {
		return nil, fmt.Errorf("failed to list authors: %w", err)
	}
	return authors, nil
}

// GetSeries returns the series with the given key
func (r *Repository) GetSeries(ctx context.Context, id string) (*Series, error) {
	var s Series
	if err := r.tx(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "series", id)
	}
	return &s, nil
}

// SaveSeries inserts or overwrites a series
func (r *Repository) SaveSeries(ctx context.Context, s *Series) error {
	if err := upsert(r.tx(ctx), s); err != nil {
		return fmt.Errorf("failed to save series %s: %w", s.ID, err)
	}
	return nil
}

// ListSeries returns series ordered by name
func (r *Repository) ListSeries(ctx context.Context, f SeriesFilter) ([]Series, error) {
	q := r.tx(ctx).Model(&Series{})
	if f.WithLink {
		q = q.Where("external_link <> ''")
	}
	if f.MissingDescription {
		q = q.Where("description = '' OR description IS NULL")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var series []Series
	if err := q.Order("name").Find(&series).Error; err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}
	return series, nil
}

// GetGenre returns the genre with the given key
func (r *Repository) GetGenre(ctx context.Context, id string) (*Genre, error) {
	var g Genre
	if err := r.tx(ctx).First(&g, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "genre", id)
	}
	return &g, nil
}

// SaveGenre inserts a genre; an existing row keeps its display name
func (r *Repository) SaveGenre(ctx context.Context, g *Genre) error {
	if err := r.tx(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(g).Error; err != nil {
		return fmt.Errorf("failed to save genre %s: %w", g.ID, err)
	}
	return nil
}

// ListGenres returns every genre ordered by name
func (r *Repository) ListGenres(ctx context.Context) ([]Genre, error) {
	var genres []Genre
	if err := r.tx(ctx).Order("name").Find(&genres).Error; err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	return genres, nil
}

// LinkAuthor credits the author on the book; an existing link takes the new role
func (r *Repository) LinkAuthor(ctx context.Context, bookID, authorID, role string) error {
	link := AuthorLink{BookID: bookID, AuthorID: authorID, Role: role}
	err := r.tx(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "book_id"}, {Name: "author_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(&link).Error
	if err != nil {
		return fmt.Errorf("failed to link author %s to book %s: %w", authorID, bookID, err)
	}
	return nil
}

// LinkSeries places the book in the series. An existing non-empty volume is
// kept unless overwrite is set; an empty incoming volume never clears one.
func (r *Repository) LinkSeries(ctx context.Context, bookID, seriesID, volume string, overwrite bool) error {
	return r.tx(ctx).Transaction(func(tx *gorm.DB) error {
		var existing SeriesLink
		err := tx.First(&existing, "book_id = ? AND series_id = ?", bookID, seriesID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			link := SeriesLink{BookID: bookID, SeriesID: seriesID, Volume: volume}
			if err := tx.Create(&link).Error; err != nil {
				return fmt.Errorf("failed to link series %s to book %s: %w", seriesID, bookID, err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("failed to read series link: %w", err)
		}

		if volume == "" || volume == existing.Volume {
			return nil
		}
		if existing.Volume != "" && !overwrite {
			return nil
		}
		return tx.Model(&SeriesLink{}).
			Where("book_id = ? AND series_id = ?", bookID, seriesID).
			Update("volume", volume).Error
	})
}

// LinkGenre tags the book with the genre; repeated calls are no-ops
func (r *Repository) LinkGenre(ctx context.Context, bookID, genreID string) error {
	link := GenreLink{BookID: bookID, GenreID: genreID}
	if err := r.tx(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
		return fmt.Errorf("failed to link genre %s to book %s: %w", genreID, bookID, err)
	}
	return nil
}

// AuthorLinks returns the author credits of a book
func (r *Repository) AuthorLinks(ctx context.Context, bookID string) ([]AuthorLink, error) {
	var links []AuthorLink
	if err := r.tx(ctx).Where("book_id = ?", bookID).Order("author_id").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to list author links: %w", err)
	}
	return links, nil
}

// SeriesLinks returns the series placements of a book
func (r *Repository) SeriesLinks(ctx context.Context, bookID string) ([]SeriesLink, error) {
	var links []SeriesLink
	if err := r.tx(ctx).Where("book_id = ?", bookID).Order("series_id").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to list series links: %w", err)
	}
	return links, nil
}

// GenreLinks returns the genre tags of a book
func (r *Repository) GenreLinks(ctx context.Context, bookID string) ([]GenreLink, error) {
	var links []GenreLink
	if err := r.tx(ctx).Where("book_id = ?", bookID).Order("genre_id").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to list genre links: %w", err)
	}
	return links, nil
}

// GetImage returns the image stored for an entity key
func (r *Repository) GetImage(ctx context.Context, id string) (*Image, error) {
	var img Image
	if err := r.tx(ctx).First(&img, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "image", id)
	}
	return &img, nil
}

// SaveImage inserts or replaces an entity's image
func (r *Repository) SaveImage(ctx context.Context, img *Image) error {
	if err := upsert(r.tx(ctx), img); err != nil {
		return fmt.Errorf("failed to save image %s: %w", img.ID, err)
	}
	return nil
}

// Stats counts entities and lookup outcomes
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	db := r.tx(ctx)

	counts := []struct {
		model interface{}
		dst   *int64
		where []interface{}
	}{
		{&Book{}, &s.Books, nil},
		{&Author{}, &s.Authors, nil},
		{&Series{}, &s.Series, nil},
		{&Genre{}, &s.Genres, nil},
		{&Book{}, &s.NotAttempted, []interface{}{"fetch_attempted = ?", false}},
		{&Book{}, &s.Failed, []interface{}{"fetch_attempted = ? AND (external_link = '' OR external_link IS NULL)", true}},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if len(c.where) > 0 {
			q = q.Where(c.where[0], c.where[1:]...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return Stats{}, fmt.Errorf("failed to count: %w", err)
		}
	}

	r.logger.Debug("Computed store statistics", map[string]interface{}{
		"books":         s.Books,
		"failed":        s.Failed,
		"not_attempted": s.NotAttempted,
	})
	return s, nil
}
