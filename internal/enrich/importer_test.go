package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superversivesf/saga-importer/internal/keys"
)

func TestImport_CreatesBookAndAuthors(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	im := NewImporter(store, nil)

	book, created, err := im.Import(ctx, Tags{
		Album:        "03 - Good Omens",
		AlbumArtists: []string{"Terry Pratchett & Neil Gaiman"},
		Location:     "/library/Good Omens",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Good Omens", book.Title)
	assert.Equal(t, "/library/Good Omens", book.Location)
	assert.False(t, book.FetchAttempted)

	wantID := keys.BookKey("Good Omens", []string{keys.AuthorKey("Terry Pratchett"), keys.AuthorKey("Neil Gaiman")})
	assert.Equal(t, wantID, book.ID)

	links, err := store.AuthorLinks(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	for _, l := range links {
		assert.Equal(t, "Unknown", l.Role)
	}

	a, err := store.GetAuthor(ctx, keys.AuthorKey("Neil Gaiman"))
	require.NoError(t, err)
	assert.False(t, a.External)
}

func TestImport_RepeatedImportFindsSameBook(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	im := NewImporter(store, nil)

	first, created, err := im.Import(ctx, Tags{Album: "The Hobbit", AlbumArtists: []string{"J.R.R. Tolkien"}})
	require.NoError(t, err)
	require.True(t, created)

	// spelling variants of the same author land on the same keys
	second, created, err := im.Import(ctx, Tags{Album: "01 - The Hobbit", AlbumArtists: []string{"J. R. R. Tolkien"}})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Books)
	assert.Equal(t, int64(1), stats.Authors)
}

func TestImport_FallsBackToArtists(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	book, _, err := NewImporter(store, nil).Import(ctx, Tags{Album: "Dune", Artists: []string{"Frank Herbert"}})
	require.NoError(t, err)

	authors, err := store.BookAuthors(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, authors, 1)
	assert.Equal(t, "Frank Herbert", authors[0].Name)
}

func TestImport_KeepsExistingAuthor(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	im := NewImporter(store, nil)

	_, _, err := im.Import(ctx, Tags{Album: "Dune", AlbumArtists: []string{"Frank Herbert"}})
	require.NoError(t, err)

	id := keys.AuthorKey("Frank Herbert")
	a, err := store.GetAuthor(ctx, id)
	require.NoError(t, err)
	a.External = true
	a.Description = "Curated."
	require.NoError(t, store.SaveAuthor(ctx, a))

	_, _, err = im.Import(ctx, Tags{Album: "Dune Messiah", AlbumArtists: []string{"Frank Herbert"}})
	require.NoError(t, err)

	a, err = store.GetAuthor(ctx, id)
	require.NoError(t, err)
	assert.True(t, a.External)
	assert.Equal(t, "Curated.", a.Description)
}
