package keys

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superversivesf/saga-importer/internal/normalize"
)

func TestAuthorKeyIsStableUnderNormalization(t *testing.T) {
	names := []string{
		"Frank Herbert",
		"Gabriel García Márquez",
		"J.R.R. Tolkien",
		"  ursula k. le guin ",
		"",
	}
	for _, n := range names {
		t.Run(n, func(t *testing.T) {
			assert.Equal(t, AuthorKey(n), AuthorKey(normalize.KeyName(n)))
			assert.Equal(t, AuthorKey(n), AuthorKey(n))
		})
	}
}

func TestAuthorKeyCollapsesSpellings(t *testing.T) {
	assert.Equal(t, AuthorKey("Gabriel García Márquez"), AuthorKey("gabriel garcia marquez"))
	assert.Equal(t, AuthorKey("J.R.R. Tolkien"), AuthorKey("J. R. R. Tolkien"))
	assert.NotEqual(t, AuthorKey("Frank Herbert"), AuthorKey("Brian Herbert"))
}

func TestKeysAreUUIDs(t *testing.T) {
	for _, k := range []string{AuthorKey("a"), SeriesKey("b"), GenreKey("c"), BookKey("d", nil)} {
		_, err := uuid.Parse(k)
		require.NoError(t, err, k)
	}
}

func TestEntityNamespacesDoNotCollide(t *testing.T) {
	name := "Discworld"
	assert.NotEqual(t, AuthorKey(name), SeriesKey(name))
	assert.NotEqual(t, SeriesKey(name), GenreKey(name))
}

func TestEmptyNamesUseFallback(t *testing.T) {
	assert.Equal(t, AuthorKey(Fallback), AuthorKey(""))
	assert.Equal(t, GenreKey(Fallback), GenreKey("   "))
	assert.Equal(t, BookKey(Fallback, nil), BookKey("", nil))
}

func TestBookKey(t *testing.T) {
	a1 := AuthorKey("Larry Niven")
	a2 := AuthorKey("Jerry Pournelle")

	t.Run("author order does not matter", func(t *testing.T) {
		assert.Equal(t, BookKey("The Mote in God's Eye", []string{a1, a2}), BookKey("The Mote in God's Eye", []string{a2, a1}))
	})

	t.Run("author set matters", func(t *testing.T) {
		assert.NotEqual(t, BookKey("The Mote in God's Eye", []string{a1, a2}), BookKey("The Mote in God's Eye", []string{a1}))
	})

	t.Run("duplicate authors are ignored", func(t *testing.T) {
		assert.Equal(t, BookKey("Ringworld", []string{a1}), BookKey("Ringworld", []string{a1, a1}))
	})

	t.Run("title is normalized", func(t *testing.T) {
		assert.Equal(t, BookKey("The Hobbit", []string{a1}), BookKey("  the   hobbit", []string{a1}))
	})

	t.Run("title separators do not split a book", func(t *testing.T) {
		assert.Equal(t, BookKey("The Hobbit", []string{a1}), BookKey("The_Hobbit", []string{a1}))
		assert.Equal(t, BookKey("The Hobbit", []string{a1}), BookKey("The-Hobbit", []string{a1}))
	})

	t.Run("different titles differ", func(t *testing.T) {
		assert.NotEqual(t, BookKey("Ringworld", []string{a1}), BookKey("Ringworld Engineers", []string{a1}))
	})
}
