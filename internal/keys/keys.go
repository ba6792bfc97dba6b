// Package keys derives the stable identity keys that let repeated imports
// and lookups recognise an author, book, series or genre they have seen
// before.
//
// A key is a name-based (SHA-1, version 5) UUID computed over the
// normalized name inside a per-entity namespace, so the same logical entity
// yields the same key in every run and process, and an author and a genre
// that happen to share a name never collide.
package keys

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/superversivesf/saga-importer/internal/normalize"
)

// Fallback is the name used when the input normalizes to nothing.
const Fallback = "unknown"

var (
	root = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/superversivesf/saga-importer"))

	authorSpace = uuid.NewSHA1(root, []byte("author"))
	bookSpace   = uuid.NewSHA1(root, []byte("book"))
	seriesSpace = uuid.NewSHA1(root, []byte("series"))
	genreSpace  = uuid.NewSHA1(root, []byte("genre"))
)

// AuthorKey returns the identity key for an author display name.
func AuthorKey(name string) string {
	return derive(authorSpace, keyName(name))
}

// SeriesKey returns the identity key for a series name.
func SeriesKey(name string) string {
	return derive(seriesSpace, keyName(name))
}

// GenreKey returns the identity key for a genre name.
func GenreKey(name string) string {
	return derive(genreSpace, keyName(name))
}

// BookKey returns the identity key for a title written by the given
// authors. The author keys are treated as a set: order and duplicates do
// not change the result.
func BookKey(title string, authorKeys []string) string {
	t := normalize.Title(title)
	if t == "" {
		t = Fallback
	}

	set := make(map[string]struct{}, len(authorKeys))
	for _, k := range authorKeys {
		if k = strings.TrimSpace(k); k != "" {
			set[k] = struct{}{}
		}
	}
	sorted := make([]string, 0, len(set))
	for k := range set {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	return derive(bookSpace, t+"\x00"+strings.Join(sorted, "\x00"))
}

func keyName(name string) string {
	n := normalize.KeyName(name)
	if n == "" {
		return Fallback
	}
	return n
}

func derive(space uuid.UUID, name string) string {
	return uuid.NewSHA1(space, []byte(name)).String()
}
