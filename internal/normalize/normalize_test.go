package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Hobbit", "hobbit"},
		{"the hobbit", "hobbit"},
		{" The   Hobbit ", "hobbit"},
		{"A Game of Thrones", "game of thrones"},
		{"Dune: Messiah", "dune messiah"},
		{"Ender's Game", "enders game"},
		{"What If?", "what if"},
		{"Mistborn - The Final Empire", "mistborn the final empire"},
		{"- The Final Empire", "final empire"},
		{"Theory of Everything", "theory of everything"},
		{"Snake_Case!", "snake case"},
		{"The_Hobbit", "hobbit"},
		{"The-Hobbit", "hobbit"},
		{"A: Study in Scarlet", "study in scarlet"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Title(tt.in))
		})
	}
}

func TestTitleSeparatorsShareKey(t *testing.T) {
	for _, s := range []string{"The_Hobbit", "The-Hobbit", "the: hobbit"} {
		assert.Equal(t, Title("The Hobbit"), Title(s), s)
	}
}

func TestTitleIsIdempotent(t *testing.T) {
	for _, s := range []string{"The Hobbit", "A Wizard of Earthsea", "Dune: Book 1"} {
		once := Title(s)
		assert.Equal(t, once, Title(once), s)
	}
}

func TestAuthor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Frank Herbert", "frankherbert"},
		{"J.R.R. Tolkien", "jrrtolkien"},
		{"J. R. R. Tolkien", "jrrtolkien"},
		{"Harry Turtledove, Jr.", "harryturtledove"},
		{"Martin Luther King Jr", "martinlutherking"},
		{`E.E. "Doc" Smith`, "eedocsmith"},
		{"Madeleine L'Engle", "madeleinelengle"},
		{"Colm Tóibín", "colmtoibin"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Author(tt.in))
		})
	}
}

func TestKeyName(t *testing.T) {
	assert.Equal(t, "gabriel garcia marquez", KeyName("Gabriel García Márquez"))
	assert.Equal(t, KeyName("Gabriel García Márquez"), KeyName("GABRIEL GARCIA  MARQUEZ"))
	assert.Equal(t, "j. r. r. tolkien", KeyName("J.R.R. Tolkien"))
	assert.Equal(t, KeyName("J.R.R. Tolkien"), KeyName("J. R. R. Tolkien"))
	assert.Equal(t, "", KeyName("   "))
}

func TestFoldDiacritics(t *testing.T) {
	assert.Equal(t, "Bronte", FoldDiacritics("Brontë"))
	assert.Equal(t, "Slawomir Mrozek", FoldDiacritics("Slawomir Mrożek"))
	assert.Equal(t, "Soren", FoldDiacritics("Søren"))
	assert.Equal(t, "Rock 'n' Roll", FoldDiacritics(`Rock "n" Roll`))
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "The Hobbit", CleanTitle("01 - The Hobbit"))
	assert.Equal(t, "Interlude", CleanTitle("2.5 - Interlude"))
	assert.Equal(t, "1984", CleanTitle("1984"))
}
