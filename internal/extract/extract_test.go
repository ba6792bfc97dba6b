package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/superversivesf/saga-importer/internal/scrape"
)

const bookLink = "https://www.goodreads.com/book/show/12067.Good_Omens?from_search=true"

func loadFixture(t *testing.T, name string) *html.Node {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	doc, err := scrape.ParseString(string(raw))
	require.NoError(t, err)
	return doc
}

func mustParse(t *testing.T, s string) *html.Node {
	t.Helper()
	doc, err := scrape.ParseString(s)
	require.NoError(t, err)
	return doc
}

func TestExtract_BookPage(t *testing.T) {
	d, ok := Extract(loadFixture(t, "book.html"), bookLink)
	require.True(t, ok)

	assert.Equal(t, "Good Omens: The Nice and Accurate Prophecies of Agnes Nutter, Witch", d.Title)
	assert.Equal(t, "https://www.goodreads.com/book/show/12067.Good_Omens", d.Link)
	assert.Equal(t, "https://images.example.com/covers/good-omens.jpg", d.CoverImageLink)

	assert.Equal(t, "Discworld Adjacent", d.SeriesTitle)
	assert.Equal(t, "2", d.SeriesVolume)
	assert.Equal(t, "https://www.goodreads.com/series/41234-discworld-adjacent", d.SeriesLink)

	assert.Contains(t, d.Description, "<i>The Nice and Accurate Prophecies</i>")
	assert.Contains(t, d.Description, "Saturday")

	assert.Equal(t, []string{"Fantasy", "Humor", "Comedy"}, d.Genres)
}

func TestExtract_Credits(t *testing.T) {
	d, ok := Extract(loadFixture(t, "book.html"), bookLink)
	require.True(t, ok)

	want := []Credit{
		{Name: "Terry Pratchett", Link: "https://www.example.com/author/show/1654.Terry_Pratchett", Role: RoleAuthor},
		{Name: "Neil Gaiman", Link: "https://www.goodreads.com/author/show/1221698.Neil_Gaiman", Role: RoleAuthor},
		{Name: "Stephen Briggs", Link: "https://www.goodreads.com/author/show/42.Stephen_Briggs", Role: RoleIllustrator},
		{Name: "Stephen Briggs", Link: "https://www.goodreads.com/author/show/42.Stephen_Briggs", Role: RoleNarrator},
		{Name: "Jane Doe", Link: "https://www.goodreads.com/author/show/7.Jane_Doe", Role: RoleForeword},
		{Name: "Anna Translator", Link: "https://www.goodreads.com/author/show/9.Anna_Translator", Role: RoleTranslator},
		{Name: "Sam Helper", Link: "https://www.goodreads.com/author/show/10.Sam_Helper", Role: RoleAuthor},
	}
	assert.Equal(t, want, d.Authors)
}

func TestExtract_MissingRegions(t *testing.T) {
	tests := map[string]string{
		"no right":  `<html><body><div class="leftContainer"><h1 id="bookTitle">X</h1></div></body></html>`,
		"no left":   `<html><body><div class="rightContainer"></div></body></html>`,
		"empty doc": ``,
	}
	for name, page := range tests {
		t.Run(name, func(t *testing.T) {
			d, ok := Extract(mustParse(t, page), bookLink)
			assert.False(t, ok)
			assert.Nil(t, d)
		})
	}
}

func TestExtract_SparsePage(t *testing.T) {
	page := `<html><body>
<div class="leftContainer"><h1 id="bookTitle"> Solaris </h1>
<div id="descriptionContainer"><div id="description"><span>Only the short text.</span></div></div></div>
<div class="rightContainer"></div></body></html>`

	d, ok := Extract(mustParse(t, page), "https://www.goodreads.com/book/show/95558.Solaris")
	require.True(t, ok)
	assert.Equal(t, "Solaris", d.Title)
	assert.Equal(t, "Only the short text.", d.Description)
	assert.Empty(t, d.SeriesTitle)
	assert.Empty(t, d.SeriesLink)
	assert.Empty(t, d.Genres)
	assert.Empty(t, d.Authors)
}

func TestParseSeriesLabel(t *testing.T) {
	tests := []struct {
		label  string
		name   string
		volume string
	}{
		{"(Dune #1)", "Dune", "1"},
		{"(The Expanse, #4.5)", "The Expanse", "4.5"},
		{"(Discworld, #1-3)", "Discworld", "1-3"},
		{"(Standalone)", "Standalone", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			name, volume := ParseSeriesLabel(tt.label)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.volume, volume)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		descriptor string
		want       []Role
	}{
		{"", []Role{RoleAuthor}},
		{"(Goodreads Author)", []Role{RoleAuthor}},
		{"(Editor)", []Role{RoleEditor}},
		{"(Translator, Introduction)", []Role{RoleTranslator, RoleForeword}},
		{"(Foreword, Introduction)", []Role{RoleForeword}},
		{"(Narrator)", []Role{RoleNarrator}},
		{"(Illustrator, Contributor)", []Role{RoleContributor, RoleIllustrator}},
		{"(Cover design)", []Role{RoleAuthor}},
	}
	for _, tt := range tests {
		t.Run(tt.descriptor, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.descriptor))
		})
	}
}

func TestExtractAuthor(t *testing.T) {
	p, ok := ExtractAuthor(loadFixture(t, "author.html"))
	require.True(t, ok)

	assert.Equal(t, "https://images.example.com/authors/1654.jpg", p.ImageLink)
	assert.Equal(t, "in Beaconsfield, Buckinghamshire, England, The United Kingdom April 28, 1948", p.Born)
	assert.Equal(t, "March 12, 2015", p.Died)
	assert.Equal(t, "http://www.terrypratchettbooks.com", p.Website)
	assert.Equal(t, "terryandrob", p.Twitter)
	assert.Equal(t, "Fantasy, Humor", p.Genre)
	assert.Equal(t, "G. K. Chesterton, Mark Twain", p.Influences)
	assert.Equal(t, "Sir Terry Pratchett was the <b>acclaimed</b> creator of the Discworld series.", p.Description)
}

func TestExtractAuthor_EmptyPage(t *testing.T) {
	p, ok := ExtractAuthor(mustParse(t, `<html><body><p>nothing here</p></body></html>`))
	assert.False(t, ok)
	assert.Nil(t, p)
}

func TestExtractSeries(t *testing.T) {
	page, ok := ExtractSeries(loadFixture(t, "series.html"), "https://www.goodreads.com/series/45935-dune")
	require.True(t, ok)

	assert.Equal(t, "Dune", page.Title)
	assert.Equal(t, "The saga of <i>Arrakis</i>.", page.Description)
	require.Len(t, page.Books, 3)

	assert.Equal(t, SeriesBook{
		Title:     "Dune",
		Volume:    "1",
		Link:      "https://www.goodreads.com/book/show/44767458-dune",
		CoverLink: "https://images.example.com/dune.jpg",
	}, page.Books[0])

	// no header for this entry, volume comes from the title suffix
	assert.Equal(t, "Dune Messiah", page.Books[1].Title)
	assert.Equal(t, "2", page.Books[1].Volume)

	assert.Equal(t, "Children of Dune", page.Books[2].Title)
	assert.Equal(t, "3", page.Books[2].Volume)
	assert.Empty(t, page.Books[2].CoverLink)
}

func TestExtractSeries_MissingHeader(t *testing.T) {
	_, ok := ExtractSeries(mustParse(t, `<html><body></body></html>`), "https://www.goodreads.com/series/1")
	assert.False(t, ok)

	broken := `<html><body><div data-react-class="ReactComponents.SeriesHeader" data-react-props="{not json"></div></body></html>`
	_, ok = ExtractSeries(mustParse(t, broken), "https://www.goodreads.com/series/1")
	assert.False(t, ok)
}

// fakeSource returns incomplete pages until its budget of bad responses runs out.
type fakeSource struct {
	good        *html.Node
	bad         int
	err         error
	queries     int
	invalidated int
}

func (f *fakeSource) Query(_ context.Context, _ string) (*html.Node, error) {
	f.queries++
	if f.err != nil {
		return nil, f.err
	}
	if f.bad > 0 {
		f.bad--
		return scrape.ParseString(`<html><body><p>loading</p></body></html>`)
	}
	return f.good, nil
}

func (f *fakeSource) Invalidate(string) { f.invalidated++ }

func TestFetchDetail_RefetchesIncompletePages(t *testing.T) {
	src := &fakeSource{good: loadFixture(t, "book.html"), bad: 3}
	e := NewExtractor(src, 0, nil)

	d, ok := e.FetchDetail(context.Background(), bookLink)
	require.True(t, ok)
	assert.Equal(t, "Discworld Adjacent", d.SeriesTitle)
	assert.Equal(t, 4, src.queries)
	assert.Equal(t, 3, src.invalidated)
}

func TestFetchDetail_RetryBound(t *testing.T) {
	src := &fakeSource{bad: 1000}
	e := NewExtractor(src, 0, nil)

	d, ok := e.FetchDetail(context.Background(), bookLink)
	assert.False(t, ok)
	assert.Nil(t, d)
	assert.Equal(t, DefaultDetailRetries, src.queries)
	assert.Equal(t, DefaultDetailRetries, src.invalidated)
}

func TestFetchDetail_QueryErrorsCountAsAttempts(t *testing.T) {
	src := &fakeSource{err: errors.New("fetch failed")}
	e := NewExtractor(src, 3, nil)

	_, ok := e.FetchDetail(context.Background(), bookLink)
	assert.False(t, ok)
	assert.Equal(t, 3, src.queries)
}

func TestFetchDetail_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{err: context.Canceled}
	e := NewExtractor(src, 0, nil)

	_, ok := e.FetchDetail(ctx, bookLink)
	assert.False(t, ok)
	assert.Equal(t, 1, src.queries)
	assert.Zero(t, src.invalidated)
}

func TestFetchSeriesAndAuthor(t *testing.T) {
	e := NewExtractor(&fakeSource{good: loadFixture(t, "series.html")}, 0, nil)
	page, ok := e.FetchSeries(context.Background(), "https://www.goodreads.com/series/45935-dune")
	require.True(t, ok)
	assert.Len(t, page.Books, 3)

	e = NewExtractor(&fakeSource{good: loadFixture(t, "author.html")}, 0, nil)
	p, ok := e.FetchAuthor(context.Background(), "https://www.goodreads.com/author/show/1654")
	require.True(t, ok)
	assert.Equal(t, "March 12, 2015", p.Died)

	e = NewExtractor(&fakeSource{err: errors.New("down")}, 0, nil)
	_, ok = e.FetchAuthor(context.Background(), "https://www.goodreads.com/author/show/1654")
	assert.False(t, ok)
}
