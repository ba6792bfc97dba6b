package hints

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	in := "BookId,Title,GoodreadsLink\n" +
		"b1,Dune,https://www.goodreads.com/book/show/44767458-dune\n" +
		"b2,\"Good Omens, Again\",https://www.goodreads.com/book/show/12067\n" +
		"b3,No link yet,\n" +
		",Missing id,https://www.goodreads.com/book/show/1\n"

	got, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []Hint{
		{BookID: "b1", Title: "Dune", Link: "https://www.goodreads.com/book/show/44767458-dune"},
		{BookID: "b2", Title: "Good Omens, Again", Link: "https://www.goodreads.com/book/show/12067"},
	}, got)
}

func TestParse_ColumnsByName(t *testing.T) {
	in := "\ufeffGoodreadsLink,Extra,BookId\nhttps://example.com/book/1,x,b9\n"

	got, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b9", got[0].BookID)
	assert.Equal(t, "https://example.com/book/1", got[0].Link)
	assert.Empty(t, got[0].Title)
}

func TestParse_BadHeader(t *testing.T) {
	_, err := Parse(strings.NewReader("Id,Name\n1,x\n"))
	assert.ErrorIs(t, err, ErrBadHeader)
}

func TestParse_Empty(t *testing.T) {
	got, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriteThenRead(t *testing.T) {
	hints := []Hint{
		{BookID: "b1", Title: "Dune", Link: "https://www.goodreads.com/book/show/1"},
		{BookID: "b2", Title: "Children of Dune", Link: "https://www.goodreads.com/book/show/3"},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, hints))
	assert.True(t, strings.HasPrefix(buf.String(), "BookId,Title,GoodreadsLink\n"))

	path := filepath.Join(t.TempDir(), "hints.csv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, hints, got)
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
