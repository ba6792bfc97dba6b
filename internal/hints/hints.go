// Package hints reads and writes hint files: CSV lists that point library
// books directly at their external book pages, bypassing search.
package hints

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Header is the column layout of a hint file.
var Header = []string{"BookId", "Title", "GoodreadsLink"}

// Hint forces the external page used for one book.
type Hint struct {
	BookID string
	Title  string
	Link   string
}

// ErrBadHeader is returned when the first row is not a hint header.
var ErrBadHeader = errors.New("hint file header must be BookId,Title,GoodreadsLink")

// Read loads the hint file at path.
func Read(path string) ([]Hint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hint file: %w", err)
	}
	defer f.Close()

	hints, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return hints, nil
}

// Parse reads hints from r. Columns are located by header name, so extra
// columns and reordering are tolerated. Rows without a book ID or link are
// skipped.
func Parse(r io.Reader) ([]Hint, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read hint header: %w", err)
	}

	cols := make(map[string]int, len(head))
	for i, h := range head {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	idCol, okID := cols["bookid"]
	linkCol, okLink := cols["goodreadslink"]
	titleCol, okTitle := cols["title"]
	if !okID || !okLink {
		return nil, ErrBadHeader
	}

	field := func(rec []string, i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	var out []Hint
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read hint line %d: %w", line, err)
		}

		h := Hint{BookID: field(rec, idCol), Link: field(rec, linkCol)}
		if okTitle {
			h.Title = field(rec, titleCol)
		}
		if h.BookID == "" || h.Link == "" {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

// Write emits hints with the standard header, ready to be edited and fed
// back through Read.
func Write(w io.Writer, hints []Hint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, h := range hints {
		if err := cw.Write([]string{h.BookID, h.Title, h.Link}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
