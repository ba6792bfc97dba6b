package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/superversivesf/saga-importer/internal/database"
	"github.com/superversivesf/saga-importer/internal/hints"
)

func dumpCommand() *cli.Command {
	return &cli.Command{
		Name:  "dump",
		Usage: "Print the contents of the store",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "books", Usage: "List books and their lookup state"},
			&cli.BoolFlag{Name: "failed", Usage: "List books attempted without a match"},
			&cli.BoolFlag{Name: "genres", Usage: "List genres"},
			&cli.BoolFlag{Name: "series", Usage: "List series"},
			&cli.BoolFlag{Name: "stats", Usage: "Show counts and the miss rate (default)"},
			&cli.StringFlag{Name: "hint-out", Usage: "Write failed books to `FILE` as an editable hint file"},
		},
		Action: runDump,
	}
}

func runDump(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	shown := false
	section := func(flag string, fn func() (string, error)) error {
		if !c.Bool(flag) {
			return nil
		}
		shown = true
		out, err := fn()
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}

	if err := section("books", func() (string, error) {
		books, err := store.ListBooks(ctx, database.BookFilter{})
		if err != nil {
			return "", err
		}
		return renderTable("Books", []string{"Title", "External title", "Attempted", "Link"}, bookRows(books), nil), nil
	}); err != nil {
		return err
	}

	if err := section("failed", func() (string, error) {
		books, err := store.ListBooks(ctx, database.BookFilter{FailedOnly: true})
		if err != nil {
			return "", err
		}
		return renderTable("Failed lookups", []string{"Book ID", "Title", "Location"}, failedRows(books), nil), nil
	}); err != nil {
		return err
	}

	if err := section("genres", func() (string, error) {
		genres, err := store.ListGenres(ctx)
		if err != nil {
			return "", err
		}
		rows := make([][]string, 0, len(genres))
		for _, g := range genres {
			books, err := store.BooksByGenre(ctx, g.ID)
			if err != nil {
				return "", err
			}
			rows = append(rows, []string{g.Name, strconv.Itoa(len(books))})
		}
		return renderTable("Genres", []string{"Genre", "Books"}, rows, []columnAlignment{alignLeft, alignRight}), nil
	}); err != nil {
		return err
	}

	if err := section("series", func() (string, error) {
		series, err := store.ListSeries(ctx, database.SeriesFilter{})
		if err != nil {
			return "", err
		}
		rows := make([][]string, 0, len(series))
		for _, s := range series {
			books, err := store.BooksBySeries(ctx, s.ID)
			if err != nil {
				return "", err
			}
			rows = append(rows, []string{s.Name, strconv.Itoa(len(books)), yesNo(s.Description != ""), s.ExternalLink})
		}
		return renderTable("Series", []string{"Series", "Books", "Described", "Link"}, rows, []columnAlignment{alignLeft, alignRight}), nil
	}); err != nil {
		return err
	}

	if path := c.String("hint-out"); path != "" {
		shown = true
		if err := writeHintFile(ctx, store, path); err != nil {
			return err
		}
	}

	if c.Bool("stats") || !shown {
		stats, err := store.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Println(renderTable("Library", []string{"Measure", "Value"}, statsRows(stats), []columnAlignment{alignLeft, alignRight}))
	}
	return nil
}

func bookRows(books []database.Book) [][]string {
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		rows = append(rows, []string{b.Title, b.ExternalTitle, yesNo(b.FetchAttempted), b.ExternalLink})
	}
	return rows
}

func failedRows(books []database.Book) [][]string {
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		rows = append(rows, []string{b.ID, b.Title, b.Location})
	}
	return rows
}

func statsRows(s database.Stats) [][]string {
	count := func(n int64) string { return strconv.FormatInt(n, 10) }
	return [][]string{
		{"Books", count(s.Books)},
		{"Authors", count(s.Authors)},
		{"Series", count(s.Series)},
		{"Genres", count(s.Genres)},
		{"Not yet looked up", count(s.NotAttempted)},
		{"Failed lookups", count(s.Failed)},
		{"Miss rate", fmt.Sprintf("%.1f%%", s.MissPercent())},
	}
}

// failedHints lists failed books with an empty link for the user to fill in.
func failedHints(books []database.Book) []hints.Hint {
	out := make([]hints.Hint, 0, len(books))
	for _, b := range books {
		out = append(out, hints.Hint{BookID: b.ID, Title: b.Title})
	}
	return out
}

func writeHintFile(ctx context.Context, store *database.Repository, path string) error {
	books, err := store.ListBooks(ctx, database.BookFilter{FailedOnly: true})
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create hint file: %w", err)
	}
	if err := hints.Write(f, failedHints(books)); err != nil {
		f.Close()
		return fmt.Errorf("failed to write hint file: %w", err)
	}
	return f.Close()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
