package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/superversivesf/saga-importer/internal/enrich"
)

func addCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a book to the library from its tag values",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Album tag (the book title)", Required: true},
			&cli.StringSliceFlag{Name: "author", Aliases: []string{"a"}, Usage: "Album artist tag; repeat for several"},
			&cli.StringSliceFlag{Name: "artist", Usage: "Artist tag, used when no album artist yields an author"},
			&cli.StringFlag{Name: "location", Aliases: []string{"l"}, Usage: "Directory holding the audio files"},
		},
		Action: runAdd,
	}
}

func runAdd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	book, created, err := enrich.NewImporter(store, nil).Import(context.Background(), enrich.Tags{
		Album:        c.String("title"),
		AlbumArtists: c.StringSlice("author"),
		Artists:      c.StringSlice("artist"),
		Location:     c.String("location"),
	})
	if err != nil {
		return err
	}

	state := "already present"
	if created {
		state = "added"
	}
	fmt.Printf("%s %s (%s)\n", book.Title, state, book.ID)
	return nil
}
