package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/superversivesf/saga-importer/internal/config"
	"github.com/superversivesf/saga-importer/internal/enrich"
	"github.com/superversivesf/saga-importer/internal/extract"
	"github.com/superversivesf/saga-importer/internal/images"
	"github.com/superversivesf/saga-importer/internal/logger"
	"github.com/superversivesf/saga-importer/internal/match"
	"github.com/superversivesf/saga-importer/internal/scrape"
	"github.com/superversivesf/saga-importer/internal/util"
)

func lookupCommand() *cli.Command {
	return &cli.Command{
		Name:  "lookup",
		Usage: "Resolve books, series, authors and images against the catalogue",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "books", Aliases: []string{"b"}, Usage: "Look up books not yet attempted"},
			&cli.BoolFlag{Name: "retry-failed", Usage: "Look up books that were attempted without a match"},
			&cli.StringFlag{Name: "hint-file", Aliases: []string{"f"}, Usage: "Resolve books from the pages listed in `FILE`"},
			&cli.BoolFlag{Name: "series", Aliases: []string{"s"}, Usage: "Backfill series descriptions and membership"},
			&cli.BoolFlag{Name: "authors", Aliases: []string{"a"}, Usage: "Fetch author profiles"},
			&cli.BoolFlag{Name: "images", Aliases: []string{"i"}, Usage: "Download cover and author images"},
			&cli.BoolFlag{Name: "overwrite-volume", Usage: "Let a newly found series volume replace a stored one"},
			&cli.IntFlag{Name: "limit", Usage: "Visit at most `N` entities per pass"},
			&cli.BoolFlag{Name: "progress", Usage: "Show a progress bar"},
		},
		Action: runLookup,
	}
}

// lookupOptions merges the command flags over the configured defaults.
func lookupOptions(c *cli.Context, cfg *config.Config) enrich.Options {
	opts := enrich.Options{
		Books:                 c.Bool("books") || c.Bool("retry-failed") || c.IsSet("hint-file"),
		RetryFailedOnly:       c.Bool("retry-failed"),
		HintFile:              cfg.Paths.HintFile,
		Series:                c.Bool("series"),
		Authors:               c.Bool("authors"),
		Images:                c.Bool("images"),
		OverwriteSeriesVolume: cfg.Enrich.OverwriteSeriesVolume || c.Bool("overwrite-volume"),
		Limit:                 cfg.Enrich.Limit,
	}
	if c.IsSet("hint-file") {
		opts.HintFile = c.String("hint-file")
	}
	if c.IsSet("limit") {
		opts.Limit = c.Int("limit")
	}
	return opts
}

func runLookup(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := logger.Get()

	opts := lookupOptions(c, cfg)
	if !opts.Books && !opts.Series && !opts.Authors && !opts.Images {
		return errors.New("nothing to do: pass --books, --series, --authors or --images")
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	loader := scrape.NewHTTPLoader(cfg.Lookup.Timeout, cfg.Lookup.UserAgent)
	pacer := util.NewPacer(cfg.Lookup.MinDelay, cfg.Lookup.MaxDelay)
	fetcher := scrape.NewFetcher(loader, pacer,
		scrape.WithMaxAttempts(cfg.Lookup.MaxAttempts),
		scrape.WithCache(cfg.Lookup.CacheTTL),
		scrape.WithLogger(log),
	)
	searcher, err := scrape.NewSearcher(fetcher, cfg.Lookup.BaseURL, cfg.Lookup.MaxPages)
	if err != nil {
		return fmt.Errorf("invalid lookup base URL: %w", err)
	}

	deps := enrich.Deps{
		Store:     store,
		Matcher:   match.NewMatcher(searcher, log),
		Extractor: extract.NewExtractor(fetcher, cfg.Lookup.DetailRetries, log),
		Images:    images.NewDownloader(loader.Client(), cfg.Lookup.UserAgent, images.WithPacer(pacer), images.WithLogger(log)),
		Log:       log,
	}
	if c.Bool("progress") {
		bars := newProgress()
		defer bars.finish()
		deps.Progress = bars.update
	}

	// a signal stops the run after the entity in progress
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Starting lookup", map[string]interface{}{
		"version":      version,
		"books":        opts.Books,
		"retry_failed": opts.RetryFailedOnly,
		"hint_file":    opts.HintFile,
		"series":       opts.Series,
		"authors":      opts.Authors,
		"images":       opts.Images,
		"limit":        opts.Limit,
		"base_url":     searcher.BaseURL(),
	})

	report, runErr := enrich.Run(ctx, deps, opts)
	fmt.Println(renderTable("Lookup", []string{"Measure", "Count"}, reportRows(report), []columnAlignment{alignLeft, alignRight}))
	return runErr
}

func reportRows(r enrich.Report) [][]string {
	row := func(name string, n int) []string { return []string{name, strconv.Itoa(n)} }
	return [][]string{
		row("Books looked up", r.Books),
		row("Resolved", r.Resolved),
		row("Unresolved", r.Unresolved),
		row("Series backfilled", r.Series),
		row("Series books linked", r.SeriesLinked),
		row("Author profiles", r.Authors),
		row("Images stored", r.ImagesStored),
		row("Errors", r.Errors),
	}
}

// progress keeps one bar per pass.
type progress struct {
	pass string
	bar  *progressbar.ProgressBar
}

func newProgress() *progress { return &progress{} }

func (p *progress) update(pass string, done, total int) {
	if p.bar == nil || p.pass != pass {
		p.finish()
		p.pass = pass
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription(pass),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)
	}
	_ = p.bar.Set(done)
}

func (p *progress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
}
