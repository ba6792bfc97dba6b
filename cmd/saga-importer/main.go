// Command saga-importer enriches an audiobook library store with metadata
// resolved from an external book catalogue.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/superversivesf/saga-importer/internal/config"
	"github.com/superversivesf/saga-importer/internal/database"
	"github.com/superversivesf/saga-importer/internal/logger"
)

// init initializes the logger with default values
func init() {
	logger.Setup(logger.Config{
		Level:      "info",
		Format:     logger.FormatConsole,
		TimeFormat: time.RFC3339,
	})
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Get().Error("Error running application", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "saga-importer",
		Usage:   "Resolve library audiobooks against an online catalogue and store what is found",
		Version: fmt.Sprintf("%s (%s) %s", version, commit, date),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				EnvVars: []string{"CONFIG_PATH"},
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Override the SQLite database `PATH`",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the log level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			lookupCommand(),
			dumpCommand(),
			addCommand(),
		},
	}
}

// loadConfig reads the configuration and applies the global flag
// overrides, then configures logging from the result.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if path := c.String("db"); path != "" {
		cfg.Database.Path = path
		if !cfg.Database.IsSQLite() {
			cfg.Database.Type = database.DatabaseTypeSQLite
		}
	}
	if level := c.String("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	logger.ForceSetup(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     logger.ParseLogFormat(cfg.Logging.Format),
		Output:     os.Stderr,
		TimeFormat: time.RFC3339,
	})
	return cfg, nil
}

// openStore connects to the configured database and returns its repository.
// The returned func closes the connection.
func openStore(cfg *config.Config) (*database.Repository, func(), error) {
	log := logger.Get()
	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Health(); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	closeFn := func() {
		if err := db.Close(); err != nil {
			log.Warn("Failed to close database", map[string]interface{}{"error": err.Error()})
		}
	}
	return database.NewRepository(db, log), closeFn, nil
}
