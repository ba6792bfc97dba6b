package database

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/gorm"

	appLogger "github.com/superversivesf/saga-importer/internal/logger"
)

// Database wraps the GORM database connection
type Database struct {
	db     *gorm.DB
	config *DatabaseConfig
	logger *appLogger.Logger
}

// NewDatabase opens the configured database and migrates the schema
func NewDatabase(config *DatabaseConfig, log *appLogger.Logger) (*Database, error) {
	if log == nil {
		log = appLogger.Get()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	driver, err := GetDatabaseDriver(config.Type)
	if err != nil {
		return nil, err
	}

	db, err := driver.Connect(config, log)
	if err != nil {
		return nil, err
	}

	database := &Database{db: db, config: config, logger: log}
	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database connection established", map[string]interface{}{
		"type": config.Type,
		"host": config.Host,
		"path": config.Path,
	})
	return database, nil
}

// migrate runs database migrations
func (d *Database) migrate() error {
	err := d.db.AutoMigrate(
		&Book{},
		&Author{},
		&Series{},
		&Genre{},
		&AuthorLink{},
		&SeriesLink{},
		&GenreLink{},
		&Image{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}
	d.logger.Debug("Database migrations completed", nil)
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// GetDB returns the underlying GORM database instance
func (d *Database) GetDB() *gorm.DB {
	return d.db
}

// Health checks the database connection
func (d *Database) Health() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// GetDefaultDatabasePath returns the default path for the database file
func GetDefaultDatabasePath() string {
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	return filepath.Join(dataDir, "saga.db")
}
