package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/superversivesf/saga-importer/internal/database"
	"github.com/superversivesf/saga-importer/internal/logger"
)

// Config holds all configuration for the importer
type Config struct {
	// Logging configuration
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	// Database holds the store connection settings
	Database database.DatabaseConfig `yaml:"database"`

	// Lookup configures how the external source is queried
	Lookup struct {
		BaseURL       string        `yaml:"base_url"`
		UserAgent     string        `yaml:"user_agent"`
		Timeout       time.Duration `yaml:"timeout"`
		MinDelay      time.Duration `yaml:"min_delay"`
		MaxDelay      time.Duration `yaml:"max_delay"`
		MaxAttempts   int           `yaml:"max_attempts"`
		MaxPages      int           `yaml:"max_pages"`
		DetailRetries int           `yaml:"detail_retries"`
		CacheTTL      time.Duration `yaml:"cache_ttl"`
	} `yaml:"lookup"`

	// Enrich holds merge behaviour switches
	Enrich struct {
		OverwriteSeriesVolume bool `yaml:"overwrite_series_volume"`
		Limit                 int  `yaml:"limit"`
	} `yaml:"enrich"`

	// File paths
	Paths struct {
		HintFile string `yaml:"hint_file"`
	} `yaml:"paths"`
}

// Default returns a configuration populated with defaults only.
func Default() *Config {
	cfg := &Config{}
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "console"
	cfg.Database = database.DatabaseConfig{
		Type: database.DatabaseTypeSQLite,
		Path: database.GetDefaultDatabasePath(),
	}
	cfg.Lookup.BaseURL = "https://www.goodreads.com"
	cfg.Lookup.UserAgent = "saga-importer/1.0"
	cfg.Lookup.Timeout = 30 * time.Second
	cfg.Lookup.MinDelay = 100 * time.Millisecond
	cfg.Lookup.MaxDelay = 250 * time.Millisecond
	cfg.Lookup.MaxAttempts = 5
	cfg.Lookup.MaxPages = 5
	cfg.Lookup.DetailRetries = 20
	cfg.Lookup.CacheTTL = 10 * time.Minute
	return cfg
}

// Load loads configuration from a file (if specified) and environment variables.
// Priority: 1) command line flags (applied by the caller), 2) environment,
// 3) config file, 4) defaults
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		fileCfg, err := readFile(configFile)
		switch {
		case os.IsNotExist(err):
			logger.Get().Warn("Config file not found, using defaults", map[string]interface{}{
				"path": configFile,
			})
		case err != nil:
			return nil, err
		default:
			mergeConfigs(cfg, fileCfg)
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = abs
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	logger.Get().Debug("Loaded configuration file", map[string]interface{}{
		"path":  path,
		"bytes": len(data),
	})
	return &cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	var problems []string

	u, err := url.Parse(c.Lookup.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		problems = append(problems, "LOOKUP_BASE_URL")
	}
	if c.Lookup.MinDelay < 0 || c.Lookup.MaxDelay < c.Lookup.MinDelay {
		problems = append(problems, "LOOKUP_MIN_DELAY/LOOKUP_MAX_DELAY")
	}
	if c.Lookup.MaxAttempts < 1 {
		problems = append(problems, "LOOKUP_MAX_ATTEMPTS")
	}
	if c.Lookup.MaxPages < 1 {
		problems = append(problems, "LOOKUP_MAX_PAGES")
	}
	if c.Lookup.DetailRetries < 1 {
		problems = append(problems, "LOOKUP_DETAIL_RETRIES")
	}
	if c.Enrich.Limit < 0 {
		problems = append(problems, "ENRICH_LIMIT")
	}

	if len(problems) > 0 {
		return &ConfigError{
			Field: strings.Join(problems, ", "),
			Msg:   "configuration values are invalid",
		}
	}

	if err := c.Database.Validate(); err != nil {
		return &ConfigError{Field: "database", Msg: err.Error()}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Field + " " + e.Msg
}

// loadFromEnv applies environment overrides
func loadFromEnv(cfg *Config) {
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)

	database.ApplyEnv(&cfg.Database)

	if base := os.Getenv("LOOKUP_BASE_URL"); base != "" {
		cfg.Lookup.BaseURL = strings.TrimSuffix(base, "/")
	}
	cfg.Lookup.UserAgent = getEnv("LOOKUP_USER_AGENT", cfg.Lookup.UserAgent)
	cfg.Lookup.Timeout = getDurationFromEnv("LOOKUP_TIMEOUT", cfg.Lookup.Timeout)
	cfg.Lookup.MinDelay = getDurationFromEnv("LOOKUP_MIN_DELAY", cfg.Lookup.MinDelay)
	cfg.Lookup.MaxDelay = getDurationFromEnv("LOOKUP_MAX_DELAY", cfg.Lookup.MaxDelay)
	cfg.Lookup.MaxAttempts = getIntFromEnv("LOOKUP_MAX_ATTEMPTS", cfg.Lookup.MaxAttempts)
	cfg.Lookup.MaxPages = getIntFromEnv("LOOKUP_MAX_PAGES", cfg.Lookup.MaxPages)
	cfg.Lookup.DetailRetries = getIntFromEnv("LOOKUP_DETAIL_RETRIES", cfg.Lookup.DetailRetries)
	cfg.Lookup.CacheTTL = getDurationFromEnv("LOOKUP_CACHE_TTL", cfg.Lookup.CacheTTL)

	cfg.Enrich.OverwriteSeriesVolume = getBoolFromEnv("OVERWRITE_SERIES_VOLUME", cfg.Enrich.OverwriteSeriesVolume)
	cfg.Enrich.Limit = getIntFromEnv("ENRICH_LIMIT", cfg.Enrich.Limit)

	cfg.Paths.HintFile = getEnv("HINT_FILE", cfg.Paths.HintFile)
}

// mergeConfigs merges non-zero values from src into dst
func mergeConfigs(dst, src *Config) {
	mergeValues(reflect.ValueOf(dst).Elem(), reflect.ValueOf(src).Elem())
}

func mergeValues(dst, src reflect.Value) {
	for i := 0; i < dst.NumField(); i++ {
		dstField := dst.Field(i)
		srcField := src.Field(i)

		if !dstField.CanSet() {
			continue
		}

		switch dstField.Kind() {
		case reflect.Struct:
			mergeValues(dstField, srcField)
		case reflect.String:
			if srcField.String() != "" {
				dstField.SetString(srcField.String())
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if srcField.Int() != 0 {
				dstField.SetInt(srcField.Int())
			}
		case reflect.Float32, reflect.Float64:
			if srcField.Float() != 0 {
				dstField.SetFloat(srcField.Float())
			}
		case reflect.Bool:
			// Only overwrite if source is true
			if srcField.Bool() {
				dstField.SetBool(true)
			}
		}
	}
}

// Helper functions for environment variable parsing
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getBoolFromEnv(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		b, err := strconv.ParseBool(value)
		if err != nil {
			logger.Get().Warn("Failed to parse bool from env var", map[string]interface{}{"key": key, "error": err.Error()})
			return fallback
		}
		return b
	}
	return fallback
}

func getIntFromEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		i, err := strconv.Atoi(value)
		if err != nil {
			logger.Get().Warn("Failed to parse int from env var", map[string]interface{}{"key": key, "error": err.Error()})
			return fallback
		}
		return i
	}
	return fallback
}

func getDurationFromEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err != nil {
			logger.Get().Warn("Failed to parse duration from env var", map[string]interface{}{"key": key, "error": err.Error()})
			return fallback
		}
		return d
	}
	return fallback
}
