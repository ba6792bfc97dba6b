package database

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DatabaseType represents the supported database types
type DatabaseType string

const (
	DatabaseTypeSQLite     DatabaseType = "sqlite"
	DatabaseTypeSQLitePure DatabaseType = "sqlite-pure"
	DatabaseTypePostgreSQL DatabaseType = "postgresql"
	DatabaseTypeMySQL      DatabaseType = "mysql"
	DatabaseTypeMariaDB    DatabaseType = "mariadb"
)

// DatabaseConfig holds the configuration for database connections
type DatabaseConfig struct {
	Type     DatabaseType `json:"type" yaml:"type"`
	Host     string       `json:"host,omitempty" yaml:"host,omitempty"`
	Port     int          `json:"port,omitempty" yaml:"port,omitempty"`
	Database string       `json:"database,omitempty" yaml:"database,omitempty"`
	Username string       `json:"username,omitempty" yaml:"username,omitempty"`
	Password string       `json:"password,omitempty" yaml:"password,omitempty"`
	SSLMode  string       `json:"ssl_mode,omitempty" yaml:"ssl_mode,omitempty"`
	Path     string       `json:"path,omitempty" yaml:"path,omitempty"` // For SQLite

	// Connection pool settings
	MaxOpenConns    int `json:"max_open_conns,omitempty" yaml:"max_open_conns,omitempty"`
	MaxIdleConns    int `json:"max_idle_conns,omitempty" yaml:"max_idle_conns,omitempty"`
	ConnMaxLifetime int `json:"conn_max_lifetime,omitempty" yaml:"conn_max_lifetime,omitempty"` // in minutes
}

// ParseDatabaseType maps user input onto a DatabaseType. Unknown values are
// returned as-is so Validate can reject them.
func ParseDatabaseType(s string) DatabaseType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgresql", "postgres":
		return DatabaseTypePostgreSQL
	case "mysql":
		return DatabaseTypeMySQL
	case "mariadb":
		return DatabaseTypeMariaDB
	case "sqlite", "":
		return DatabaseTypeSQLite
	case "sqlite-pure", "sqlite_pure":
		return DatabaseTypeSQLitePure
	default:
		return DatabaseType(s)
	}
}

// IsSQLite reports whether the config targets a local SQLite file
func (c *DatabaseConfig) IsSQLite() bool {
	return c.Type == DatabaseTypeSQLite || c.Type == DatabaseTypeSQLitePure
}

// ApplyEnv overrides config fields from DATABASE_* environment variables
// and fills in server defaults for networked databases.
func ApplyEnv(c *DatabaseConfig) {
	if dbType := os.Getenv("DATABASE_TYPE"); dbType != "" {
		c.Type = ParseDatabaseType(dbType)
	}
	if c.Type == "" {
		c.Type = DatabaseTypeSQLite
	}

	if c.IsSQLite() {
		c.Path = getEnvWithDefault("DATABASE_PATH", c.Path)
		if c.Path == "" {
			c.Path = GetDefaultDatabasePath()
		}
		return
	}

	c.Host = getEnvWithDefault("DATABASE_HOST", c.Host)
	c.Database = getEnvWithDefault("DATABASE_NAME", c.Database)
	c.Username = getEnvWithDefault("DATABASE_USER", c.Username)
	c.Password = getEnvWithDefault("DATABASE_PASSWORD", c.Password)
	c.SSLMode = getEnvWithDefault("DATABASE_SSL_MODE", c.SSLMode)
	c.Port = getEnvIntWithDefault("DATABASE_PORT", c.Port)

	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Database == "" {
		c.Database = "saga"
	}
	if c.SSLMode == "" {
		c.SSLMode = "prefer"
	}
	if c.Port == 0 {
		switch c.Type {
		case DatabaseTypePostgreSQL:
			c.Port = 5432
		case DatabaseTypeMySQL, DatabaseTypeMariaDB:
			c.Port = 3306
		}
	}

	c.MaxOpenConns = getEnvIntWithDefault("DATABASE_MAX_OPEN_CONNS", orDefault(c.MaxOpenConns, 25))
	c.MaxIdleConns = getEnvIntWithDefault("DATABASE_MAX_IDLE_CONNS", orDefault(c.MaxIdleConns, 5))
	c.ConnMaxLifetime = getEnvIntWithDefault("DATABASE_CONN_MAX_LIFETIME", orDefault(c.ConnMaxLifetime, 60))
}

// Validate checks if the database configuration is valid
func (c *DatabaseConfig) Validate() error {
	switch c.Type {
	case DatabaseTypeSQLite, DatabaseTypeSQLitePure:
		if c.Path == "" {
			return fmt.Errorf("SQLite database path is required")
		}
	case DatabaseTypePostgreSQL, DatabaseTypeMySQL, DatabaseTypeMariaDB:
		if c.Host == "" {
			return fmt.Errorf("database host is required for %s", c.Type)
		}
		if c.Database == "" {
			return fmt.Errorf("database name is required for %s", c.Type)
		}
		if c.Port <= 0 {
			return fmt.Errorf("valid database port is required for %s", c.Type)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Type)
	}
	return nil
}

// GetDSN returns the data source name for the database connection
func (c *DatabaseConfig) GetDSN() string {
	switch c.Type {
	case DatabaseTypeSQLite, DatabaseTypeSQLitePure:
		return c.Path
	case DatabaseTypePostgreSQL:
		dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
			c.Host, c.Port, c.Database, c.SSLMode)
		if c.Username != "" {
			dsn += fmt.Sprintf(" user=%s", c.Username)
		}
		if c.Password != "" {
			dsn += fmt.Sprintf(" password=%s", c.Password)
		}
		return dsn
	case DatabaseTypeMySQL, DatabaseTypeMariaDB:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.Username, c.Password, c.Host, c.Port, c.Database)
	default:
		return ""
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil && i > 0 {
			return i
		}
	}
	return defaultValue
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
