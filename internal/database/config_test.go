package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDatabaseType(t *testing.T) {
	assert.Equal(t, DatabaseTypePostgreSQL, ParseDatabaseType("Postgres"))
	assert.Equal(t, DatabaseTypeSQLite, ParseDatabaseType(""))
	assert.Equal(t, DatabaseTypeSQLitePure, ParseDatabaseType("sqlite_pure"))
	assert.Equal(t, DatabaseType("oracle"), ParseDatabaseType("oracle"))
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "postgresql")
	t.Setenv("DATABASE_HOST", "db.internal")
	t.Setenv("DATABASE_USER", "saga")

	c := DatabaseConfig{}
	ApplyEnv(&c)

	assert.Equal(t, DatabaseTypePostgreSQL, c.Type)
	assert.Equal(t, "db.internal", c.Host)
	assert.Equal(t, 5432, c.Port)
	assert.Equal(t, "prefer", c.SSLMode)
	assert.NoError(t, c.Validate())
	assert.Equal(t, "host=db.internal port=5432 dbname=saga sslmode=prefer user=saga", c.GetDSN())
}

func TestValidate(t *testing.T) {
	assert.Error(t, (&DatabaseConfig{Type: DatabaseTypeSQLite}).Validate())
	assert.Error(t, (&DatabaseConfig{Type: DatabaseTypeMySQL, Database: "x", Port: 3306}).Validate())
	assert.Error(t, (&DatabaseConfig{Type: "oracle"}).Validate())
	assert.NoError(t, (&DatabaseConfig{Type: DatabaseTypeSQLitePure, Path: "x.db"}).Validate())
}

func TestMySQLDSN(t *testing.T) {
	c := DatabaseConfig{Type: DatabaseTypeMySQL, Host: "h", Port: 3306, Database: "d", Username: "u", Password: "p"}
	assert.Equal(t, "u:p@tcp(h:3306)/d?charset=utf8mb4&parseTime=True&loc=Local", c.GetDSN())
}
