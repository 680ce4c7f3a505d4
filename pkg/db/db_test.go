package db

import (
	"context"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/directus-ops/cmsctl/pkg/config"
)

func TestConnectRequiresURL(t *testing.T) {
	t.Setenv("JOURNAL_DATABASE_URL", "")

	_, err := Connect(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JOURNAL_DATABASE_URL")
}

func TestLogMode(t *testing.T) {
	assert.Equal(t, logger.Info, LogMode("debug"))
	assert.Equal(t, logger.Warn, LogMode("warn"))
	assert.Equal(t, logger.Error, LogMode("error"))
	assert.Equal(t, logger.Silent, LogMode("info"))
	assert.Equal(t, logger.Silent, LogMode(""))
}

func TestMySQLDSN(t *testing.T) {
	cfg := &config.Config{DBHost: "db.internal", DBPort: 3307, DBDatabase: "directus", DBUser: "cms", DBPassword: "p@ss"}

	parsed, err := mysql.ParseDSN(MySQLDSN(cfg))
	require.NoError(t, err)
	assert.Equal(t, "tcp", parsed.Net)
	assert.Equal(t, "db.internal:3307", parsed.Addr)
	assert.Equal(t, "directus", parsed.DBName)
	assert.Equal(t, "cms", parsed.User)
	assert.Equal(t, "p@ss", parsed.Passwd)
}

func TestPostgresURL(t *testing.T) {
	cfg := &config.Config{DBHost: "pg", DBDatabase: "directus", DBUser: "cms", DBPassword: "secret"}
	assert.Equal(t, "postgres://cms:secret@pg:5432/directus", PostgresURL(cfg))

	cfg = &config.Config{DBHost: "pg", DBPort: 6543, DBDatabase: "directus", DBUser: "cms"}
	assert.Equal(t, "postgres://cms@pg:6543/directus", PostgresURL(cfg))
}

func TestPreflightSQLiteNotChecked(t *testing.T) {
	res, err := Preflight(context.Background(), &config.Config{DBClient: "sqlite3"})
	require.NoError(t, err)
	assert.False(t, res.Checked)
}

func TestPreflightIncomplete(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{"missing host", config.Config{DBClient: "pg", DBDatabase: "directus"}},
		{"missing database", config.Config{DBClient: "mysql", DBHost: "db"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			_, err := Preflight(context.Background(), &cfg)
			assert.ErrorIs(t, err, ErrIncompleteConfig)
		})
	}
}

func TestPreflightUnsupportedClient(t *testing.T) {
	_, err := Preflight(context.Background(), &config.Config{DBClient: "mssql", DBHost: "db", DBDatabase: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported db_client")
}

func TestPreflightPostgresUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := &config.Config{DBClient: "postgres", DBHost: "127.0.0.1", DBPort: 1, DBDatabase: "directus", DBUser: "cms"}
	res, err := Preflight(ctx, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to postgres")
	assert.Equal(t, "127.0.0.1:1", res.Address)
	assert.False(t, res.Checked)
}
