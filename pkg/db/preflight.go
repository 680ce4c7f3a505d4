package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"

	"github.com/directus-ops/cmsctl/pkg/config"
)

// ErrIncompleteConfig is returned when the CMS database settings are missing
// a host or database name.
var ErrIncompleteConfig = errors.New("incomplete database configuration")

// CheckResult describes one preflight check.
type CheckResult struct {
	Client   string `json:"client"`
	Address  string `json:"address"`
	Database string `json:"database"`
	Checked  bool   `json:"checked"`
	Version  string `json:"version,omitempty"`
}

// Preflight opens the CMS database named by cfg and pings it. SQLite
// databases are not checked.
func Preflight(ctx context.Context, cfg *config.Config) (*CheckResult, error) {
	res := &CheckResult{Client: cfg.DBClient, Database: cfg.DBDatabase}

	if cfg.DBClient == "sqlite3" {
		return res, nil
	}
	if cfg.DBHost == "" || cfg.DBDatabase == "" {
		return res, fmt.Errorf("%w: DB_HOST and DB_DATABASE are required for %s", ErrIncompleteConfig, cfg.DBClient)
	}

	switch cfg.DBClient {
	case "mysql":
		res.Address = address(cfg.DBHost, cfg.DBPort, 3306)
		version, err := pingMySQL(ctx, MySQLDSN(cfg))
		if err != nil {
			return res, err
		}
		res.Version = version
	case "pg", "postgres":
		res.Address = address(cfg.DBHost, cfg.DBPort, 5432)
		version, err := pingPostgres(ctx, PostgresURL(cfg))
		if err != nil {
			return res, err
		}
		res.Version = version
	default:
		return res, fmt.Errorf("unsupported db_client: %s", cfg.DBClient)
	}

	res.Checked = true
	return res, nil
}

func address(host string, port, fallback int) string {
	if port == 0 {
		port = fallback
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// MySQLDSN builds a go-sql-driver DSN from the CMS database settings.
func MySQLDSN(cfg *config.Config) string {
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = address(cfg.DBHost, cfg.DBPort, 3306)
	mc.DBName = cfg.DBDatabase
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPassword
	return mc.FormatDSN()
}

// PostgresURL builds a postgres:// connection string from the CMS database
// settings.
func PostgresURL(cfg *config.Config) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   address(cfg.DBHost, cfg.DBPort, 5432),
		Path:   "/" + cfg.DBDatabase,
	}
	if cfg.DBUser != "" {
		if cfg.DBPassword != "" {
			u.User = url.UserPassword(cfg.DBUser, cfg.DBPassword)
		} else {
			u.User = url.User(cfg.DBUser)
		}
	}
	return u.String()
}

func pingMySQL(ctx context.Context, dsn string) (string, error) {
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return "", fmt.Errorf("failed to open mysql connection: %w", err)
	}
	defer conn.Close()

	if err := conn.PingContext(ctx); err != nil {
		return "", fmt.Errorf("failed to ping mysql: %w", err)
	}

	var version string
	if err := conn.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version); err != nil {
		return "", fmt.Errorf("failed to read mysql version: %w", err)
	}
	return version, nil
}

func pingPostgres(ctx context.Context, connString string) (string, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return "", fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	if err := conn.Ping(ctx); err != nil {
		return "", fmt.Errorf("failed to ping postgres: %w", err)
	}

	var version string
	if err := conn.QueryRow(ctx, "SHOW server_version").Scan(&version); err != nil {
		return "", fmt.Errorf("failed to read postgres version: %w", err)
	}
	return version, nil
}
