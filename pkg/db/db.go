package db

import (
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds journal database connection configuration
type Config struct {
	// URL is the database connection URL (defaults to JOURNAL_DATABASE_URL env var)
	URL string
	// LogLevel selects GORM query logging (defaults to CMSCTL_LOG_LEVEL env var)
	LogLevel string
}

// Connect establishes a connection to the journal database.
// If no URL is provided, it reads from JOURNAL_DATABASE_URL environment variable.
func Connect(cfg Config) (*gorm.DB, error) {
	dbURL := cfg.URL
	if dbURL == "" {
		dbURL = URL()
	}
	if dbURL == "" {
		return nil, fmt.Errorf("JOURNAL_DATABASE_URL environment variable is required")
	}

	level := cfg.LogLevel
	if level == "" {
		level = os.Getenv("CMSCTL_LOG_LEVEL")
	}

	db, err := gorm.Open(
		postgres.New(postgres.Config{
			DSN:                  dbURL,
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		}),
		&gorm.Config{
			Logger: logger.Default.LogMode(LogMode(level)),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to journal database: %w", err)
	}
	return db, nil
}

// LogMode maps a CMSCTL_LOG_LEVEL value to a GORM log level. Anything
// unrecognised is silent.
func LogMode(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.Info
	case "warn":
		return logger.Warn
	case "error":
		return logger.Error
	default:
		return logger.Silent
	}
}

// URL returns the journal database URL from environment.
// Returns empty string if JOURNAL_DATABASE_URL is not set.
func URL() string {
	return os.Getenv("JOURNAL_DATABASE_URL")
}
