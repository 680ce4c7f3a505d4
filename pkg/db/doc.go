// Package db provides database connection utilities for cmsctl.
//
// Two databases are involved. The journal database is a PostgreSQL
// database, opened through GORM, that records plan runs and audit
// messages. The CMS database belongs to Directus itself; cmsctl only
// checks that it is reachable before the CMS is started.
//
// # Journal connection
//
//	database, err := db.Connect(db.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Preflight
//
//	res, err := db.Preflight(ctx, config.Get())
//
// MySQL is checked with go-sql-driver/mysql and PostgreSQL with pgx.
// SQLite databases are reported as not checked.
//
// # Environment Variables
//
//   - JOURNAL_DATABASE_URL: PostgreSQL connection string for the journal
//   - CMSCTL_LOG_LEVEL: Set to "debug" for SQL query logging
//   - DB_CLIENT, DB_HOST, DB_PORT, DB_DATABASE, DB_USER, DB_PASSWORD: the
//     CMS database checked by preflight
package db
