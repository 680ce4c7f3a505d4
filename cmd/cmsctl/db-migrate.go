package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/directus-ops/cmsctl/pkg/db"
)

// migrationsTable keeps golang-migrate's bookkeeping apart from any
// schema_migrations table already living in a shared database.
const migrationsTable = "cmsctl_schema_migrations"

// dbMigrateCmd represents the db migrate command
var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create and/or upgrade the journal schema",
	Long: `Create and/or upgrade the journal schema.

This command runs all pending migrations against JOURNAL_DATABASE_URL.

Example:
  cmsctl db migrate`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMigrations(os.Stdout); err != nil {
			fmt.Println("Migration failed:", err)
			os.Exit(1)
		}
	},
}

var dbMigrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Rollback journal migrations",
	Long: `Rollback journal migrations.

This command rolls back the specified number of migrations (default: 1).

Example:
  cmsctl db down      # Rollback 1 migration
  cmsctl db down 3    # Rollback 3 migrations`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		steps := 1
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				fmt.Printf("Rollback failed: invalid step count %q\n", args[0])
				os.Exit(1)
			}
			steps = n
		}

		if err := runMigrationsDown(os.Stdout, steps); err != nil {
			fmt.Println("Rollback failed:", err)
			os.Exit(1)
		}
	},
}

var dbMigrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current migration version",
	Long:  `Show the current journal migration version and any pending migrations.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := showMigrationStatus(os.Stdout); err != nil {
			fmt.Println("Failed to get status:", err)
			os.Exit(1)
		}
	},
}

func init() {
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbMigrateDownCmd)
	dbCmd.AddCommand(dbMigrateStatusCmd)
}

// withMigrationsTable points golang-migrate at its own version table.
func withMigrationsTable(dbURL string) string {
	if dbURL == "" {
		return ""
	}
	if strings.Contains(dbURL, "?") {
		return dbURL + "&x-migrations-table=" + migrationsTable
	}
	return dbURL + "?x-migrations-table=" + migrationsTable
}

func openMigrations() (*migrate.Migrate, error) {
	dbURL := db.URL()
	if dbURL == "" {
		return nil, fmt.Errorf("JOURNAL_DATABASE_URL environment variable is required")
	}
	m, err := createMigrateInstance(withMigrationsTable(dbURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

func runMigrations(out io.Writer) error {
	m, err := openMigrations()
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	version, dirty, _ := m.Version()
	fmt.Fprintf(out, "Current version: %d (dirty: %v)\n", version, dirty)

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Fprintln(out, "No migrations to run - database is up to date")
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	newVersion, _, _ := m.Version()
	fmt.Fprintf(out, "Migrated to version: %d\n", newVersion)
	fmt.Fprintln(out, "Migrations complete")
	return nil
}

func runMigrationsDown(out io.Writer, steps int) error {
	m, err := openMigrations()
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	fmt.Fprintf(out, "Rolling back %d migration(s)...\n", steps)

	if err := m.Steps(-steps); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	version, _, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Fprintln(out, "Rolled back all migrations")
		return nil
	}
	fmt.Fprintf(out, "Rolled back to version: %d\n", version)
	return nil
}

func showMigrationStatus(out io.Writer) error {
	m, err := openMigrations()
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	files, err := listMigrationFiles()
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		fmt.Fprintln(out, "No migrations have been applied yet")
		version = 0
	case err != nil:
		return err
	default:
		fmt.Fprintf(out, "Current version: %d\n", version)
		if dirty {
			fmt.Fprintln(out, "Warning: Database is in a dirty state")
		}
	}

	pending := pendingMigrations(files, version)
	if len(pending) == 0 {
		fmt.Fprintln(out, "No pending migrations")
		return nil
	}
	fmt.Fprintf(out, "Pending migrations (%d):\n", len(pending))
	for _, name := range pending {
		fmt.Fprintf(out, "  %s\n", name)
	}
	return nil
}

// pendingMigrations returns the up files newer than version, in order.
// Files are named NNNNNN_description.up.sql.
func pendingMigrations(files []string, version uint) []string {
	var pending []string
	for _, name := range files {
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			continue
		}
		if uint(n) > version {
			pending = append(pending, name)
		}
	}
	sort.Strings(pending)
	return pending
}
