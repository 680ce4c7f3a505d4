package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/directus-ops/cmsctl/pkg/config"
	"github.com/directus-ops/cmsctl/pkg/console"
	"github.com/directus-ops/cmsctl/pkg/db"
)

// dbCheckCmd represents the db check command
var dbCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the Directus database is reachable",
	Long: `Connect to the database described by DB_CLIENT, DB_HOST, DB_PORT,
DB_DATABASE, DB_USER and DB_PASSWORD and report the server version.

Run this before "cmsctl server" to tell a database problem apart from a
Directus one. sqlite3 is not checked.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		if err := checkDatabase(cmd.Context(), os.Stdout, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Database check failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	dbCmd.AddCommand(dbCheckCmd)
}

func checkDatabase(ctx context.Context, out io.Writer, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	result, err := db.Preflight(ctx, cfg)
	if err != nil {
		return err
	}

	p := console.New(out)
	if !result.Checked {
		p.Warn("%s databases are not checked", result.Client)
		return nil
	}
	p.Success("%s at %s (database %s) is reachable", result.Client, result.Address, result.Database)
	p.Muted("server version %s", result.Version)
	return nil
}
