package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/directus-ops/cmsctl/pkg/audit"
	"github.com/directus-ops/cmsctl/pkg/console"
	"github.com/directus-ops/cmsctl/pkg/snapshot"
)

// snapshotApplyCmd represents the snapshot apply command
var snapshotApplyCmd = &cobra.Command{
	Use:   "apply <file>",
	Short: "Bring an instance's schema in line with a snapshot",
	Long: `Bring an instance's schema in line with a snapshot.

The snapshot is diffed against the instance and the diff, if any, is
applied. --force skips the Directus version and database vendor checks.

Example:
  cmsctl snapshot apply snapshot.json --dry-run`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		if err := applySnapshot(cmd.Context(), os.Stdout, mustConnection(cmd), args[0], force, dryRun); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to apply snapshot: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotApplyCmd)
	snapshotApplyCmd.Flags().Bool("force", false, "skip version and vendor checks")
	snapshotApplyCmd.Flags().Bool("dry-run", false, "only show the diff summary")
}

func applySnapshot(ctx context.Context, out io.Writer, conn connection, path string, force, dryRun bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	snap, err := snapshot.Read(path)
	if err != nil {
		return err
	}
	client, err := connect(ctx, conn, audit.Default)
	if err != nil {
		return err
	}

	diff, err := client.Diff(ctx, snap, force)
	if err != nil {
		return fmt.Errorf("diff failed: %w", err)
	}
	p := console.New(out)
	if diff == nil {
		p.Info("no changes")
		return nil
	}

	summary := snapshot.FormatSummary(snapshot.Summary(diff))
	if dryRun {
		p.Info("would apply: %s", summary)
		return nil
	}
	if err := client.Apply(ctx, diff); err != nil {
		return fmt.Errorf("apply failed: %w", err)
	}
	p.Success("applied: %s", summary)
	return nil
}
