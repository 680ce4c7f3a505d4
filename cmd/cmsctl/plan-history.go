package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/directus-ops/cmsctl/pkg/config"
	"github.com/directus-ops/cmsctl/pkg/journal"
)

// planHistoryCmd represents the plan history command
var planHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent plan runs from the journal",
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := config.Current()
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
			os.Exit(1)
		}
		store, closeJournal, err := requireJournal(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		defer closeJournal()

		if err := printHistory(cmd.Context(), os.Stdout, store, limit); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read journal: %v\n", err)
			closeJournal()
			os.Exit(1)
		}
	},
}

func init() {
	planCmd.AddCommand(planHistoryCmd)
	planHistoryCmd.Flags().IntP("limit", "n", 20, "number of runs to show")
}

func printHistory(ctx context.Context, out io.Writer, store journal.Store, limit int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tPLAN\tSTATUS\tAPPLIED\tSKIPPED\tFAILED\tOPERATOR\tTARGET")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			run.StartedAt.Format(time.RFC3339), run.Plan, run.Status,
			run.Applied, run.Skipped, run.Failed, run.Operator, run.Target)
	}
	return w.Flush()
}
