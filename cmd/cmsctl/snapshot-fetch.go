package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/directus-ops/cmsctl/pkg/audit"
	"github.com/directus-ops/cmsctl/pkg/snapshot"
)

// snapshotFetchCmd represents the snapshot fetch command
var snapshotFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Save the schema snapshot of an instance",
	Long: `Save the schema snapshot of an instance to a file.

Example:
  cmsctl snapshot fetch --url https://cms.example.com -o snapshot.json
  cmsctl snapshot fetch -o -    # write to stdout`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")
		if err := fetchSnapshot(cmd.Context(), os.Stdout, mustConnection(cmd), output); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to fetch snapshot: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotFetchCmd)
	snapshotFetchCmd.Flags().StringP("output", "o", "snapshot.json", "file to write, or - for stdout")
}

func fetchSnapshot(ctx context.Context, out io.Writer, conn connection, output string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := connect(ctx, conn, audit.Default)
	if err != nil {
		return err
	}
	snap, err := client.Snapshot(ctx)
	if err != nil {
		return err
	}

	if output == "-" {
		data, err := snapshot.Encode(snap)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}
	if err := snapshot.Write(output, snap); err != nil {
		return err
	}
	fmt.Fprintf(out, "Snapshot saved to %s (%s)\n", output, snapshot.FormatSummary(snapshot.Summary(snap)))
	return nil
}
