package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/directus-ops/cmsctl/pkg/console"
	"github.com/directus-ops/cmsctl/pkg/snapshot"
)

// snapshotPatchCmd represents the snapshot patch command
var snapshotPatchCmd = &cobra.Command{
	Use:   "patch <in>",
	Short: "Add fields that relations point at but the snapshot lacks",
	Long: `Add fields that relations point at but the snapshot lacks.

Directus refuses a snapshot in which a relation names a field that is not
defined. For every such relation a hidden integer many-to-one field is
added. Without -o the input file is rewritten.

Example:
  cmsctl snapshot patch snapshot.json -o snapshot-fixed.json`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")
		if err := patchSnapshot(os.Stdout, args[0], output); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to patch snapshot: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotPatchCmd)
	snapshotPatchCmd.Flags().StringP("output", "o", "", "file to write (default: overwrite the input)")
}

func patchSnapshot(out io.Writer, input, output string) error {
	if output == "" {
		output = input
	}
	snap, err := snapshot.Read(input)
	if err != nil {
		return err
	}

	added := snapshot.Patch(snap)
	p := console.New(out)
	for _, ref := range added {
		p.Success("added %s", ref)
	}

	if err := snapshot.Write(output, snap); err != nil {
		return err
	}
	p.Info("%d fields added, written to %s", len(added), output)
	return nil
}
