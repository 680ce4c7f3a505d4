package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// planCmd represents the plan command
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Manage schema and data plans",
	Long: `Inspect, validate and apply plans.

A plan is a YAML document describing a sequence of schema, access and data
changes against a Directus instance. Plans bundled with cmsctl are referred
to by name; anything containing a path separator or ending in .yml/.yaml is
read from disk.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'plan' requires a subcommand (list, show, validate, apply, watch, history)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
}
