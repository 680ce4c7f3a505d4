package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/directus-ops/cmsctl/pkg/report"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute billing and payroll from logged time",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'report' requires a subcommand (billing, payroll)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.PersistentFlags().String("formula", "", "expr formula overriding the default")
	reportCmd.PersistentFlags().String("format", "md", "output format (md or html)")
	reportCmd.PersistentFlags().Bool("legacy", false, "read developers instead of employees")
}

// reportOptions are the flags shared by the report subcommands.
type reportOptions struct {
	Formula string
	Format  report.Format
	Schema  report.Schema
}

func reportOptionsFromFlags(cmd *cobra.Command) (reportOptions, error) {
	var opts reportOptions
	opts.Formula, _ = cmd.Flags().GetString("formula")
	format, _ := cmd.Flags().GetString("format")
	f, err := report.ParseFormat(format)
	if err != nil {
		return opts, err
	}
	opts.Format = f
	opts.Schema = report.DefaultSchema
	if legacy, _ := cmd.Flags().GetBool("legacy"); legacy {
		opts.Schema = report.LegacySchema
	}
	return opts, nil
}
