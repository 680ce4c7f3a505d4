package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/directus-ops/cmsctl/pkg/audit"
	"github.com/directus-ops/cmsctl/pkg/report"
)

// reportBillingCmd represents the report billing command
var reportBillingCmd = &cobra.Command{
	Use:   "billing",
	Short: "Billable amount per project",
	Long: `Billable amount per project.

Every time log is priced with the formula and the results are summed per
project. The formula can use minutes, hours and hourly_rate, the rate being
that of the person who logged the time.

Example:
  cmsctl report billing
  cmsctl report billing --formula 'hours * hourly_rate * 1.2' --format html`,
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := reportOptionsFromFlags(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		if err := billingReport(cmd.Context(), os.Stdout, mustConnection(cmd), opts); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to compute billing: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	reportCmd.AddCommand(reportBillingCmd)
}

func billingReport(ctx context.Context, out io.Writer, conn connection, opts reportOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := connect(ctx, conn, audit.Default)
	if err != nil {
		return err
	}
	billing, err := report.ComputeBilling(ctx, client, opts.Schema, opts.Formula)
	if err != nil {
		return err
	}
	return billing.Table().Write(out, opts.Format)
}
