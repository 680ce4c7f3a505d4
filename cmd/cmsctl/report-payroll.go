package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/directus-ops/cmsctl/pkg/audit"
	"github.com/directus-ops/cmsctl/pkg/report"
)

// reportPayrollCmd represents the report payroll command
var reportPayrollCmd = &cobra.Command{
	Use:   "payroll",
	Short: "Amount owed per employee for one month",
	Long: `Amount owed per employee for one month.

Minutes logged in the month are totalled per employee and priced with the
formula, which can use total_minutes, total_hours and hourly_rate. The
month defaults to the current one.

Example:
  cmsctl report payroll --month 1 --year 2025`,
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := reportOptionsFromFlags(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		month, _ := cmd.Flags().GetInt("month")
		year, _ := cmd.Flags().GetInt("year")
		if err := payrollReport(cmd.Context(), os.Stdout, mustConnection(cmd), opts, month, year); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to compute payroll: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	reportCmd.AddCommand(reportPayrollCmd)
	now := time.Now()
	reportPayrollCmd.Flags().Int("month", int(now.Month()), "month (1-12)")
	reportPayrollCmd.Flags().Int("year", now.Year(), "year")
}

func payrollReport(ctx context.Context, out io.Writer, conn connection, opts reportOptions, month, year int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := connect(ctx, conn, audit.Default)
	if err != nil {
		return err
	}
	payroll, err := report.ComputePayroll(ctx, client, opts.Schema, month, year, opts.Formula)
	if err != nil {
		return err
	}
	return payroll.Table().Write(out, opts.Format)
}
