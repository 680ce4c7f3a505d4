package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/directus-ops/cmsctl/pkg/audit"
	"github.com/directus-ops/cmsctl/pkg/config"
	"github.com/directus-ops/cmsctl/pkg/console"
	"github.com/directus-ops/cmsctl/pkg/journal"
	"github.com/directus-ops/cmsctl/pkg/plan"
	"github.com/directus-ops/cmsctl/pkg/plan/executor"
)

// applyOptions are the plan apply flags.
type applyOptions struct {
	DryRun bool
	Force  bool
	Strict bool
	All    bool
	Output string
}

// planApplyCmd represents the plan apply command
var planApplyCmd = &cobra.Command{
	Use:   "apply <name|file>...",
	Short: "Apply plans to a Directus instance",
	Long: `Apply plans to a Directus instance, one after the other.

Steps run strictly in order. A failed step is reported and the run goes on,
unless the step is marked required. An authentication failure stops
everything.

When JOURNAL_DATABASE_URL is set every run is recorded. Plans that require
other plans are refused until those have succeeded against the same
instance, either in the journal or earlier in the same invocation. Plans
marked once are not applied twice unless --force is given.

Example:
  cmsctl plan apply schema-setup time-logs
  cmsctl plan apply --all --dry-run
  cmsctl plan apply ./plans/custom.yml --output json`,
	Run: func(cmd *cobra.Command, args []string) {
		var opts applyOptions
		opts.DryRun, _ = cmd.Flags().GetBool("dry-run")
		opts.Force, _ = cmd.Flags().GetBool("force")
		opts.Strict, _ = cmd.Flags().GetBool("strict")
		opts.All, _ = cmd.Flags().GetBool("all")
		opts.Output, _ = cmd.Flags().GetString("output")

		refs := args
		if opts.All {
			refs = plan.BuiltinNames()
		}
		if len(refs) == 0 {
			fmt.Fprintln(os.Stderr, "error: no plans given (pass names, files or --all)")
			os.Exit(1)
		}

		conn := mustConnection(cmd)
		store, closeJournal, err := openJournal(config.Get())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open journal: %v\n", err)
			os.Exit(1)
		}
		defer closeJournal()

		if err := applyPlans(cmd.Context(), os.Stdout, conn, store, audit.Default, refs, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Apply failed: %v\n", err)
			closeJournal()
			os.Exit(1)
		}
	},
}

func init() {
	planCmd.AddCommand(planApplyCmd)
	planApplyCmd.Flags().Bool("dry-run", false, "read only; report what would change")
	planApplyCmd.Flags().Bool("force", false, "skip requires/once checks")
	planApplyCmd.Flags().Bool("strict", false, "exit non-zero when any step fails")
	planApplyCmd.Flags().Bool("all", false, "apply every bundled plan in order")
	planApplyCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
}

// applyPlans loads every ref first so a typo fails before anything is
// changed, then applies them in order.
func applyPlans(ctx context.Context, out io.Writer, conn connection, store journal.Store, sink audit.Sink, refs []string, opts applyOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Output != "text" && opts.Output != "json" {
		return fmt.Errorf("unsupported output format %q", opts.Output)
	}

	type loaded struct {
		plan *plan.Plan
		text []byte
	}
	plans := make([]loaded, 0, len(refs))
	for _, ref := range refs {
		p, text, err := plan.Load(ref)
		if err != nil {
			return err
		}
		plans = append(plans, loaded{p, text})
	}

	client, err := connect(ctx, conn, sink)
	if err != nil {
		return err
	}

	exec := executor.NewExecutor(client, store).
		WithDryRun(opts.DryRun).
		WithForce(opts.Force).
		WithOperator(conn.Operator()).
		WithAuditLogger(sink)
	if opts.Output == "text" {
		exec.WithReporter(console.NewReporter(out))
	}
	printer := console.New(out)

	var results []*executor.Result
	failedSteps := 0
	for _, l := range plans {
		result, err := exec.Apply(ctx, l.plan, l.text)
		if errors.Is(err, executor.ErrAlreadyApplied) {
			if opts.Output == "text" {
				printer.Info("%s was already applied to %s (use --force to re-apply)", l.plan.Name, client.BaseURL())
			}
			continue
		}
		if result != nil {
			results = append(results, result)
			failedSteps += result.Failed
		}
		if err != nil {
			writeResults(out, opts.Output, results)
			return err
		}
	}

	if err := writeResults(out, opts.Output, results); err != nil {
		return err
	}
	if opts.Strict && failedSteps > 0 {
		return fmt.Errorf("%d steps failed", failedSteps)
	}
	return nil
}

func writeResults(out io.Writer, format string, results []*executor.Result) error {
	if format != "json" {
		return nil
	}
	if results == nil {
		results = []*executor.Result{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
