package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/directus-ops/cmsctl/pkg/plan"
)

// planListCmd represents the plan list command
var planListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the bundled plans in apply order",
	Run: func(cmd *cobra.Command, args []string) {
		if err := listPlans(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list plans: %v\n", err)
			os.Exit(1)
		}
	},
}

// planShowCmd represents the plan show command
var planShowCmd = &cobra.Command{
	Use:   "show <name|file>",
	Short: "Print a plan document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, text, err := plan.Load(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load plan: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(string(text))
	},
}

// planValidateCmd represents the plan validate command
var planValidateCmd = &cobra.Command{
	Use:   "validate <name|file>...",
	Short: "Check plans without contacting Directus",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := validatePlans(os.Stdout, args); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	planCmd.AddCommand(planListCmd)
	planCmd.AddCommand(planShowCmd)
	planCmd.AddCommand(planValidateCmd)
}

func listPlans(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tSTEPS\tREQUIRES\tDESCRIPTION")
	for _, name := range plan.BuiltinNames() {
		b, err := plan.Builtin(name)
		if err != nil {
			return err
		}
		requires := strings.Join(b.Plan.Requires, ",")
		if requires == "" {
			requires = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", b.Order, name, len(b.Plan.Steps), requires, firstLine(b.Plan.Description))
	}
	return w.Flush()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func validatePlans(out io.Writer, refs []string) error {
	failed := 0
	for _, ref := range refs {
		p, _, err := plan.Load(ref)
		if err == nil {
			err = p.Validate()
		}
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s: %v\n", ref, err)
			continue
		}
		fmt.Fprintf(out, "%s: ok (%d steps)\n", ref, len(p.Steps))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d plans are invalid", failed, len(refs))
	}
	return nil
}
