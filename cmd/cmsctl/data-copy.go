package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/directus-ops/cmsctl/pkg/audit"
	"github.com/directus-ops/cmsctl/pkg/config"
	"github.com/directus-ops/cmsctl/pkg/console"
	"github.com/directus-ops/cmsctl/pkg/directus"
)

// defaultCopyOrder lists collections so that every collection comes after
// the ones it references.
var defaultCopyOrder = []string{
	"job_roles",
	"customers",
	"employees",
	"projects",
	"projects_employees",
	"services",
	"invoices",
	"invoices_services",
	"tasks",
	"time_logs",
	"payrolls",
	"support_tickets",
	"support_tickets_tasks",
}

// endpoint is one side of a copy, read from SOURCE_* or TARGET_*.
type endpoint struct {
	URL      string `envconfig:"URL"`
	Token    string `envconfig:"TOKEN"`
	Email    string `envconfig:"EMAIL"`
	Password string `envconfig:"PASSWORD"`
}

// copyCount is the outcome for one collection.
type copyCount struct {
	Collection string
	Read       int
	Written    int
	Err        error
}

// dataCopyCmd represents the data copy command
var dataCopyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy items from one instance to another",
	Long: `Copy items from one instance to another.

Both instances must already have the schema. Each side authenticates on its
own, from --from-*/--to-* flags or the SOURCE_URL, SOURCE_TOKEN,
SOURCE_EMAIL, SOURCE_PASSWORD and TARGET_* variables. Values the target
has no field for are dropped.

A collection that fails is reported and the copy moves on to the next.

Example:
  cmsctl data copy --from https://old.example.com --to https://new.example.com
  cmsctl data copy --collections customers,projects`,
	Run: func(cmd *cobra.Command, args []string) {
		source, target, err := copyEndpoints(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		collections, _ := cmd.Flags().GetStringSlice("collections")

		counts, err := copyData(cmd.Context(), os.Stdout, source, target, collections)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Copy failed: %v\n", err)
			os.Exit(1)
		}
		strict, _ := cmd.Flags().GetBool("strict")
		if strict && copyFailures(counts) > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	dataCmd.AddCommand(dataCopyCmd)
	flags := dataCopyCmd.Flags()
	flags.String("from", "", "source instance URL (SOURCE_URL)")
	flags.String("from-token", "", "source static token (SOURCE_TOKEN)")
	flags.String("from-email", "", "source admin email (SOURCE_EMAIL)")
	flags.String("from-password", "", "source admin password (SOURCE_PASSWORD)")
	flags.String("to", "", "target instance URL (TARGET_URL)")
	flags.String("to-token", "", "target static token (TARGET_TOKEN)")
	flags.String("to-email", "", "target admin email (TARGET_EMAIL)")
	flags.String("to-password", "", "target admin password (TARGET_PASSWORD)")
	flags.StringSlice("collections", defaultCopyOrder, "collections to copy, in order")
	flags.Bool("strict", false, "exit non-zero when any collection fails")
}

// copyEndpoints reads both sides from the environment and lets flags that
// were set override them.
func copyEndpoints(cmd *cobra.Command) (connection, connection, error) {
	cfg, err := config.Current()
	if err != nil {
		return connection{}, connection{}, fmt.Errorf("invalid configuration: %w", err)
	}
	timeout := cfg.RequestTimeout
	var sides [2]connection
	for i, side := range []struct{ prefix, flag string }{{"SOURCE", "from"}, {"TARGET", "to"}} {
		var e endpoint
		if err := envconfig.Process(side.prefix, &e); err != nil {
			return connection{}, connection{}, fmt.Errorf("failed to read %s_* environment: %w", side.prefix, err)
		}
		flags := cmd.Flags()
		if flags.Changed(side.flag) {
			e.URL, _ = flags.GetString(side.flag)
		}
		for name, dst := range map[string]*string{"-token": &e.Token, "-email": &e.Email, "-password": &e.Password} {
			if flags.Changed(side.flag + name) {
				*dst, _ = flags.GetString(side.flag + name)
			}
		}
		if e.URL == "" {
			return connection{}, connection{}, fmt.Errorf("--%s or %s_URL is required", side.flag, side.prefix)
		}
		sides[i] = connection{URL: e.URL, Token: e.Token, Email: e.Email, Password: e.Password, Timeout: timeout}
	}
	return sides[0], sides[1], nil
}

func copyFailures(counts []copyCount) int {
	n := 0
	for _, c := range counts {
		if c.Err != nil {
			n++
		}
	}
	return n
}

func copyData(ctx context.Context, out io.Writer, source, target connection, collections []string) ([]copyCount, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(collections) == 0 {
		collections = defaultCopyOrder
	}

	from, err := connect(ctx, source, audit.Default)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	to, err := connect(ctx, target, audit.Default)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}

	p := console.New(out)
	p.Title("Copying %d collections from %s to %s", len(collections), from.BaseURL(), to.BaseURL())

	counts := make([]copyCount, 0, len(collections))
	for _, name := range collections {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return counts, err
		}
		c := copyCollection(ctx, from, to, name)
		counts = append(counts, c)
		switch {
		case c.Err != nil:
			p.Error("%s: %s", name, directus.Message(c.Err))
		case c.Read == 0:
			p.Warn("%s: no items", name)
		default:
			p.Success("%s: %d items copied", name, c.Written)
		}
	}

	lines := make([]string, 0, len(counts))
	for _, c := range counts {
		status := fmt.Sprintf("%d/%d", c.Written, c.Read)
		if c.Err != nil {
			status += " failed"
		}
		lines = append(lines, fmt.Sprintf("%-24s %s", c.Collection, status))
	}
	p.Panel(lines)
	return counts, nil
}

func copyCollection(ctx context.Context, from, to *directus.Client, name string) copyCount {
	c := copyCount{Collection: name}

	items, err := from.ListItems(ctx, name, directus.All())
	if err != nil {
		c.Err = err
		return c
	}
	c.Read = len(items)
	if len(items) == 0 {
		return c
	}

	fields, err := to.ListFields(ctx, name)
	if err != nil {
		c.Err = err
		return c
	}
	writable := make(map[string]bool, len(fields))
	for _, f := range fields {
		if !f.IsAlias() {
			writable[f.Field] = true
		}
	}
	for i, item := range items {
		items[i] = keepFields(item, writable)
	}

	created, err := to.CreateItems(ctx, name, items)
	if err != nil {
		c.Err = err
		return c
	}
	c.Written = len(created)
	return c
}

// keepFields drops values the target has no writable field for.
func keepFields(item directus.Item, writable map[string]bool) directus.Item {
	out := make(directus.Item, len(item))
	for k, v := range item {
		if writable[k] {
			out[k] = v
		}
	}
	return out
}
