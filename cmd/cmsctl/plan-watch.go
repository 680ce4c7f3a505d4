package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/directus-ops/cmsctl/pkg/audit"
	"github.com/directus-ops/cmsctl/pkg/config"
	"github.com/directus-ops/cmsctl/pkg/console"
	"github.com/directus-ops/cmsctl/pkg/plan"
	"github.com/directus-ops/cmsctl/pkg/plan/executor"
)

// settle is how long the file must stay quiet before it is re-applied.
// Editors usually write a file in several events.
const settle = 250 * time.Millisecond

// planWatchCmd represents the plan watch command
var planWatchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-apply a plan file whenever it changes",
	Long: `Apply a plan file, then watch it and apply it again every time it is
saved. Runs until interrupted.

The once flag of the plan is ignored while watching. A login session is
refreshed before each apply when its access token is about to expire.

Example:
  cmsctl plan watch ./plans/custom.yml`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		if err := watchPlan(cmd, args[0], dryRun); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to watch plan: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	planCmd.AddCommand(planWatchCmd)
	planWatchCmd.Flags().Bool("dry-run", false, "read only; report what would change")
}

func watchPlan(cmd *cobra.Command, filename string, dryRun bool) error {
	filename = filepath.Clean(filename)
	if _, err := os.Stat(filename); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeJournal, err := openJournal(config.Get())
	if err != nil {
		return err
	}
	defer closeJournal()

	conn, err := connectionFromFlags(cmd)
	if err != nil {
		return err
	}
	client, err := connect(ctx, conn, audit.Default)
	if err != nil {
		return err
	}
	exec := executor.NewExecutor(client, store).
		WithDryRun(dryRun).
		WithForce(true).
		WithOperator(conn.Operator()).
		WithReporter(console.NewReporter(os.Stdout))

	apply := func() {
		p, text, err := plan.ParseFile(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading plan: %v\n", err)
			return
		}
		if err := renewSession(ctx, client, conn, audit.Default); err != nil {
			fmt.Fprintf(os.Stderr, "Error renewing session: %v\n", err)
			return
		}
		if _, err := exec.Apply(ctx, p, text); err != nil {
			fmt.Fprintf(os.Stderr, "Error applying plan: %v\n", err)
		}
	}

	return watchLoop(ctx, os.Stdout, filename, apply)
}

// watchLoop calls apply once, then again each time filename has been
// quiet for settle after a write. It returns when ctx is done.
func watchLoop(ctx context.Context, out io.Writer, filename string, apply func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory so saves that replace the file are seen too.
	if err := watcher.Add(filepath.Dir(filename)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filename, err)
	}

	apply()
	fmt.Fprintf(out, "Watching %s for changes\n", filename)

	timer := time.NewTimer(settle)
	timer.Stop()
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filename {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				timer.Reset(settle)
			}
		case <-timer.C:
			fmt.Fprintf(out, "[%s] %s changed, applying...\n", time.Now().Format(time.RFC3339), filename)
			apply()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watcher error: %v\n", err)
		case <-ctx.Done():
			fmt.Fprintln(out, "\nShutting down...")
			return nil
		}
	}
}
