package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/directus-ops/cmsctl/pkg/config"
	"github.com/directus-ops/cmsctl/pkg/directus"
	"github.com/directus-ops/cmsctl/pkg/launcher"
)

// waitCmd represents the wait command
var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for Directus to be ready",
	Long: `Wait for Directus to be ready by polling /server/health.

This command will repeatedly check the server health until it responds
successfully or the maximum number of retries is reached.

Example:
  cmsctl wait
  cmsctl wait --url http://localhost:8055 --retries 60 --interval 2s`,
	Run: func(cmd *cobra.Command, args []string) {
		url, _ := cmd.Flags().GetString("url")
		retries, _ := cmd.Flags().GetInt("retries")
		interval, _ := cmd.Flags().GetDuration("interval")

		if url == "" {
			cfg, err := config.Current()
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
				os.Exit(1)
			}
			url = cfg.PublicURL
		}

		if err := waitForServer(cmd.Context(), os.Stdout, url, retries, interval); err != nil {
			fmt.Fprintf(os.Stderr, "Server did not become ready: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().IntP("retries", "r", 90, "Number of retries")
	waitCmd.Flags().Duration("interval", time.Second, "Delay between attempts")
}

func waitForServer(ctx context.Context, out io.Writer, url string, retries int, interval time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	fmt.Fprintf(out, "Waiting for Directus at %s to be ready...\n", url)

	w := launcher.Waiter{
		Client:   directus.New(url, directus.WithTimeout(2*time.Second)),
		Retries:  retries,
		Interval: interval,
		Progress: out,
	}
	if err := w.Wait(ctx); err != nil {
		return err
	}

	fmt.Fprintln(out, "Directus is ready!")
	return nil
}
