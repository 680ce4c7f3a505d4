package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/directus-ops/cmsctl/pkg/config"
	"github.com/directus-ops/cmsctl/pkg/directus"
	"github.com/directus-ops/cmsctl/pkg/launcher"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the Directus CMS",
	Long: `Run the Directus CMS as a child process.

PORT, HOST and PUBLIC_URL are resolved from the configuration and passed to
Directus; every other variable is inherited unchanged. SIGINT and SIGTERM
are forwarded and cmsctl exits with the status of Directus.

Example:
  cmsctl server
  cmsctl server --bootstrap --wait`,
	Run: func(cmd *cobra.Command, args []string) {
		bootstrap, _ := cmd.Flags().GetBool("bootstrap")
		wait, _ := cmd.Flags().GetBool("wait")

		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
			os.Exit(1)
		}

		os.Exit(runServer(cmd.Context(), cfg, bootstrap, wait))
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().Bool("bootstrap", false, "run \"directus bootstrap\" before starting")
	serverCmd.Flags().Bool("wait", false, "log when /server/health starts answering")
}

func runServer(ctx context.Context, cfg *config.Config, bootstrap, wait bool) int {
	if ctx == nil {
		ctx = context.Background()
	}
	l := launcher.New(cfg)

	if bootstrap {
		if err := l.Bootstrap(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Bootstrap failed: %v\n", err)
			return 1
		}
	}

	if wait {
		url := fmt.Sprintf("http://127.0.0.1:%d", cfg.Port)
		w := launcher.Waiter{
			Client:   directus.New(url, directus.WithTimeout(2*time.Second)),
			Retries:  90,
			Interval: time.Second,
		}
		l.WithReadiness(w.Wait)
	}

	code, err := l.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start Directus: %v\n", err)
	}
	return code
}
