package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/directus-ops/cmsctl/pkg/config"
	"github.com/directus-ops/cmsctl/pkg/server"
	"github.com/directus-ops/cmsctl/pkg/server/endpoints"
)

const defaultDiagPort = 3000

func defaultDiagPortInt() int {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			return p
		}
	}
	return defaultDiagPort
}

// bindAddress is the --bind-address flag when given, else HOST.
func bindAddress(cmd *cobra.Command, cfg *config.Config) string {
	if cmd.Flags().Changed("bind-address") || cfg.Host == "" {
		host, _ := cmd.Flags().GetString("bind-address")
		return host
	}
	return cfg.Host
}

// diagCmd represents the diag command
var diagCmd = &cobra.Command{
	Use:   "diag",
	Short: "Run the diagnostic HTTP server",
	Long: `Run a minimal HTTP server in place of Directus.

If the diagnostic server answers but Directus does not, the problem is in
the Directus startup; if neither answers, the hosting configuration is at
fault.

Endpoints:
  GET /        status, listen address and configuration presence
  GET /health  {"status":"healthy"}

Example:
  cmsctl diag
  cmsctl diag --port 8080`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetInt("port")

		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		host := bindAddress(cmd, cfg)

		s := server.NewServer(cfg, host, strconv.Itoa(port), os.Stdout)
		endpoints.RegisterAll(s)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.Shutdown(shutdownCtx)
		}()

		log.Printf("Test server running on http://%s\n", s.Addr())
		if err := s.Start(); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(diagCmd)
	diagCmd.Flags().IntP("port", "p", defaultDiagPortInt(), "server listen port")
	diagCmd.Flags().StringP("bind-address", "b", "0.0.0.0", "server bind address (default $HOST)")
}
