package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cmsctl",
	Short: "Directus deployment and administration toolkit",
	Long: `Launch a Directus CMS and manage its schema, access rules and data.

Connection settings come from the configuration (see "cmsctl configuration
show") and can be overridden per command with --url, --token, --email and
--password.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}

func init() {
	rootCmd.PersistentFlags().String("url", "", "Directus base URL (default: PUBLIC_URL)")
	rootCmd.PersistentFlags().String("token", "", "static access token (default: ADMIN_TOKEN)")
	rootCmd.PersistentFlags().String("email", "", "admin email (default: ADMIN_EMAIL)")
	rootCmd.PersistentFlags().String("password", "", "admin password (default: ADMIN_PASSWORD)")
}
