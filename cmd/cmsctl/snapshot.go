package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Fetch, repair and apply schema snapshots",
	Long: `Fetch, repair and apply Directus schema snapshots.

A snapshot taken on one instance can be applied to another to bring its
collections, fields and relations in line.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'snapshot' requires a subcommand (fetch, patch, apply)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}
