package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// dataCmd represents the data command
var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Move content between instances",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'data' requires a subcommand copy")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(dataCmd)
}
