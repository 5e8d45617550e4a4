package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dupfind/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the dupfind version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dupfind version %s\n", version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
