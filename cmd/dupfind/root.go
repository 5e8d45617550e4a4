package main

import (
	"github.com/spf13/cobra"

	"dupfind/internal/version"
)

var (
	rootDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "dupfind",
	Short: "dupfind - code clone detector",
	Long: `dupfind detects code clones across a codebase. It splits source files into
function, method, and class blocks with tree-sitter, embeds each block as a
TF-IDF vector reduced by random projection, and indexes the vectors in a
hyperplane LSH index for fast approximate similarity search. Matches are
classified into clone types 1-4 by similarity band.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("dupfind version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "human", "Output format (human, json, yaml)")
}
