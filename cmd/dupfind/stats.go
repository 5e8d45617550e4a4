package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics from the saved snapshot",
	Long: `Stats loads the index snapshot and reports corpus size, vocabulary
growth, and per-table bucket distribution.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	log := newLogger(cfg)

	eng, err := loadEngine(cfg, log)
	if err != nil {
		return err
	}

	stats := eng.Stats()
	return printOutput(stats, func() string {
		var b strings.Builder
		fmt.Fprintf(&b, "Blocks indexed:  %d\n", stats.Blocks)
		if stats.VocabSize > 0 {
			fmt.Fprintf(&b, "Vocabulary:      %d terms over %d documents\n", stats.VocabSize, stats.DocCount)
		}
		fmt.Fprintf(&b, "Index:           %d tables x %d bits, dimension %d\n",
			stats.Index.Tables, stats.Index.Bits, stats.Index.Dimension)
		fmt.Fprintf(&b, "Entries:         %d (bucket size min %d / avg %.1f / max %d)\n",
			stats.Index.TotalEntries, stats.Index.MinBucketSize,
			stats.Index.AvgBucketSize, stats.Index.MaxBucketSize)
		return b.String()
	})
}
