package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dupfind/internal/storage"
)

var (
	historyLimit  int
	historyScanID string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded scan runs and their findings",
	Long: `History lists past scan runs from the findings database. With --scan,
it shows the clone blocks recorded for one run.

Examples:
  dupfind history
  dupfind history --limit 5
  dupfind history --scan 4f7c2b1a-... --format json`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of scans to list")
	historyCmd.Flags().StringVar(&historyScanID, "scan", "", "Show clone blocks for one scan id")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	log := newLogger(cfg)

	db, err := storage.Open(rootDir, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if historyScanID != "" {
		return showScan(db, historyScanID)
	}

	scans, err := db.ListScans(historyLimit)
	if err != nil {
		return err
	}
	return printOutput(scans, func() string { return renderScansHuman(scans) })
}

func showScan(db *storage.DB, id string) error {
	scan, err := db.Scan(id)
	if err != nil {
		return err
	}
	rows, err := db.ScanClones(id)
	if err != nil {
		return err
	}

	out := struct {
		Scan   *storage.ScanRecord     `json:"scan" yaml:"scan"`
		Clones []storage.CloneBlockRow `json:"clones" yaml:"clones"`
	}{scan, rows}

	return printOutput(out, func() string {
		var b strings.Builder
		fmt.Fprintf(&b, "Scan %s (%s): %d files, %d blocks, %d clusters\n",
			scan.ID, scan.StartedAt.Format(time.RFC3339), scan.Files, scan.BlocksAdded, scan.Clusters)
		lastCluster := -1
		for _, row := range rows {
			if row.ClusterIdx != lastCluster {
				fmt.Fprintf(&b, "\nCluster %d:\n", row.ClusterIdx+1)
				lastCluster = row.ClusterIdx
			}
			fmt.Fprintf(&b, "  %s:%d-%d (%s)\n", row.FilePath, row.StartLine, row.EndLine, row.Kind)
		}
		return b.String()
	})
}

func renderScansHuman(scans []storage.ScanRecord) string {
	if len(scans) == 0 {
		return "No scans recorded.\n"
	}
	var b strings.Builder
	for _, s := range scans {
		fmt.Fprintf(&b, "%s  %s  files=%d blocks=%d clusters=%d failed=%d\n",
			s.StartedAt.Format("2006-01-02 15:04:05"), s.ID,
			s.Files, s.BlocksAdded, s.Clusters, s.Failed)
	}
	return b.String()
}
