package main

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"dupfind/internal/blocks"
	"dupfind/internal/engine"
	"dupfind/internal/logging"
	"dupfind/internal/storage"
)

var (
	scanMinSimilarity float64
	scanNoSave        bool
	scanNoHistory     bool
)

// skipDirs are directory names never descended into during a scan.
var skipDirs = map[string]bool{
	".git":         true,
	".dupfind":     true,
	"node_modules": true,
	"vendor":       true,
	"build":        true,
	"dist":         true,
	"target":       true,
}

var scanCmd = &cobra.Command{
	Use:   "scan [paths...]",
	Short: "Scan source files and report clone clusters",
	Long: `Scan walks the given paths (default: the project root), splits every
supported source file into blocks, indexes them, and reports clusters of
similar blocks. The index snapshot is written to .dupfind/index.zst and the
run is recorded in the findings database.

Examples:
  dupfind scan
  dupfind scan src/ pkg/
  dupfind scan --min-similarity 0.95 --format json`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().Float64Var(&scanMinSimilarity, "min-similarity", 0, "Clustering threshold (0 = config default)")
	scanCmd.Flags().BoolVar(&scanNoSave, "no-save", false, "Skip writing the index snapshot")
	scanCmd.Flags().BoolVar(&scanNoHistory, "no-history", false, "Skip recording the scan in the findings database")
	rootCmd.AddCommand(scanCmd)
}

// ScanReport is the scan command output.
type ScanReport struct {
	ScanID     string       `json:"scanId" yaml:"scanId"`
	Files      int          `json:"files" yaml:"files"`
	Added      int          `json:"added" yaml:"added"`
	Skipped    int          `json:"skipped" yaml:"skipped"`
	Duplicates int          `json:"duplicates" yaml:"duplicates"`
	Failed     int          `json:"failed" yaml:"failed"`
	Clusters   []ClusterCLI `json:"clusters" yaml:"clusters"`
	DurationMs int64        `json:"durationMs" yaml:"durationMs"`
}

// ClusterCLI is one clone cluster in the report.
type ClusterCLI struct {
	Size   int        `json:"size" yaml:"size"`
	Blocks []BlockCLI `json:"blocks" yaml:"blocks"`
}

// BlockCLI is one cluster member in the report.
type BlockCLI struct {
	FilePath  string `json:"filePath" yaml:"filePath"`
	StartLine int    `json:"startLine" yaml:"startLine"`
	EndLine   int    `json:"endLine" yaml:"endLine"`
	Kind      string `json:"kind" yaml:"kind"`
}

func runScan(cmd *cobra.Command, args []string) error {
	started := time.Now()
	cfg := mustLoadConfig()
	log := newLogger(cfg)

	if !blocks.IsAvailable() {
		return fmt.Errorf("scanning requires CGO (tree-sitter); this binary was built without it")
	}

	eng, err := buildEngine(cfg, log)
	if err != nil {
		return err
	}

	paths := args
	if len(paths) == 0 {
		paths = []string{rootDir}
	}

	splitter := blocks.NewSplitter()
	ctx := context.Background()
	report := ScanReport{ScanID: uuid.NewString()}

	for _, path := range paths {
		if err := walkAndIndex(ctx, splitter, eng, path, log, &report); err != nil {
			return err
		}
	}

	clusters, err := eng.FindAllClones(engine.CloneOptions{MinSimilarity: scanMinSimilarity})
	if err != nil {
		return err
	}
	for _, c := range clusters {
		cli := ClusterCLI{Size: c.Size()}
		for _, blk := range c.Blocks {
			cli.Blocks = append(cli.Blocks, BlockCLI{
				FilePath:  blk.FilePath,
				StartLine: blk.StartLine,
				EndLine:   blk.EndLine,
				Kind:      blk.Kind,
			})
		}
		report.Clusters = append(report.Clusters, cli)
	}
	report.DurationMs = time.Since(started).Milliseconds()

	if !scanNoSave {
		if err := saveEngine(eng); err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}
	}
	if !scanNoHistory {
		if err := recordScan(log, report, started, clusters); err != nil {
			// History is observability only; a failed write must not fail
			// the scan.
			log.Warn("failed to record scan history", logging.Fields{"error": err.Error()})
		}
	}

	return printOutput(report, func() string { return renderScanHuman(report) })
}

func walkAndIndex(ctx context.Context, splitter *blocks.Splitter, eng *engine.Engine,
	path string, log *logging.Logger, report *ScanReport) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := blocks.LanguageFromExtension(strings.ToLower(filepath.Ext(p))); !ok {
			return nil
		}

		blks, err := splitter.SplitFile(ctx, p)
		if err != nil {
			log.Warn("failed to split file", logging.Fields{"file": p, "error": err.Error()})
			report.Failed++
			return nil
		}

		rel := relPath(p)
		sum := eng.IndexBlocks(rel, blks)
		report.Files++
		report.Added += sum.Added
		report.Skipped += sum.Skipped
		report.Duplicates += sum.Duplicates
		report.Failed += sum.Failed
		return nil
	})
}

func relPath(p string) string {
	rel, err := filepath.Rel(rootDir, p)
	if err != nil {
		return p
	}
	return rel
}

func recordScan(log *logging.Logger, report ScanReport, started time.Time, clusters []engine.Cluster) error {
	db, err := storage.Open(rootDir, log)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.RecordScan(storage.ScanRecord{
		ID:            report.ScanID,
		StartedAt:     started,
		FinishedAt:    time.Now(),
		Files:         report.Files,
		BlocksAdded:   report.Added,
		BlocksSkipped: report.Skipped,
		Duplicates:    report.Duplicates,
		Failed:        report.Failed,
	}, clusters)
}

func renderScanHuman(report ScanReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scanned %d files: %d blocks indexed, %d skipped, %d duplicates, %d failed (%dms)\n",
		report.Files, report.Added, report.Skipped, report.Duplicates, report.Failed, report.DurationMs)

	if len(report.Clusters) == 0 {
		b.WriteString("No clone clusters found.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "\n%d clone cluster(s):\n", len(report.Clusters))
	for i, c := range report.Clusters {
		fmt.Fprintf(&b, "\nCluster %d (%d blocks):\n", i+1, c.Size)
		for _, blk := range c.Blocks {
			fmt.Fprintf(&b, "  %s:%d-%d (%s)\n", blk.FilePath, blk.StartLine, blk.EndLine, blk.Kind)
		}
	}
	return b.String()
}
