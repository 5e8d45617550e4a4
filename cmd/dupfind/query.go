package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"dupfind/internal/engine"
)

var (
	queryMinSimilarity float64
	queryMaxResults    int
)

var queryCmd = &cobra.Command{
	Use:   "query [file]",
	Short: "Match a code snippet against the saved index",
	Long: `Query embeds a snippet and returns the most similar indexed blocks,
classified by clone type. The snippet is read from the given file, or from
stdin when the argument is "-" or omitted. The index snapshot written by
` + "`dupfind scan`" + ` is loaded read-only; querying never changes it.

Examples:
  dupfind query suspicious.go
  cat snippet.py | dupfind query --min-similarity 0.8
  dupfind query --max-results 5 --format json block.ts`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().Float64Var(&queryMinSimilarity, "min-similarity", 0, "Similarity cutoff (0 = config default)")
	queryCmd.Flags().IntVar(&queryMaxResults, "max-results", 10, "Maximum results (0 = unlimited)")
	rootCmd.AddCommand(queryCmd)
}

// QueryResultCLI is one ranked match in the query output.
type QueryResultCLI struct {
	FilePath   string  `json:"filePath" yaml:"filePath"`
	StartLine  int     `json:"startLine" yaml:"startLine"`
	EndLine    int     `json:"endLine" yaml:"endLine"`
	Kind       string  `json:"kind" yaml:"kind"`
	Similarity float64 `json:"similarity" yaml:"similarity"`
	CloneType  string  `json:"cloneType" yaml:"cloneType"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	log := newLogger(cfg)

	code, err := readSnippet(args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("empty snippet")
	}

	eng, err := loadEngine(cfg, log)
	if err != nil {
		return err
	}

	results, err := eng.Query(code, engine.QueryOptions{
		MinSimilarity: queryMinSimilarity,
		MaxResults:    queryMaxResults,
	})
	if err != nil {
		return err
	}

	out := make([]QueryResultCLI, 0, len(results))
	for _, r := range results {
		out = append(out, QueryResultCLI{
			FilePath:   r.Block.FilePath,
			StartLine:  r.Block.StartLine,
			EndLine:    r.Block.EndLine,
			Kind:       r.Block.Kind,
			Similarity: r.Similarity,
			CloneType:  string(r.Type),
		})
	}

	return printOutput(out, func() string { return renderQueryHuman(out) })
}

func readSnippet(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func renderQueryHuman(results []QueryResultCLI) string {
	if len(results) == 0 {
		return "No matches.\n"
	}
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "%.4f  %-7s %s:%d-%d (%s)\n",
			r.Similarity, r.CloneType, r.FilePath, r.StartLine, r.EndLine, r.Kind)
	}
	return b.String()
}
