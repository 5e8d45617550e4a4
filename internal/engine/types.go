// Package engine is the clone/query engine: it indexes pre-split code
// blocks, answers similarity queries with exact cosine reranking over LSH
// candidates, classifies clone types, and clusters the whole corpus via
// connected components.
package engine

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Block is a pre-delimited candidate block handed to the engine by the
// splitter. The engine performs no file IO and no source splitting itself.
type Block struct {
	Content   string `json:"content"`
	Kind      string `json:"kind"` // "function", "method", "class", "block"
	Language  string `json:"language"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
}

// CodeBlock is an indexed block. Immutable once created; destroyed only by
// explicit removal or a full rebuild.
type CodeBlock struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	FilePath  string    `json:"filePath"`
	StartLine int       `json:"startLine"`
	EndLine   int       `json:"endLine"`
	Content   string    `json:"content"`
	Language  string    `json:"language"`
	Tokens    int       `json:"tokens"`
	Embedding []float64 `json:"-"`

	order int // insertion order, used for stable query tie-breaks
}

// BlockID derives a stable block id from file path, span, and content hash.
// The same block text at the same location always gets the same id.
func BlockID(filePath string, startLine, endLine int, content string) string {
	h, _ := blake2b.New256(nil)
	fmt.Fprintf(h, "%s:%d-%d\n", filePath, startLine, endLine)
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil)[:12])
}

// CloneResult is one ranked query match.
type CloneResult struct {
	Block      *CodeBlock `json:"block"`
	Similarity float64    `json:"similarity"`
	Type       CloneType  `json:"type"`
}

// Summary reports the outcome of indexing one batch of blocks. Per-block
// failures are isolated and counted here, never aborting the batch.
type Summary struct {
	ScanID     string `json:"scanId"`
	FilePath   string `json:"filePath"`
	Added      int    `json:"added"`
	Skipped    int    `json:"skipped"`
	Duplicates int    `json:"duplicates"`
	Failed     int    `json:"failed"`
}

// Cluster is one connected component of the similarity graph, always of
// size >= 2, with blocks listed in insertion order.
type Cluster struct {
	Blocks []*CodeBlock `json:"blocks"`
}

// Size returns the number of blocks in the cluster.
func (c Cluster) Size() int { return len(c.Blocks) }
