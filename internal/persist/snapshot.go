// Package persist defines the versioned snapshot format for a clone index:
// embedder state, per-table bucket lists, and stored block records, encoded
// as JSON and compressed with zstd. Reloading a snapshot reproduces query
// behavior indistinguishable from the saved state.
package persist

import (
	"encoding/json"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"

	"dupfind/internal/embed"
	"dupfind/internal/errors"
	"dupfind/internal/lsh"
)

// Version is the current snapshot schema version. Readers reject snapshots
// with a different version instead of guessing.
const Version = 1

// BlockRecord is the persisted form of an indexed code block, including its
// cached embedding and insertion order for stable query tie-breaks.
type BlockRecord struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	FilePath  string    `json:"filePath"`
	StartLine int       `json:"startLine"`
	EndLine   int       `json:"endLine"`
	Content   string    `json:"content"`
	Language  string    `json:"language"`
	Tokens    int       `json:"tokens"`
	Embedding []float64 `json:"embedding"`
	Order     int       `json:"order"`
}

// Snapshot is the complete serializable state of a clone index.
type Snapshot struct {
	Version  int                  `json:"version"`
	SavedAt  time.Time            `json:"savedAt"`
	Index    lsh.Options          `json:"index"`
	Buckets  [][]lsh.BucketRecord `json:"buckets"`
	Embedder *embed.State         `json:"embedder"`
	Blocks   []BlockRecord        `json:"blocks"`
}

// Write encodes the snapshot as zstd-compressed JSON.
func Write(w io.Writer, snap *Snapshot) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return errors.Wrap(errors.SerializationFailed, "create zstd writer", err)
	}

	if err := json.NewEncoder(zw).Encode(snap); err != nil {
		zw.Close()
		return errors.Wrap(errors.SerializationFailed, "encode snapshot", err)
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(errors.SerializationFailed, "flush snapshot", err)
	}
	return nil
}

// Read decodes a snapshot. Malformed input fails only this call; the caller
// decides whether to keep its current in-memory state.
func Read(r io.Reader) (*Snapshot, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(errors.SerializationFailed, "open zstd stream", err)
	}
	defer zr.Close()

	var snap Snapshot
	if err := json.NewDecoder(zr).Decode(&snap); err != nil {
		return nil, errors.Wrap(errors.SerializationFailed, "decode snapshot", err)
	}
	if snap.Version != Version {
		return nil, errors.Newf(errors.SerializationFailed, "unsupported snapshot version %d", snap.Version)
	}
	if snap.Embedder == nil {
		return nil, errors.New(errors.SerializationFailed, "snapshot missing embedder state")
	}
	return &snap, nil
}
