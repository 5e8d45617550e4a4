//go:build !cgo

package blocks

import (
	"context"

	"dupfind/internal/engine"
	"dupfind/internal/errors"
)

// Splitter extracts function, method, and class blocks from source files.
// This is a stub implementation for non-CGO builds.
type Splitter struct{}

// NewSplitter creates a splitter. Returns nil when CGO is disabled.
func NewSplitter() *Splitter {
	return nil
}

// IsAvailable reports whether tree-sitter splitting is compiled in.
func IsAvailable() bool { return false }

// SplitFile is unavailable without CGO.
func (s *Splitter) SplitFile(ctx context.Context, path string) ([]engine.Block, error) {
	return nil, errNoCGO()
}

// SplitSource is unavailable without CGO.
func (s *Splitter) SplitSource(ctx context.Context, source []byte, lang Language) ([]engine.Block, error) {
	return nil, errNoCGO()
}

func errNoCGO() error {
	return errors.New(errors.ParseFailed, "block splitting requires CGO (tree-sitter)")
}
