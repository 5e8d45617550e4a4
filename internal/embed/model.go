package embed

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"dupfind/internal/errors"
)

// Model is the embedding interface the engine depends on. Variants are
// selected by configuration, never by type inspection. Embed may mutate
// corpus statistics; EmbedQuery must not.
type Model interface {
	Embed(code string) ([]float64, error)
	EmbedQuery(code string) ([]float64, error)
	Dimension() int
}

// NewModel constructs a model by name. "tfidf" (or empty) selects the
// production TF-IDF embedder; "static" selects a stateless content-hash
// model used as a test double.
func NewModel(name string, cfg Config) (Model, error) {
	switch name {
	case "", "tfidf":
		return NewTFIDF(cfg)
	case "static":
		return NewStatic(cfg.Dimension), nil
	default:
		return nil, errors.Newf(errors.ConfigInvalid, "unknown embedding model %q", name)
	}
}

// Static is a stateless test-double model: each text maps deterministically
// to a unit vector derived from its content hash. Identical texts always get
// identical vectors regardless of embedding order.
type Static struct {
	dim int
}

// NewStatic creates a static model with the given output dimension.
func NewStatic(dim int) *Static {
	return &Static{dim: dim}
}

// Dimension returns the output vector length.
func (s *Static) Dimension() int { return s.dim }

// Embed returns the content-hash vector for code.
func (s *Static) Embed(code string) ([]float64, error) {
	return s.vector(code), nil
}

// EmbedQuery returns the content-hash vector for code.
func (s *Static) EmbedQuery(code string) ([]float64, error) {
	return s.vector(code), nil
}

func (s *Static) vector(code string) []float64 {
	sum := blake2b.Sum256([]byte(code))
	gen := newNormalGen(binary.LittleEndian.Uint64(sum[:8]))
	v := make([]float64, s.dim)
	for i := range v {
		v[i] = gen.next()
	}
	normalize(v)
	return v
}
