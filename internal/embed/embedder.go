// Package embed converts code into fixed-dimension unit vectors.
//
// The production model is TF-IDF over tokens and token n-grams with
// random-projection dimensionality reduction. The embedder is adaptive:
// vocabulary and document frequencies evolve as documents are embedded, so
// corpus results are order-dependent by design.
package embed

import (
	"math"

	"dupfind/internal/errors"
	"dupfind/internal/tokenize"
)

// Config holds embedder construction parameters. Dimension and MaxVocabSize
// are frozen after construction; changing them requires a full rebuild.
type Config struct {
	Dimension    int    `json:"dimension" mapstructure:"dimension"`
	MaxVocabSize int    `json:"maxVocabSize" mapstructure:"maxVocabSize"`
	NGramSize    int    `json:"ngramSize" mapstructure:"ngramSize"`
	SublinearTF  bool   `json:"sublinearTf" mapstructure:"sublinearTf"`
	SmoothIDF    bool   `json:"smoothIdf" mapstructure:"smoothIdf"`
	Language     string `json:"language" mapstructure:"language"`
	Seed         uint64 `json:"seed" mapstructure:"seed"`
}

// DefaultConfig returns the default embedder configuration.
func DefaultConfig() Config {
	return Config{
		Dimension:    384,
		MaxVocabSize: 50000,
		NGramSize:    2,
		SublinearTF:  true,
		SmoothIDF:    true,
		Seed:         42,
	}
}

// VocabEntry records a term's projection index and document frequency.
type VocabEntry struct {
	Index   int `json:"index"`
	DocFreq int `json:"docFreq"`
}

// TFIDF is the TF-IDF + random projection embedder.
type TFIDF struct {
	cfg      Config
	vocab    map[string]*VocabEntry
	docCount int
	proj     *projection
}

// NewTFIDF creates an embedder. The projection is derived deterministically
// from cfg.Seed, so two embedders with identical config and identical
// document history produce identical vectors.
func NewTFIDF(cfg Config) (*TFIDF, error) {
	if cfg.Dimension <= 0 {
		return nil, errors.Newf(errors.ConfigInvalid, "embedder dimension must be positive, got %d", cfg.Dimension)
	}
	if cfg.MaxVocabSize <= 0 {
		return nil, errors.Newf(errors.ConfigInvalid, "max vocabulary size must be positive, got %d", cfg.MaxVocabSize)
	}
	return &TFIDF{
		cfg:   cfg,
		vocab: make(map[string]*VocabEntry),
		proj:  newProjection(cfg.Dimension, cfg.MaxVocabSize, cfg.Seed),
	}, nil
}

// Dimension returns the output vector length.
func (e *TFIDF) Dimension() int { return e.cfg.Dimension }

// VocabSize returns the number of known terms.
func (e *TFIDF) VocabSize() int { return len(e.vocab) }

// DocCount returns the number of documents embedded so far.
func (e *TFIDF) DocCount() int { return e.docCount }

// Config returns the embedder configuration.
func (e *TFIDF) Config() Config { return e.cfg }

// Embed converts code into a unit vector of length Dimension, updating the
// vocabulary and document statistics. Once the vocabulary reaches capacity,
// unseen terms are silently dropped and contribute zero score. The returned
// vector has L2 norm ~1, or exactly 0 for empty input.
func (e *TFIDF) Embed(code string) ([]float64, error) {
	terms := e.terms(code)
	e.docCount++

	for term := range terms {
		entry, ok := e.vocab[term]
		if !ok {
			if len(e.vocab) >= e.cfg.MaxVocabSize {
				continue
			}
			entry = &VocabEntry{Index: len(e.vocab)}
			e.vocab[term] = entry
		}
		entry.DocFreq++
	}

	return e.project(terms), nil
}

// EmbedQuery converts code into a unit vector without mutating vocabulary or
// document statistics. Terms outside the current vocabulary contribute zero.
// Queries are therefore read-only and safe to interleave with each other.
func (e *TFIDF) EmbedQuery(code string) ([]float64, error) {
	return e.project(e.terms(code)), nil
}

// EmbedBatch embeds documents strictly in order. Sequential by contract:
// vocabulary and document count evolve across the batch, so results depend
// on document order.
func (e *TFIDF) EmbedBatch(codes []string) ([][]float64, error) {
	vectors := make([][]float64, len(codes))
	for i, code := range codes {
		vec, err := e.Embed(code)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// terms computes unigram and n-gram term counts for a document.
func (e *TFIDF) terms(code string) map[string]int {
	tokens := tokenize.Tokenize(code, e.cfg.Language)
	counts := tokenize.Frequencies(tokens)
	for _, gram := range tokenize.NGrams(tokens, e.cfg.NGramSize) {
		counts[gram]++
	}
	return counts
}

// project computes TF-IDF weights against current corpus statistics and
// multiplies by the projection matrix.
func (e *TFIDF) project(terms map[string]int) []float64 {
	sparse := make(map[int]float64, len(terms))
	for term, count := range terms {
		entry, ok := e.vocab[term]
		if !ok {
			continue
		}
		sparse[entry.Index] = e.tf(count) * e.idf(entry.DocFreq)
	}

	dense := e.proj.apply(sparse)
	normalize(dense)
	return dense
}

func (e *TFIDF) tf(count int) float64 {
	if e.cfg.SublinearTF {
		return 1 + math.Log(float64(count))
	}
	return float64(count)
}

func (e *TFIDF) idf(docFreq int) float64 {
	if docFreq <= 0 {
		return 0
	}
	if e.cfg.SmoothIDF {
		return math.Log(float64(e.docCount+1)/float64(docFreq+1)) + 1
	}
	return math.Log(float64(e.docCount)/float64(docFreq)) + 1
}

// normalize scales v to unit L2 norm in place. No-op on a zero vector.
func normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] *= inv
	}
}
