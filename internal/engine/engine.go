package engine

import (
	"io"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"dupfind/internal/embed"
	"dupfind/internal/errors"
	"dupfind/internal/logging"
	"dupfind/internal/lsh"
	"dupfind/internal/persist"
	"dupfind/internal/tokenize"
)

// Options holds engine configuration. Index geometry (L, K, D) is frozen at
// construction; changing it requires a full rebuild.
type Options struct {
	Index         lsh.Options `json:"index" mapstructure:"index"`
	MinTokens     int         `json:"minTokens" mapstructure:"minTokens"`
	MaxTokens     int         `json:"maxTokens" mapstructure:"maxTokens"`
	MinSimilarity float64     `json:"minSimilarity" mapstructure:"minSimilarity"`
	Thresholds    Thresholds  `json:"thresholds" mapstructure:"thresholds"`
	MultiProbe    bool        `json:"multiProbe" mapstructure:"multiProbe"`
	NumProbes     int         `json:"numProbes" mapstructure:"numProbes"`
	MaxCandidates int         `json:"maxCandidates" mapstructure:"maxCandidates"`
}

// DefaultOptions returns the default engine configuration.
func DefaultOptions() Options {
	return Options{
		Index:         lsh.DefaultOptions(),
		MinTokens:     10,
		MaxTokens:     5000,
		MinSimilarity: 0.85,
		Thresholds:    DefaultThresholds(),
		MultiProbe:    true,
		NumProbes:     lsh.DefaultNumProbes,
		MaxCandidates: 200,
	}
}

// stateful is the optional capability a model needs for snapshots.
type stateful interface {
	ExportState() *embed.State
	ImportState(*embed.State) error
}

// Engine indexes code blocks and answers clone queries. All mutation runs
// behind a single writer lock; queries are read-only and may run
// concurrently with each other but not with writers.
type Engine struct {
	mu     sync.RWMutex
	opts   Options
	model  embed.Model
	index  *lsh.Index
	blocks map[string]*CodeBlock
	order  []string
	next   int
	log    *logging.Logger
}

// New creates an engine. The model's output dimension must match the index
// dimension; a mismatch is fatal here, before any state exists.
func New(opts Options, model embed.Model, log *logging.Logger) (*Engine, error) {
	if log == nil {
		log = logging.Discard()
	}
	if model == nil {
		return nil, errors.New(errors.ConfigInvalid, "engine requires an embedding model")
	}
	if model.Dimension() != opts.Index.Dimension {
		return nil, errors.Newf(errors.ConfigInvalid,
			"model dimension %d does not match index dimension %d",
			model.Dimension(), opts.Index.Dimension)
	}
	if err := opts.Thresholds.Validate(); err != nil {
		return nil, err
	}

	index, err := lsh.New(opts.Index)
	if err != nil {
		return nil, err
	}
	return &Engine{
		opts:   opts,
		model:  model,
		index:  index,
		blocks: make(map[string]*CodeBlock),
		log:    log.With("engine"),
	}, nil
}

// Options returns the engine configuration.
func (e *Engine) Options() Options { return e.opts }

// IndexBlocks embeds and indexes pre-split blocks from one file. Blocks
// outside the configured token-size window are skipped; blocks whose id is
// already indexed count as duplicates; a block that fails to embed is
// counted and the rest of the batch continues.
func (e *Engine) IndexBlocks(filePath string, blks []Block) Summary {
	e.mu.Lock()
	defer e.mu.Unlock()

	sum := Summary{ScanID: uuid.NewString(), FilePath: filePath}
	for _, blk := range blks {
		tokens := tokenize.Tokenize(blk.Content, blk.Language)
		n := len(tokens)
		if n < e.opts.MinTokens || (e.opts.MaxTokens > 0 && n > e.opts.MaxTokens) {
			sum.Skipped++
			continue
		}

		id := BlockID(filePath, blk.StartLine, blk.EndLine, blk.Content)
		if _, exists := e.blocks[id]; exists {
			sum.Duplicates++
			continue
		}

		vec, err := e.model.Embed(blk.Content)
		if err != nil {
			e.log.Warn("block failed to embed", logging.Fields{
				"file": filePath, "startLine": blk.StartLine, "error": err.Error(),
			})
			sum.Failed++
			continue
		}

		if _, err := e.index.Insert(id, vec); err != nil {
			sum.Failed++
			continue
		}

		e.blocks[id] = &CodeBlock{
			ID:        id,
			Kind:      blk.Kind,
			FilePath:  filePath,
			StartLine: blk.StartLine,
			EndLine:   blk.EndLine,
			Content:   blk.Content,
			Language:  blk.Language,
			Tokens:    n,
			Embedding: vec,
			order:     e.next,
		}
		e.order = append(e.order, id)
		e.next++
		sum.Added++
	}

	e.log.Debug("indexed blocks", logging.Fields{
		"file": filePath, "added": sum.Added, "skipped": sum.Skipped,
		"duplicates": sum.Duplicates, "failed": sum.Failed,
	})
	return sum
}

// QueryOptions controls a similarity query.
type QueryOptions struct {
	// MinSimilarity filters results; zero falls back to the engine default.
	MinSimilarity float64
	// MaxResults truncates the ranked result list; zero means unlimited.
	MaxResults int
}

// Query embeds the snippet (without touching corpus statistics), retrieves
// LSH candidates, reranks them by exact cosine similarity against stored
// embeddings, and returns results sorted by similarity descending with a
// stable tie-break on insertion order. The embedding step runs under the
// read lock: EmbedQuery reads the same vocabulary that IndexBlocks mutates.
func (e *Engine) Query(code string, opts QueryOptions) ([]CloneResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	vec, err := e.model.EmbedQuery(code)
	if err != nil {
		return nil, err
	}
	return e.queryLocked(vec, opts)
}

// QueryVector is Query for a caller-supplied embedding.
func (e *Engine) QueryVector(vec []float64, opts QueryOptions) ([]CloneResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.queryLocked(vec, opts)
}

// queryLocked is the rerank pipeline; callers hold at least the read lock.
func (e *Engine) queryLocked(vec []float64, opts QueryOptions) ([]CloneResult, error) {
	minSim := opts.MinSimilarity
	if minSim == 0 {
		minSim = e.opts.MinSimilarity
	}

	candidates, err := e.index.Query(vec, e.lshQueryOptions())
	if err != nil {
		return nil, err
	}

	results := make([]CloneResult, 0, len(candidates))
	for _, id := range candidates {
		blk, ok := e.blocks[id]
		if !ok {
			continue
		}
		sim := cosine(vec, blk.Embedding)
		if sim < minSim {
			continue
		}
		results = append(results, CloneResult{
			Block:      blk,
			Similarity: sim,
			Type:       e.opts.Thresholds.Classify(sim),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Block.order < results[j].Block.order
	})

	if opts.MaxResults > 0 && len(results) > opts.MaxResults {
		results = results[:opts.MaxResults]
	}
	return results, nil
}

// CloneOptions controls corpus-wide clone detection.
type CloneOptions struct {
	// MinSimilarity is the edge threshold; zero falls back to the engine
	// default.
	MinSimilarity float64
}

// FindAllClones builds the similarity graph over every indexed block using
// LSH candidates only, and returns its connected components of size >= 2.
// Work stays near O(n*c) for average candidate-set size c; degenerate
// corpora that collapse into one bucket are bounded by the bucket cap.
func (e *Engine) FindAllClones(opts CloneOptions) ([]Cluster, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	minSim := opts.MinSimilarity
	if minSim == 0 {
		minSim = e.opts.MinSimilarity
	}

	uf := newUnionFind()
	qopts := e.lshQueryOptions()
	for _, id := range e.order {
		blk := e.blocks[id]
		candidates, err := e.index.Query(blk.Embedding, qopts)
		if err != nil {
			return nil, err
		}
		for _, cand := range candidates {
			if cand == id {
				continue
			}
			other, ok := e.blocks[cand]
			if !ok {
				continue
			}
			if cosine(blk.Embedding, other.Embedding) >= minSim {
				uf.union(id, cand)
			}
		}
	}

	var clusters []Cluster
	for _, ids := range uf.components() {
		if len(ids) < 2 {
			continue
		}
		blocks := make([]*CodeBlock, len(ids))
		for i, id := range ids {
			blocks[i] = e.blocks[id]
		}
		sort.Slice(blocks, func(i, j int) bool { return blocks[i].order < blocks[j].order })
		clusters = append(clusters, Cluster{Blocks: blocks})
	}

	// Largest clusters first; ties by earliest member.
	sort.Slice(clusters, func(i, j int) bool {
		if len(clusters[i].Blocks) != len(clusters[j].Blocks) {
			return len(clusters[i].Blocks) > len(clusters[j].Blocks)
		}
		return clusters[i].Blocks[0].order < clusters[j].Blocks[0].order
	})
	return clusters, nil
}

// Remove deletes a block from every table that holds it and from the block
// store. Absence in a table is not an error. Returns false when the id is
// unknown.
func (e *Engine) Remove(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	blk, ok := e.blocks[id]
	if !ok {
		return false
	}
	e.index.Remove(id, blk.Embedding)
	delete(e.blocks, id)
	for i, oid := range e.order {
		if oid == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return true
}

// Block returns an indexed block by id.
func (e *Engine) Block(id string) (*CodeBlock, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	blk, ok := e.blocks[id]
	return blk, ok
}

// Stats reports corpus size, per-table and aggregate bucket statistics, and
// the engine configuration. Observability only.
type Stats struct {
	Blocks    int       `json:"blocks"`
	VocabSize int       `json:"vocabSize,omitempty"`
	DocCount  int       `json:"docCount,omitempty"`
	Index     lsh.Stats `json:"index"`
	Options   Options   `json:"options"`
}

// Stats returns engine statistics.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	stats := Stats{
		Blocks:  len(e.blocks),
		Index:   e.index.Stats(),
		Options: e.opts,
	}
	if tf, ok := e.model.(*embed.TFIDF); ok {
		stats.VocabSize = tf.VocabSize()
		stats.DocCount = tf.DocCount()
	}
	return stats
}

// Save writes the whole index as a snapshot: embedder state, bucket lists,
// and block records. All-or-nothing; must not run concurrently with writers.
func (e *Engine) Save(w io.Writer) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st, ok := e.model.(stateful)
	if !ok {
		return errors.New(errors.ConfigInvalid, "model does not support state export")
	}

	records := make([]persist.BlockRecord, 0, len(e.order))
	for _, id := range e.order {
		blk := e.blocks[id]
		records = append(records, persist.BlockRecord{
			ID:        blk.ID,
			Kind:      blk.Kind,
			FilePath:  blk.FilePath,
			StartLine: blk.StartLine,
			EndLine:   blk.EndLine,
			Content:   blk.Content,
			Language:  blk.Language,
			Tokens:    blk.Tokens,
			Embedding: blk.Embedding,
			Order:     blk.order,
		})
	}

	snap := &persist.Snapshot{
		Version:  persist.Version,
		SavedAt:  time.Now().UTC(),
		Index:    e.index.Options(),
		Buckets:  e.index.Records(),
		Embedder: st.ExportState(),
		Blocks:   records,
	}
	return persist.Write(w, snap)
}

// Load reads a snapshot and returns a new engine whose query behavior is
// indistinguishable from the saved one. The snapshot's index geometry is
// authoritative; opts supplies the remaining engine parameters.
func Load(r io.Reader, opts Options, log *logging.Logger) (*Engine, error) {
	snap, err := persist.Read(r)
	if err != nil {
		return nil, err
	}
	return NewFromSnapshot(snap, opts, log)
}

// NewFromSnapshot reconstructs an engine from a decoded snapshot.
func NewFromSnapshot(snap *persist.Snapshot, opts Options, log *logging.Logger) (*Engine, error) {
	if log == nil {
		log = logging.Discard()
	}

	model, err := embed.NewTFIDF(snap.Embedder.Config)
	if err != nil {
		return nil, err
	}
	if err := model.ImportState(snap.Embedder); err != nil {
		return nil, err
	}

	opts.Index = snap.Index
	if model.Dimension() != opts.Index.Dimension {
		return nil, errors.Newf(errors.ConfigInvalid,
			"snapshot embedder dimension %d does not match index dimension %d",
			model.Dimension(), opts.Index.Dimension)
	}
	if err := opts.Thresholds.Validate(); err != nil {
		return nil, err
	}

	index, err := lsh.NewFromRecords(snap.Index, snap.Buckets)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		opts:   opts,
		model:  model,
		index:  index,
		blocks: make(map[string]*CodeBlock, len(snap.Blocks)),
		log:    log.With("engine"),
	}
	for _, rec := range snap.Blocks {
		if len(rec.Embedding) != opts.Index.Dimension {
			return nil, errors.Newf(errors.SerializationFailed,
				"block %s has embedding length %d, want %d", rec.ID, len(rec.Embedding), opts.Index.Dimension)
		}
		e.blocks[rec.ID] = &CodeBlock{
			ID:        rec.ID,
			Kind:      rec.Kind,
			FilePath:  rec.FilePath,
			StartLine: rec.StartLine,
			EndLine:   rec.EndLine,
			Content:   rec.Content,
			Language:  rec.Language,
			Tokens:    rec.Tokens,
			Embedding: rec.Embedding,
			order:     rec.Order,
		}
		e.order = append(e.order, rec.ID)
		if rec.Order >= e.next {
			e.next = rec.Order + 1
		}
	}
	sort.Slice(e.order, func(i, j int) bool {
		return e.blocks[e.order[i]].order < e.blocks[e.order[j]].order
	})
	return e, nil
}

func (e *Engine) lshQueryOptions() lsh.QueryOptions {
	return lsh.QueryOptions{
		MultiProbe:    e.opts.MultiProbe,
		NumProbes:     e.opts.NumProbes,
		MaxCandidates: e.opts.MaxCandidates,
	}
}

// cosine computes cosine similarity clamped to [0, 1]. Stored embeddings
// are unit vectors, but the norms are recomputed to stay correct for
// caller-supplied vectors.
func cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
