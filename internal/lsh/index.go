package lsh

import (
	"dupfind/internal/errors"
)

// Options holds index construction parameters. Changing Tables, Bits, or
// Dimension invalidates all stored hashes and requires a full rebuild.
type Options struct {
	Tables        int    `json:"tables" mapstructure:"tables"`
	Bits          int    `json:"bits" mapstructure:"bits"`
	Dimension     int    `json:"dimension" mapstructure:"dimension"`
	MaxBucketSize int    `json:"maxBucketSize" mapstructure:"maxBucketSize"`
	Seed          uint64 `json:"seed" mapstructure:"seed"`
}

// DefaultOptions returns the default index parameters.
func DefaultOptions() Options {
	return Options{
		Tables:        8,
		Bits:          16,
		Dimension:     384,
		MaxBucketSize: 100,
		Seed:          42,
	}
}

// QueryOptions controls candidate retrieval.
type QueryOptions struct {
	// MultiProbe also fetches buckets whose keys differ in the
	// least-confident bits, recovering points near a hyperplane boundary.
	MultiProbe bool
	// NumProbes is the number of extra buckets probed per table.
	// Defaults to DefaultNumProbes when MultiProbe is set.
	NumProbes int
	// MaxCandidates caps the size of the returned candidate set.
	// Zero means unlimited.
	MaxCandidates int
}

// DefaultNumProbes is the per-table probe count used when multi-probe is
// enabled without an explicit setting.
const DefaultNumProbes = 3

// Index owns L hash tables and their L hash functions. It inserts into and
// queries all tables, returning candidate supersets; it never computes exact
// similarity.
type Index struct {
	opts   Options
	fns    []*HashFunction
	tables []*Table
}

// New creates an index. Fails with a configuration error when Tables,
// Bits, or Dimension are out of range.
func New(opts Options) (*Index, error) {
	if opts.Tables <= 0 {
		return nil, errors.Newf(errors.ConfigInvalid, "table count must be positive, got %d", opts.Tables)
	}

	fns := make([]*HashFunction, opts.Tables)
	tables := make([]*Table, opts.Tables)
	for i := 0; i < opts.Tables; i++ {
		fn, err := NewHashFunction(opts.Seed, i, opts.Bits, opts.Dimension)
		if err != nil {
			return nil, err
		}
		fns[i] = fn
		tables[i] = NewTable(opts.MaxBucketSize)
	}
	return &Index{opts: opts, fns: fns, tables: tables}, nil
}

// Options returns the construction parameters.
func (x *Index) Options() Options { return x.opts }

// Insert hashes the vector in every table and inserts id into each. Partial
// acceptance is tolerated: a full bucket in one table only degrades recall
// there, and the block stays discoverable through the tables that accepted
// it. Returns how many tables accepted the insert.
func (x *Index) Insert(id string, vec []float64) (int, error) {
	if err := x.checkDimension(vec); err != nil {
		return 0, err
	}

	accepted := 0
	for i, fn := range x.fns {
		if x.tables[i].Insert(fn.Hash(vec), id) {
			accepted++
		}
	}
	return accepted, nil
}

// Query returns the de-duplicated union of bucket contents across all
// tables for the vector's hash (and multi-probe neighbors if enabled), in
// first-seen order. The result is a candidate superset for exact reranking
// by the caller.
func (x *Index) Query(vec []float64, opts QueryOptions) ([]string, error) {
	if err := x.checkDimension(vec); err != nil {
		return nil, err
	}

	numProbes := opts.NumProbes
	if opts.MultiProbe && numProbes <= 0 {
		numProbes = DefaultNumProbes
	}

	var out []string
	seen := make(map[string]bool)
	for i, fn := range x.fns {
		hash := fn.Hash(vec)
		hashes := []uint64{hash}
		if opts.MultiProbe {
			hashes = append(hashes, fn.Probes(hash, fn.Projections(vec), numProbes)...)
		}
		for _, id := range x.tables[i].GetMultiple(hashes) {
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
			if opts.MaxCandidates > 0 && len(out) >= opts.MaxCandidates {
				return out, nil
			}
		}
	}
	return out, nil
}

// Remove recomputes the vector's per-table hashes and removes id from every
// table that holds it. Tables that never accepted the insert are no-ops.
// Returns how many tables held the id.
func (x *Index) Remove(id string, vec []float64) (int, error) {
	if err := x.checkDimension(vec); err != nil {
		return 0, err
	}

	removed := 0
	for i, fn := range x.fns {
		if x.tables[i].Remove(fn.Hash(vec), id) {
			removed++
		}
	}
	return removed, nil
}

// Stats aggregates per-table bucket statistics.
type Stats struct {
	Tables        int          `json:"tables"`
	Bits          int          `json:"bits"`
	Dimension     int          `json:"dimension"`
	TotalEntries  int          `json:"totalEntries"`
	MinBucketSize int          `json:"minBucketSize"`
	MaxBucketSize int          `json:"maxBucketSize"`
	AvgBucketSize float64      `json:"avgBucketSize"`
	PerTable      []TableStats `json:"perTable"`
}

// Stats reports per-table and aggregate bucket statistics.
func (x *Index) Stats() Stats {
	stats := Stats{
		Tables:    x.opts.Tables,
		Bits:      x.opts.Bits,
		Dimension: x.opts.Dimension,
		PerTable:  make([]TableStats, len(x.tables)),
	}

	totalBuckets := 0
	first := true
	for i, table := range x.tables {
		ts := table.Stats()
		stats.PerTable[i] = ts
		stats.TotalEntries += ts.Entries
		totalBuckets += ts.Buckets
		if ts.Buckets == 0 {
			continue
		}
		if first || ts.MinBucketSize < stats.MinBucketSize {
			stats.MinBucketSize = ts.MinBucketSize
		}
		if ts.MaxBucketSize > stats.MaxBucketSize {
			stats.MaxBucketSize = ts.MaxBucketSize
		}
		first = false
	}
	if totalBuckets > 0 {
		stats.AvgBucketSize = float64(stats.TotalEntries) / float64(totalBuckets)
	}
	return stats
}

// Records flattens every table into bucket records for persistence.
func (x *Index) Records() [][]BucketRecord {
	recs := make([][]BucketRecord, len(x.tables))
	for i, table := range x.tables {
		recs[i] = table.Records()
	}
	return recs
}

// NewFromRecords reconstructs an index from persisted bucket records. The
// record list must have exactly one entry per table.
func NewFromRecords(opts Options, recs [][]BucketRecord) (*Index, error) {
	x, err := New(opts)
	if err != nil {
		return nil, err
	}
	if len(recs) != opts.Tables {
		return nil, errors.Newf(errors.SerializationFailed,
			"snapshot has %d tables, index is configured for %d", len(recs), opts.Tables)
	}
	for i, tableRecs := range recs {
		table, err := NewTableFromRecords(opts.MaxBucketSize, tableRecs)
		if err != nil {
			return nil, err
		}
		x.tables[i] = table
	}
	return x, nil
}

func (x *Index) checkDimension(vec []float64) error {
	if len(vec) != x.opts.Dimension {
		return errors.Newf(errors.ConfigInvalid,
			"vector length %d does not match index dimension %d", len(vec), x.opts.Dimension)
	}
	return nil
}
