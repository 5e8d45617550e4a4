package lsh

import (
	"sort"

	"dupfind/internal/errors"
)

// Table maps K-bit hash keys to size-capped buckets of block ids for one LSH
// table. A full bucket rejecting an insert is an accepted recall/precision
// tradeoff, reported by boolean return and never by error.
type Table struct {
	buckets       map[uint64][]string
	maxBucketSize int
	entries       int
}

// NewTable creates an empty table. maxBucketSize <= 0 means uncapped.
func NewTable(maxBucketSize int) *Table {
	return &Table{
		buckets:       make(map[uint64][]string),
		maxBucketSize: maxBucketSize,
	}
}

// Insert adds id to the bucket for hash, creating the bucket on first use.
// Returns false without mutating when id is already present or the bucket is
// at capacity.
func (t *Table) Insert(hash uint64, id string) bool {
	bucket := t.buckets[hash]
	if t.maxBucketSize > 0 && len(bucket) >= t.maxBucketSize {
		return false
	}
	for _, existing := range bucket {
		if existing == id {
			return false
		}
	}
	t.buckets[hash] = append(bucket, id)
	t.entries++
	return true
}

// Get returns the bucket for hash, or nil. Callers must not mutate the
// returned slice.
func (t *Table) Get(hash uint64) []string {
	return t.buckets[hash]
}

// GetMultiple unions the buckets for several hashes, de-duplicated and in
// first-seen order. Used with multi-probe querying.
func (t *Table) GetMultiple(hashes []uint64) []string {
	var out []string
	seen := make(map[string]bool)
	for _, hash := range hashes {
		for _, id := range t.buckets[hash] {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// Remove deletes id from the bucket for hash, deleting the bucket entirely
// if it becomes empty. Returns false if the id was not present.
func (t *Table) Remove(hash uint64, id string) bool {
	bucket, ok := t.buckets[hash]
	if !ok {
		return false
	}
	for i, existing := range bucket {
		if existing == id {
			bucket = append(bucket[:i], bucket[i+1:]...)
			if len(bucket) == 0 {
				delete(t.buckets, hash)
			} else {
				t.buckets[hash] = bucket
			}
			t.entries--
			return true
		}
	}
	return false
}

// Len returns the total number of stored entries.
func (t *Table) Len() int { return t.entries }

// TableStats reports bucket-size distribution for health diagnostics.
// Skew here is a signal, not a failure.
type TableStats struct {
	Buckets       int     `json:"buckets"`
	Entries       int     `json:"entries"`
	MinBucketSize int     `json:"minBucketSize"`
	MaxBucketSize int     `json:"maxBucketSize"`
	AvgBucketSize float64 `json:"avgBucketSize"`
}

// Stats computes the bucket-size distribution.
func (t *Table) Stats() TableStats {
	stats := TableStats{Buckets: len(t.buckets), Entries: t.entries}
	if len(t.buckets) == 0 {
		return stats
	}

	stats.MinBucketSize = t.entries
	for _, bucket := range t.buckets {
		n := len(bucket)
		if n < stats.MinBucketSize {
			stats.MinBucketSize = n
		}
		if n > stats.MaxBucketSize {
			stats.MaxBucketSize = n
		}
	}
	stats.AvgBucketSize = float64(t.entries) / float64(len(t.buckets))
	return stats
}

// BucketRecord is the flat persistence form of one bucket.
type BucketRecord struct {
	Hash uint64   `json:"hash"`
	IDs  []string `json:"ids"`
}

// Records flattens the table into bucket records sorted by hash, for
// deterministic serialization.
func (t *Table) Records() []BucketRecord {
	recs := make([]BucketRecord, 0, len(t.buckets))
	for hash, bucket := range t.buckets {
		ids := make([]string, len(bucket))
		copy(ids, bucket)
		recs = append(recs, BucketRecord{Hash: hash, IDs: ids})
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Hash < recs[j].Hash })
	return recs
}

// NewTableFromRecords reconstructs a table from flat bucket records.
// Records violating the bucket cap or containing duplicate ids within a
// bucket indicate corrupt state and fail the load.
func NewTableFromRecords(maxBucketSize int, recs []BucketRecord) (*Table, error) {
	t := NewTable(maxBucketSize)
	for _, rec := range recs {
		if maxBucketSize > 0 && len(rec.IDs) > maxBucketSize {
			return nil, errors.Newf(errors.SerializationFailed,
				"bucket %#x holds %d ids, cap is %d", rec.Hash, len(rec.IDs), maxBucketSize)
		}
		for _, id := range rec.IDs {
			if !t.Insert(rec.Hash, id) {
				return nil, errors.Newf(errors.SerializationFailed,
					"duplicate id %q in bucket %#x", id, rec.Hash)
			}
		}
	}
	return t, nil
}
