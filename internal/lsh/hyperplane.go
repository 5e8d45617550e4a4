// Package lsh implements hyperplane locality-sensitive hashing: deterministic
// random hyperplane hash functions with multi-probe support, size-capped
// bucket tables, and the multi-table index built from them.
//
// The index only ever produces candidate supersets. Exact similarity is the
// caller's job, which keeps this package independently testable.
package lsh

import (
	"math"
	"math/bits"
	"math/rand"
	"sort"

	"dupfind/internal/errors"
)

// HashFunction is one table's ordered set of K unit hyperplanes. Hyperplanes
// are regenerated deterministically from (seed, tableIndex, bitIndex), so a
// function never needs its coefficients persisted.
type HashFunction struct {
	tableIndex int
	k          int
	dim        int
	planes     [][]float64
}

// NewHashFunction derives K unit hyperplanes for one table. K must be in
// 1..64: hash keys are fixed-width uint64 with explicit bit packing, and a
// larger K is a configuration error rather than a silent fallback.
func NewHashFunction(seed uint64, tableIndex, k, dim int) (*HashFunction, error) {
	if k < 1 || k > 64 {
		return nil, errors.Newf(errors.ConfigInvalid, "bits per table must be in 1..64, got %d", k)
	}
	if dim <= 0 {
		return nil, errors.Newf(errors.ConfigInvalid, "dimension must be positive, got %d", dim)
	}
	if tableIndex < 0 {
		return nil, errors.Newf(errors.ConfigInvalid, "table index must be non-negative, got %d", tableIndex)
	}

	planes := make([][]float64, k)
	for bit := 0; bit < k; bit++ {
		planes[bit] = unitPlane(planeSeed(seed, tableIndex, bit), dim)
	}
	return &HashFunction{tableIndex: tableIndex, k: k, dim: dim, planes: planes}, nil
}

// Bits returns K, the hash width in bits.
func (f *HashFunction) Bits() int { return f.k }

// Dimension returns the expected input vector length.
func (f *HashFunction) Dimension() int { return f.dim }

// Hash packs the vector's side of each hyperplane into a K-bit key:
// bit i (LSB = plane 0) is set iff dot(plane_i, v) >= 0.
func (f *HashFunction) Hash(v []float64) uint64 {
	var h uint64
	for i, plane := range f.planes {
		if dot(plane, v) >= 0 {
			h |= 1 << uint(i)
		}
	}
	return h
}

// Projections returns the raw dot product of v against each hyperplane.
// Small magnitudes mark low-confidence bits, which multi-probe flips first.
func (f *HashFunction) Projections(v []float64) []float64 {
	projs := make([]float64, f.k)
	for i, plane := range f.planes {
		projs[i] = dot(plane, v)
	}
	return projs
}

// Probes generates up to numProbes nearby hash keys by flipping the
// least-confident bits first (smallest projection magnitude). When
// projections is nil or mismatched, bits are flipped in increasing index
// order instead. Single-bit flips come before two-bit flips. The original
// hash is not included.
func (f *HashFunction) Probes(hash uint64, projections []float64, numProbes int) []uint64 {
	if numProbes <= 0 {
		return nil
	}

	order := make([]int, f.k)
	for i := range order {
		order[i] = i
	}
	if len(projections) == f.k {
		sort.SliceStable(order, func(a, b int) bool {
			return math.Abs(projections[order[a]]) < math.Abs(projections[order[b]])
		})
	}

	probes := make([]uint64, 0, numProbes)
	for _, bit := range order {
		if len(probes) == numProbes {
			return probes
		}
		probes = append(probes, hash^(1<<uint(bit)))
	}

	// Two-bit perturbations, least-confident pairs first.
	for a := 0; a < f.k && len(probes) < numProbes; a++ {
		for b := a + 1; b < f.k && len(probes) < numProbes; b++ {
			probes = append(probes, hash^(1<<uint(order[a]))^(1<<uint(order[b])))
		}
	}
	return probes
}

// HammingDistance counts differing bits between two hash keys.
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// EstimateCosine is the SimHash estimator cos(pi*hamming/K). It is a cheap
// pre-filter only, never the final similarity.
func EstimateCosine(a, b uint64, k int) float64 {
	if k <= 0 {
		return 0
	}
	return math.Cos(math.Pi * float64(HammingDistance(a, b)) / float64(k))
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// unitPlane generates a unit-norm hyperplane from a seed.
func unitPlane(seed uint64, dim int) []float64 {
	rng := rand.New(rand.NewSource(int64(seed))) //nolint:gosec
	plane := make([]float64, dim)
	var norm float64
	for i := range plane {
		plane[i] = rng.NormFloat64()
		norm += plane[i] * plane[i]
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range plane {
			plane[i] /= norm
		}
	}
	return plane
}

func planeSeed(seed uint64, tableIndex, bit int) uint64 {
	return splitmix64(seed ^ uint64(tableIndex)<<32 ^ uint64(bit))
}

// splitmix64 finalizes a seed into a well-mixed 64-bit value.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
