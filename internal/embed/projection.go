package embed

import (
	"math"
	"sort"
	"sync"
)

// projection is the fixed dense random-projection matrix, dimension rows by
// maxVocab columns, with approximately standard-normal entries scaled by
// 1/sqrt(maxVocab) so pairwise distances are preserved in expectation.
//
// Columns are generated lazily and cached: each column's generator stream is
// seeded by mixing (seed, column), so the values are independent of the order
// in which vocabulary indices are first touched. At default settings the full
// matrix would be dimension x 50000 floats; lazy generation materializes only
// the columns the corpus vocabulary actually uses.
//
// The column cache is guarded by its own mutex: concurrent read-only
// embeddings still fault columns in on first touch, so cache writes can
// happen on paths that are otherwise pure reads.
type projection struct {
	dim      int
	maxVocab int
	seed     uint64
	scale    float64

	mu   sync.Mutex
	cols map[int][]float64
}

func newProjection(dim, maxVocab int, seed uint64) *projection {
	return &projection{
		dim:      dim,
		maxVocab: maxVocab,
		seed:     seed,
		scale:    1.0 / math.Sqrt(float64(maxVocab)),
		cols:     make(map[int][]float64),
	}
}

// column returns the dim-length projection column for vocabulary index j.
// Safe for concurrent use; cached columns are immutable once published.
func (p *projection) column(j int) []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if col, ok := p.cols[j]; ok {
		return col
	}

	gen := newNormalGen(splitmix64(p.seed ^ uint64(j)*0x9e3779b97f4a7c15))
	col := make([]float64, p.dim)
	for i := range col {
		col[i] = gen.next() * p.scale
	}
	p.cols[j] = col
	return col
}

// apply multiplies a sparse vector (vocab index -> weight) by the projection
// matrix, producing a dense vector of length dim. Columns are accumulated in
// ascending index order so that float summation order, and therefore the
// output bits, do not depend on map iteration order.
func (p *projection) apply(sparse map[int]float64) []float64 {
	indices := make([]int, 0, len(sparse))
	for j, w := range sparse {
		if w != 0 {
			indices = append(indices, j)
		}
	}
	sort.Ints(indices)

	dense := make([]float64, p.dim)
	for _, j := range indices {
		w := sparse[j]
		col := p.column(j)
		for i, v := range col {
			dense[i] += w * v
		}
	}
	return dense
}

// normalGen produces standard-normal values from a 64-bit linear
// congruential generator feeding a Box-Muller transform.
type normalGen struct {
	state uint64
	spare float64
	have  bool
}

func newNormalGen(seed uint64) *normalGen {
	return &normalGen{state: seed}
}

// uniform returns the next value in (0, 1).
func (g *normalGen) uniform() float64 {
	// Knuth/Numerical Recipes 64-bit LCG constants.
	g.state = g.state*6364136223846793005 + 1442695040888963407
	return (float64(g.state>>11) + 0.5) / (1 << 53)
}

// next returns the next standard-normal value.
func (g *normalGen) next() float64 {
	if g.have {
		g.have = false
		return g.spare
	}
	u1 := g.uniform()
	u2 := g.uniform()
	r := math.Sqrt(-2 * math.Log(u1))
	g.spare = r * math.Sin(2*math.Pi*u2)
	g.have = true
	return r * math.Cos(2*math.Pi*u2)
}

// splitmix64 finalizes a seed into a well-mixed 64-bit value.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
