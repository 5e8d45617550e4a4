package lsh

import (
	"math"
	"math/rand"
	"testing"

	"dupfind/internal/errors"
)

func randomUnitVector(rng *rand.Rand, dim int) []float64 {
	v := make([]float64, dim)
	var norm float64
	for i := range v {
		v[i] = rng.NormFloat64()
		norm += v[i] * v[i]
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] /= norm
	}
	return v
}

func TestNewHashFunctionValidation(t *testing.T) {
	tests := []struct {
		name       string
		tableIndex int
		k, dim     int
	}{
		{"zero bits", 0, 0, 16},
		{"too many bits", 0, 65, 16},
		{"zero dim", 0, 16, 0},
		{"negative table", -1, 16, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHashFunction(1, tt.tableIndex, tt.k, tt.dim)
			if !errors.HasCode(err, errors.ConfigInvalid) {
				t.Errorf("err = %v, want CONFIG_INVALID", err)
			}
		})
	}
}

func TestHashDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	v := randomUnitVector(rng, 32)

	f1, _ := NewHashFunction(7, 2, 12, 32)
	f2, _ := NewHashFunction(7, 2, 12, 32)

	if f1.Hash(v) != f2.Hash(v) {
		t.Error("identical (seed, table, K, D) must regenerate identical hyperplanes")
	}
	if f1.Hash(v) != f1.Hash(v) {
		t.Error("Hash must be repeatable for an identical vector")
	}
}

func TestHashTablesDiffer(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	f1, _ := NewHashFunction(7, 0, 16, 32)
	f2, _ := NewHashFunction(7, 1, 16, 32)

	same := 0
	const trials = 50
	for i := 0; i < trials; i++ {
		v := randomUnitVector(rng, 32)
		if f1.Hash(v) == f2.Hash(v) {
			same++
		}
	}
	if same == trials {
		t.Error("different table indices should derive different hyperplanes")
	}
}

func TestHashBitPacking(t *testing.T) {
	f, _ := NewHashFunction(3, 0, 8, 16)
	rng := rand.New(rand.NewSource(3))
	v := randomUnitVector(rng, 16)

	projs := f.Projections(v)
	hash := f.Hash(v)
	for i, p := range projs {
		bit := hash>>uint(i)&1 == 1
		if bit != (p >= 0) {
			t.Errorf("bit %d = %v, projection = %v: packing order violated", i, bit, p)
		}
	}
}

func TestHammingDistance(t *testing.T) {
	tests := []struct {
		a, b uint64
		want int
	}{
		{0, 0, 0},
		{0b1010, 0b1010, 0},
		{0b1010, 0b0101, 4},
		{0xFFFF, 0, 16},
	}
	for _, tt := range tests {
		if got := HammingDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("HammingDistance(%#x, %#x) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if HammingDistance(tt.a, tt.b) != HammingDistance(tt.b, tt.a) {
			t.Errorf("HammingDistance(%#x, %#x) not symmetric", tt.a, tt.b)
		}
	}
}

func TestEstimateCosineMonotonic(t *testing.T) {
	const k = 16
	prev := math.Inf(1)
	for d := 0; d <= k; d++ {
		// Construct hashes at exactly d differing bits.
		var b uint64
		for i := 0; i < d; i++ {
			b |= 1 << uint(i)
		}
		est := EstimateCosine(0, b, k)
		if est > prev {
			t.Errorf("estimate at distance %d = %v, exceeds %v at smaller distance", d, est, prev)
		}
		prev = est
	}

	if got := EstimateCosine(0b1011, 0b1011, k); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("EstimateCosine(equal) = %v, want 1.0", got)
	}
}

func TestProbesConfidenceOrder(t *testing.T) {
	f, _ := NewHashFunction(11, 0, 8, 16)

	projections := []float64{0.9, -0.01, 0.5, 0.002, -0.7, 0.3, -0.2, 0.05}
	hash := uint64(0b10110010)

	probes := f.Probes(hash, projections, 3)
	want := []uint64{
		hash ^ (1 << 3), // |0.002| smallest
		hash ^ (1 << 1), // |-0.01|
		hash ^ (1 << 7), // |0.05|
	}
	if len(probes) != 3 {
		t.Fatalf("len(probes) = %d, want 3", len(probes))
	}
	for i := range want {
		if probes[i] != want[i] {
			t.Errorf("probes[%d] = %#x, want %#x", i, probes[i], want[i])
		}
	}
}

func TestProbesIndexOrderFallback(t *testing.T) {
	f, _ := NewHashFunction(11, 0, 8, 16)
	hash := uint64(0b1)

	probes := f.Probes(hash, nil, 4)
	want := []uint64{hash ^ 1, hash ^ 2, hash ^ 4, hash ^ 8}
	for i := range want {
		if probes[i] != want[i] {
			t.Errorf("probes[%d] = %#x, want %#x (index-order fallback)", i, probes[i], want[i])
		}
	}
}

func TestProbesTwoBitPerturbations(t *testing.T) {
	f, _ := NewHashFunction(11, 0, 4, 16)

	probes := f.Probes(0, nil, 6)
	if len(probes) != 6 {
		t.Fatalf("len(probes) = %d, want 6", len(probes))
	}
	// After the 4 single flips, two-bit flips follow.
	if probes[4] != 0b0011 {
		t.Errorf("probes[4] = %#b, want 0b0011", probes[4])
	}

	seen := make(map[uint64]bool)
	for _, p := range probes {
		if p == 0 {
			t.Error("probes must not include the original hash")
		}
		if seen[p] {
			t.Errorf("duplicate probe %#x", p)
		}
		seen[p] = true
	}
}

func TestUnitPlaneNorm(t *testing.T) {
	f, _ := NewHashFunction(5, 0, 4, 64)
	for i, plane := range f.planes {
		var norm float64
		for _, x := range plane {
			norm += x * x
		}
		if math.Abs(math.Sqrt(norm)-1.0) > 1e-9 {
			t.Errorf("plane %d norm = %v, want 1.0", i, math.Sqrt(norm))
		}
	}
}
