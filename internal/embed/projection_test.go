package embed

import (
	"math"
	"testing"
)

func TestProjectionColumnDeterminism(t *testing.T) {
	p1 := newProjection(64, 1000, 7)
	p2 := newProjection(64, 1000, 7)

	// Touch columns in different orders; values must not depend on order.
	a := p1.column(3)
	p2.column(40)
	b := p2.column(3)

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("column 3 differs at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestProjectionSeedSensitivity(t *testing.T) {
	p1 := newProjection(64, 1000, 7)
	p2 := newProjection(64, 1000, 8)

	a, b := p1.column(0), p2.column(0)
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds should produce different columns")
	}
}

func TestProjectionEntryDistribution(t *testing.T) {
	const dim, cols = 64, 200
	p := newProjection(dim, cols, 1)

	// Entries should be approximately N(0, 1/maxVocab): check the empirical
	// variance of a large sample against the expected scale.
	var sum, sumSq float64
	n := 0
	for j := 0; j < cols; j++ {
		for _, v := range p.column(j) {
			sum += v
			sumSq += v * v
			n++
		}
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean

	want := 1.0 / float64(cols)
	if variance < want*0.8 || variance > want*1.2 {
		t.Errorf("entry variance = %v, want ~%v", variance, want)
	}
}

func TestNormalGenBoxMuller(t *testing.T) {
	gen := newNormalGen(99)

	var sum, sumSq float64
	const n = 50000
	for i := 0; i < n; i++ {
		v := gen.next()
		sum += v
		sumSq += v * v
	}
	mean := sum / n
	variance := sumSq/n - mean*mean

	if math.Abs(mean) > 0.05 {
		t.Errorf("mean = %v, want ~0", mean)
	}
	if math.Abs(variance-1) > 0.05 {
		t.Errorf("variance = %v, want ~1", variance)
	}
}
