package engine

import (
	"testing"

	"dupfind/internal/errors"
)

func TestClassifyBands(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		similarity float64
		want       CloneType
	}{
		{1.0, Type1},
		{0.995, Type1},
		{0.99, Type1}, // lower bound inclusive
		{0.989, Type2},
		{0.95, Type2}, // exactly 0.95 is type-2, not type-3
		{0.949, Type3},
		{0.85, Type3},
		{0.849, Type4},
		{0.70, Type4},
		{0.699, TypeNone},
		{0.0, TypeNone},
	}

	for _, tt := range tests {
		if got := th.Classify(tt.similarity); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.similarity, got, tt.want)
		}
	}
}

func TestBandsContiguous(t *testing.T) {
	th := DefaultThresholds()

	// Walking down from 1.0, the band sequence must be non-repeating and in
	// order: every score belongs to exactly one band.
	prev := Type1
	orders := map[CloneType]int{Type1: 0, Type2: 1, Type3: 2, Type4: 3, TypeNone: 4}
	for s := 1.0; s >= 0; s -= 0.001 {
		cur := th.Classify(s)
		if orders[cur] < orders[prev] {
			t.Fatalf("band order violated at %v: %s after %s", s, cur, prev)
		}
		prev = cur
	}
}

func TestThresholdsValidate(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Errorf("default thresholds should validate: %v", err)
	}

	bad := Thresholds{Type1: 0.9, Type2: 0.95, Type3: 0.85, Type4: 0.7}
	if err := bad.Validate(); !errors.HasCode(err, errors.ConfigInvalid) {
		t.Errorf("non-descending thresholds: err = %v, want CONFIG_INVALID", err)
	}

	bad = Thresholds{Type1: 0.99, Type2: 0.95, Type3: 0.85, Type4: 0}
	if err := bad.Validate(); !errors.HasCode(err, errors.ConfigInvalid) {
		t.Errorf("zero threshold: err = %v, want CONFIG_INVALID", err)
	}
}

func TestCustomThresholds(t *testing.T) {
	th := Thresholds{Type1: 0.98, Type2: 0.9, Type3: 0.8, Type4: 0.6}
	if err := th.Validate(); err != nil {
		t.Fatal(err)
	}
	if got := th.Classify(0.95); got != Type2 {
		t.Errorf("Classify(0.95) with custom bands = %s, want %s", got, Type2)
	}
}
