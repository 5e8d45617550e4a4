package engine

import "dupfind/internal/errors"

// CloneType labels a similarity band. Types are ordered by decreasing
// similarity: exact, parameterized, near-miss, semantic.
type CloneType string

const (
	// Type1 is an exact clone (similarity >= the type-1 threshold)
	Type1 CloneType = "type-1"
	// Type2 is a parameterized clone (identifiers/literals renamed)
	Type2 CloneType = "type-2"
	// Type3 is a near-miss clone (statements added/removed)
	Type3 CloneType = "type-3"
	// Type4 is a semantic clone (similar behavior, different syntax)
	Type4 CloneType = "type-4"
	// TypeNone marks a match below every clone band
	TypeNone CloneType = "none"
)

// Thresholds holds the inclusive lower bound of each clone band. Bands are
// contiguous: [Type1, 1], [Type2, Type1), [Type3, Type2), [Type4, Type3).
type Thresholds struct {
	Type1 float64 `json:"type1" mapstructure:"type1"`
	Type2 float64 `json:"type2" mapstructure:"type2"`
	Type3 float64 `json:"type3" mapstructure:"type3"`
	Type4 float64 `json:"type4" mapstructure:"type4"`
}

// DefaultThresholds returns the standard clone-type bands.
func DefaultThresholds() Thresholds {
	return Thresholds{Type1: 0.99, Type2: 0.95, Type3: 0.85, Type4: 0.70}
}

// Validate checks that the bands are strictly descending within (0, 1].
func (t Thresholds) Validate() error {
	if !(t.Type1 > t.Type2 && t.Type2 > t.Type3 && t.Type3 > t.Type4) {
		return errors.Newf(errors.ConfigInvalid,
			"clone thresholds must be strictly descending, got %v > %v > %v > %v",
			t.Type1, t.Type2, t.Type3, t.Type4)
	}
	if t.Type4 <= 0 || t.Type1 > 1 {
		return errors.Newf(errors.ConfigInvalid, "clone thresholds must lie in (0, 1], got %+v", t)
	}
	return nil
}

// Classify maps a similarity score to its clone band. Lower bounds are
// inclusive: a score exactly at a threshold belongs to the higher band.
func (t Thresholds) Classify(similarity float64) CloneType {
	switch {
	case similarity >= t.Type1:
		return Type1
	case similarity >= t.Type2:
		return Type2
	case similarity >= t.Type3:
		return Type3
	case similarity >= t.Type4:
		return Type4
	default:
		return TypeNone
	}
}
