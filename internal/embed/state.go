package embed

import "dupfind/internal/errors"

// StateVersion is the current embedder state schema version.
const StateVersion = 1

// State is the serializable embedder state. Together with Config it is
// sufficient to reconstruct an embedder whose subsequent embeddings are
// numerically consistent with the pre-export trajectory: the projection is
// re-derived from the seed, and vocabulary indices and document frequencies
// are carried over verbatim.
type State struct {
	Version  int                   `json:"version"`
	Config   Config                `json:"config"`
	DocCount int                   `json:"docCount"`
	Vocab    map[string]VocabEntry `json:"vocab"`
}

// ExportState returns a deep copy of the embedder's mutable state.
func (e *TFIDF) ExportState() *State {
	vocab := make(map[string]VocabEntry, len(e.vocab))
	for term, entry := range e.vocab {
		vocab[term] = *entry
	}
	return &State{
		Version:  StateVersion,
		Config:   e.cfg,
		DocCount: e.docCount,
		Vocab:    vocab,
	}
}

// ImportState replaces the embedder's vocabulary and document count with the
// exported state. The state's config must match the embedder's construction
// config exactly; projection determinism depends on it.
func (e *TFIDF) ImportState(s *State) error {
	if s == nil {
		return errors.New(errors.SerializationFailed, "nil embedder state")
	}
	if s.Version != StateVersion {
		return errors.Newf(errors.SerializationFailed, "unsupported embedder state version %d", s.Version)
	}
	if s.Config != e.cfg {
		return errors.New(errors.ConfigInvalid, "embedder state config does not match construction config")
	}
	if len(s.Vocab) > e.cfg.MaxVocabSize {
		return errors.Newf(errors.SerializationFailed, "vocabulary size %d exceeds capacity %d", len(s.Vocab), e.cfg.MaxVocabSize)
	}

	vocab := make(map[string]*VocabEntry, len(s.Vocab))
	seen := make(map[int]bool, len(s.Vocab))
	for term, entry := range s.Vocab {
		if entry.Index < 0 || entry.Index >= e.cfg.MaxVocabSize {
			return errors.Newf(errors.SerializationFailed, "vocabulary index %d out of range for term %q", entry.Index, term)
		}
		if seen[entry.Index] {
			return errors.Newf(errors.SerializationFailed, "duplicate vocabulary index %d", entry.Index)
		}
		seen[entry.Index] = true
		ec := entry
		vocab[term] = &ec
	}

	e.vocab = vocab
	e.docCount = s.DocCount
	return nil
}
