package model

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ollama/minibpe/bpe"
)

const jsonVersion = 1

type document struct {
	Version int             `json:"version"`
	Kind    string          `json:"kind"`
	Pattern string          `json:"pattern,omitempty"`
	Merges  []bpe.MergeRule `json:"merges"`

	// ByteShuffle is a list of ints rather than []byte, which would be
	// written as base64.
	ByteShuffle []int `json:"byte_shuffle,omitempty"`
}

// WriteJSON writes m as an indented JSON document with merges in id order.
func WriteJSON(w io.Writer, m Model) error {
	merges := make([]bpe.MergeRule, len(m.Merges))
	copy(merges, m.Merges)
	bpe.SortMerges(merges)

	doc := document{
		Version: jsonVersion,
		Kind:    m.EffectiveKind(),
		Pattern: m.Pattern,
		Merges:  merges,
	}

	if m.Shuffle != nil {
		doc.ByteShuffle = make([]int, len(m.Shuffle))
		for i, b := range m.Shuffle {
			doc.ByteShuffle[i] = int(b)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// ReadJSON reads a document written by WriteJSON.
func ReadJSON(r io.Reader) (Model, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Model{}, fmt.Errorf("decode tokenizer: %w", err)
	}

	if doc.Version != jsonVersion {
		return Model{}, fmt.Errorf("%w: json version %d", ErrUnsupportedFormat, doc.Version)
	}

	m := Model{Kind: doc.Kind, Pattern: doc.Pattern, Merges: doc.Merges}
	if doc.ByteShuffle != nil {
		if len(doc.ByteShuffle) != bpe.NumBytes {
			return Model{}, fmt.Errorf("%w: %d entries", bpe.ErrIncompleteShuffle, len(doc.ByteShuffle))
		}

		var shuffle bpe.ByteShuffle
		for i, v := range doc.ByteShuffle {
			if v < 0 || v >= bpe.NumBytes {
				return Model{}, fmt.Errorf("byte shuffle: entry %d out of range: %d", i, v)
			}
			shuffle[i] = byte(v)
		}

		if err := shuffle.Validate(); err != nil {
			return Model{}, err
		}
		m.Shuffle = &shuffle
	}

	return m, nil
}
