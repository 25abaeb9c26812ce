// Package model describes serialized tokenizers and turns them into text
// processors.
//
// A Model is the portable form of a tokenizer: its kind, the split pattern
// it was trained with, its merge rules and, for shuffled tokenizers, the
// byte permutation. Constructors for each kind are registered by name.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ollama/minibpe/bpe"
)

var (
	ErrUnsupportedModel  = errors.New("tokenizer kind not supported")
	ErrUnsupportedFormat = errors.New("tokenizer file format not supported")
	ErrMissingShuffle    = errors.New("shuffled tokenizer has no byte shuffle")
)

const (
	KindBasic    = "basic"
	KindShuffled = "shuffled"
)

// Model is a tokenizer in serializable form.
type Model struct {
	Kind    string
	Pattern string
	Merges  []bpe.MergeRule
	Shuffle *bpe.ByteShuffle
}

// TextProcessor is a built tokenizer.
type TextProcessor interface {
	Encode(string) []bpe.TokenID
	Decode([]bpe.TokenID) (string, error)
	DecodeBytes([]bpe.TokenID) ([]byte, error)
	Merges() []bpe.MergeRule
	Vocabulary() bpe.Vocabulary
}

var (
	_ TextProcessor = (*bpe.Tokenizer)(nil)
	_ TextProcessor = (*bpe.ShuffledTokenizer)(nil)
)

var kinds = make(map[string]func(Model) (TextProcessor, error))

// Register makes a constructor available for kind.
func Register(kind string, f func(Model) (TextProcessor, error)) {
	if _, ok := kinds[kind]; ok {
		panic("model: kind already registered: " + kind)
	}

	kinds[kind] = f
}

func init() {
	Register(KindBasic, func(m Model) (TextProcessor, error) {
		t, err := bpe.New(m.Merges)
		if err != nil {
			return nil, err
		}
		return t, nil
	})

	Register(KindShuffled, func(m Model) (TextProcessor, error) {
		if m.Shuffle == nil {
			return nil, ErrMissingShuffle
		}

		t, err := bpe.NewShuffled(m.Merges, *m.Shuffle)
		if err != nil {
			return nil, err
		}
		return t, nil
	})
}

// New builds the text processor described by m. An empty kind is inferred
// from whether m carries a shuffle.
func New(m Model) (TextProcessor, error) {
	kind := m.EffectiveKind()

	f, ok := kinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, kind)
	}

	return f(m)
}

// EffectiveKind is Kind, or the kind implied by Shuffle when Kind is empty.
func (m Model) EffectiveKind() string {
	switch {
	case m.Kind != "":
		return m.Kind
	case m.Shuffle != nil:
		return KindShuffled
	default:
		return KindBasic
	}
}

// FromTextProcessor captures tp as a Model. pattern records how the
// training text was split and may be empty.
func FromTextProcessor(tp TextProcessor, pattern string) Model {
	m := Model{Kind: KindBasic, Pattern: pattern, Merges: tp.Merges()}
	if s, ok := tp.(*bpe.ShuffledTokenizer); ok {
		shuffle := s.Shuffle()
		m.Kind, m.Shuffle = KindShuffled, &shuffle
	}
	return m
}

// Digest identifies the content of m. Merge order does not matter.
func (m Model) Digest() string {
	merges := make([]bpe.MergeRule, len(m.Merges))
	copy(merges, m.Merges)
	bpe.SortMerges(merges)

	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00", m.EffectiveKind(), m.Pattern)
	for _, rule := range merges {
		fmt.Fprintf(h, "%d %d %d\n", rule.First, rule.Second, rule.ID)
	}

	if m.Shuffle != nil {
		h.Write(m.Shuffle[:])
	}

	return "sha256:" + hex.EncodeToString(h.Sum(nil))
}
