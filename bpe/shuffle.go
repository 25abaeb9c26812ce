package bpe

import "fmt"

// ByteShuffle is a permutation of byte values applied to raw input before
// BPE and undone after decoding.
type ByteShuffle [NumBytes]byte

// IdentityShuffle maps every byte to itself.
func IdentityShuffle() ByteShuffle {
	var s ByteShuffle
	for i := range s {
		s[i] = byte(i)
	}
	return s
}

// NewByteShuffle builds a shuffle from an explicit mapping. The mapping must
// cover all 256 bytes and must not map two bytes to the same value.
func NewByteShuffle(m map[byte]byte) (ByteShuffle, error) {
	var s ByteShuffle
	for i := range s {
		v, ok := m[byte(i)]
		if !ok {
			return s, fmt.Errorf("%w: no entry for byte %d", ErrIncompleteShuffle, i)
		}
		s[i] = v
	}

	return s, s.Validate()
}

// Validate reports whether s is a bijection.
func (s ByteShuffle) Validate() error {
	var seen [NumBytes]bool
	for i, v := range s {
		if seen[v] {
			return fmt.Errorf("%w: byte %d maps to %d", ErrDuplicateShuffle, i, v)
		}
		seen[v] = true
	}
	return nil
}

// Inverse returns the permutation that undoes s. It assumes s is valid.
func (s ByteShuffle) Inverse() ByteShuffle {
	var inv ByteShuffle
	for i, v := range s {
		inv[v] = byte(i)
	}
	return inv
}

// Apply returns a remapped copy of b.
func (s ByteShuffle) Apply(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[i] = s[c]
	}
	return out
}

// ShuffledTokenizer wraps a Tokenizer whose merges were learned over
// shuffled bytes.
type ShuffledTokenizer struct {
	*Tokenizer
	shuffle, inverse ByteShuffle
}

// NewShuffled builds a tokenizer from merges over the shuffled alphabet.
func NewShuffled(rules []MergeRule, shuffle ByteShuffle) (*ShuffledTokenizer, error) {
	if err := shuffle.Validate(); err != nil {
		return nil, err
	}

	t, err := New(rules)
	if err != nil {
		return nil, err
	}

	return &ShuffledTokenizer{Tokenizer: t, shuffle: shuffle, inverse: shuffle.Inverse()}, nil
}

// TrainShuffled learns merges over text remapped through shuffle. Splitting,
// if any, happens on the original text.
func TrainShuffled(text string, vocabSize int, shuffle ByteShuffle, s Splitter) (*ShuffledTokenizer, error) {
	segments, err := split(text, s)
	if err != nil {
		return nil, err
	}

	return TrainShuffledSegments(segments, vocabSize, shuffle)
}

// TrainShuffledSegments is TrainSegments over bytes remapped through shuffle.
func TrainShuffledSegments(segments [][]byte, vocabSize int, shuffle ByteShuffle) (*ShuffledTokenizer, error) {
	if err := shuffle.Validate(); err != nil {
		return nil, err
	}

	merges, err := newTrainer(toTokens(segments, &shuffle), vocabSize).run()
	if err != nil {
		return nil, err
	}

	t, err := newTokenizer(merges)
	if err != nil {
		return nil, err
	}

	return &ShuffledTokenizer{Tokenizer: t, shuffle: shuffle, inverse: shuffle.Inverse()}, nil
}

// Shuffle returns the forward byte mapping.
func (t *ShuffledTokenizer) Shuffle() ByteShuffle {
	return t.shuffle
}

func (t *ShuffledTokenizer) Encode(text string) []TokenID {
	return t.EncodeBytes([]byte(text))
}

func (t *ShuffledTokenizer) EncodeBytes(b []byte) []TokenID {
	return t.Tokenizer.EncodeBytes(t.shuffle.Apply(b))
}

// DecodeBytes returns the original, unshuffled bytes for ids.
func (t *ShuffledTokenizer) DecodeBytes(ids []TokenID) ([]byte, error) {
	b, err := t.Tokenizer.DecodeBytes(ids)
	if err != nil {
		return nil, err
	}

	for i, c := range b {
		b[i] = t.inverse[c]
	}
	return b, nil
}

func (t *ShuffledTokenizer) Decode(ids []TokenID) (string, error) {
	b, err := t.DecodeBytes(ids)
	if err != nil {
		return "", err
	}
	return lossyString(b), nil
}
