package bpe

import (
	"fmt"
	"maps"
	"slices"
	"unicode/utf8"

	"github.com/ollama/minibpe/logutil"
)

// Tokenizer holds a merge table and the vocabulary derived from it. It is
// never modified after construction and is safe for concurrent use.
type Tokenizer struct {
	merges map[Pair]TokenID
	vocab  Vocabulary
}

// New builds a tokenizer from merge rules given in any order.
func New(rules []MergeRule) (*Tokenizer, error) {
	merges := make(map[Pair]TokenID, len(rules))
	for _, rule := range rules {
		if _, ok := merges[rule.Pair]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePair, rule.Pair)
		}
		merges[rule.Pair] = rule.ID
	}

	return newTokenizer(merges)
}

func newTokenizer(merges map[Pair]TokenID) (*Tokenizer, error) {
	vocab, err := BuildVocabulary(merges)
	if err != nil {
		return nil, err
	}

	return &Tokenizer{merges: merges, vocab: vocab}, nil
}

// Merges returns the merge rules sorted by id.
func (t *Tokenizer) Merges() []MergeRule {
	return Rules(t.merges)
}

// Vocabulary returns a copy of the vocabulary.
func (t *Tokenizer) Vocabulary() Vocabulary {
	vocab := make(Vocabulary, len(t.vocab))
	for id, b := range t.vocab {
		vocab[id] = slices.Clone(b)
	}
	return vocab
}

// Size is the number of tokens in the vocabulary, bytes included.
func (t *Tokenizer) Size() int {
	return len(t.vocab)
}

// IDs returns every token id in ascending order.
func (t *Tokenizer) IDs() []TokenID {
	return slices.Sorted(maps.Keys(t.vocab))
}

func (t *Tokenizer) Encode(text string) []TokenID {
	return t.EncodeBytes([]byte(text))
}

// EncodeBytes applies merges to b until none applies. Each round merges the
// pair present in the sequence whose rule was learned first, which replays
// the order merges were learned in.
func (t *Tokenizer) EncodeBytes(b []byte) []TokenID {
	tokens := make([]TokenID, len(b))
	for i, c := range b {
		tokens[i] = TokenID(c)
	}

	for len(tokens) >= 2 {
		pair, id, ok := t.nextMerge(tokens)
		if !ok {
			break
		}
		tokens = Merge(tokens, pair, id)
	}

	logutil.Trace("encoded", "bytes", len(b), "tokens", len(tokens))
	return tokens
}

func (t *Tokenizer) nextMerge(tokens []TokenID) (best Pair, bestID TokenID, ok bool) {
	for pair := range CountPairs(tokens) {
		if id, found := t.merges[pair]; found && (!ok || id < bestID) {
			best, bestID, ok = pair, id, true
		}
	}
	return best, bestID, ok
}

// DecodeBytes concatenates the bytes of every token.
func (t *Tokenizer) DecodeBytes(ids []TokenID) ([]byte, error) {
	var b []byte
	for _, id := range ids {
		token, ok := t.vocab[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownToken, id)
		}
		b = append(b, token...)
	}
	return b, nil
}

// Decode returns the text for ids. Each maximal invalid UTF-8 subsequence
// is replaced with U+FFFD rather than reported.
func (t *Tokenizer) Decode(ids []TokenID) (string, error) {
	b, err := t.DecodeBytes(ids)
	if err != nil {
		return "", err
	}
	return lossyString(b), nil
}

// lossyString replaces each maximal invalid subsequence of b with one
// utf8.RuneError, matching the replacement rules of the Unicode standard.
func lossyString(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	s := make([]byte, 0, len(b)+8)
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			s = utf8.AppendRune(s, utf8.RuneError)
			size = invalidPrefix(b)
		} else {
			s = append(s, b[:size]...)
		}
		b = b[size:]
	}
	return string(s)
}

// invalidPrefix returns the length of the maximal prefix of b that could
// start a well-formed sequence. b must not start with a valid rune.
func invalidPrefix(b []byte) int {
	var lo, hi byte = 0x80, 0xbf
	var need int
	switch c := b[0]; {
	case c >= 0xc2 && c <= 0xdf:
		need = 1
	case c == 0xe0:
		need, lo = 2, 0xa0
	case c == 0xed:
		need, hi = 2, 0x9f
	case c >= 0xe1 && c <= 0xef:
		need = 2
	case c == 0xf0:
		need, lo = 3, 0x90
	case c == 0xf4:
		need, hi = 3, 0x8f
	case c >= 0xf1 && c <= 0xf3:
		need = 3
	default:
		return 1
	}

	n := 1
	for n <= need && n < len(b) && b[n] >= lo && b[n] <= hi {
		n++
		lo, hi = 0x80, 0xbf
	}
	return n
}
