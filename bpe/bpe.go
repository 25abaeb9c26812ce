// Package bpe implements byte-level Byte-Pair Encoding: learning merge rules
// from text and applying them to encode and decode token sequences.
//
// Token ids below 256 always denote the raw byte of the same value. Learned
// ids start at 256 and are assigned in the order merges are learned, so a
// merge table alone is enough to rebuild the vocabulary.
package bpe

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// NumBytes is the number of reserved byte-valued token ids.
const NumBytes = 256

var (
	// ErrNotEnoughPairs is returned by training when the input runs out of
	// adjacent pairs before the requested vocabulary size is reached.
	ErrNotEnoughPairs = errors.New("not enough pairs to reach vocabulary size")

	// ErrUnknownToken is returned when decoding an id that has no vocabulary
	// entry. Sequences produced by Encode never trigger it.
	ErrUnknownToken = errors.New("token not in vocabulary")

	// Errors from rebuilding a vocabulary out of merge rules.
	ErrReservedID        = errors.New("merge assigns a reserved byte id")
	ErrDuplicateID       = errors.New("merge id assigned more than once")
	ErrDuplicatePair     = errors.New("pair merged more than once")
	ErrUnresolvedOperand = errors.New("merge operand not defined by an earlier merge")

	// Errors from validating a byte shuffle.
	ErrIncompleteShuffle = errors.New("byte shuffle does not map every byte")
	ErrDuplicateShuffle  = errors.New("byte shuffle maps two bytes to the same value")
)

// TokenID identifies a token. Ids below NumBytes are raw bytes.
type TokenID uint32

// Pair is an ordered pair of adjacent tokens.
type Pair struct {
	First, Second TokenID
}

// Compare orders pairs lexicographically by First, then Second.
func (p Pair) Compare(o Pair) int {
	if c := cmp.Compare(p.First, o.First); c != 0 {
		return c
	}
	return cmp.Compare(p.Second, o.Second)
}

func (p Pair) String() string {
	return fmt.Sprintf("(%d, %d)", p.First, p.Second)
}

// MergeRule records that Pair is replaced by ID.
type MergeRule struct {
	Pair
	ID TokenID
}

func (r MergeRule) String() string {
	return fmt.Sprintf("%s -> %d", r.Pair, r.ID)
}

// MarshalJSON encodes the rule as the triple [first, second, id].
func (r MergeRule) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]TokenID{r.First, r.Second, r.ID})
}

func (r *MergeRule) UnmarshalJSON(data []byte) error {
	var triple []TokenID
	if err := json.Unmarshal(data, &triple); err != nil {
		return err
	}

	if len(triple) != 3 {
		return fmt.Errorf("merge rule: expected [first, second, id], got %d values", len(triple))
	}

	*r = MergeRule{Pair: Pair{triple[0], triple[1]}, ID: triple[2]}
	return nil
}

// SortMerges sorts rules by ascending id. Rules sharing an id are ordered by
// pair so the result does not depend on input order.
func SortMerges(rules []MergeRule) {
	slices.SortFunc(rules, func(a, b MergeRule) int {
		if c := cmp.Compare(a.ID, b.ID); c != 0 {
			return c
		}
		return a.Pair.Compare(b.Pair)
	})
}

// Rules flattens a merge table into rules sorted by id.
func Rules(merges map[Pair]TokenID) []MergeRule {
	rules := make([]MergeRule, 0, len(merges))
	for p, id := range merges {
		rules = append(rules, MergeRule{Pair: p, ID: id})
	}
	SortMerges(rules)
	return rules
}

// Vocabulary maps every token id to the bytes it stands for.
type Vocabulary map[TokenID][]byte
