package bpe

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func identityVocabulary() Vocabulary {
	vocab := make(Vocabulary)
	for i := range NumBytes {
		vocab[TokenID(i)] = []byte{byte(i)}
	}
	return vocab
}

func TestBuildVocabulary(t *testing.T) {
	merges := map[Pair]TokenID{{1, 2}: 256, {256, 3}: 257}

	want := identityVocabulary()
	want[256] = []byte{1, 2}
	want[257] = []byte{1, 2, 3}

	got, err := BuildVocabulary(merges)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildVocabularyOrderIndependent(t *testing.T) {
	tok, err := Train("the quick brown fox jumps over the lazy dog, then the fox naps", 256+20)
	require.NoError(t, err)

	rules := tok.Merges()
	want := tok.Vocabulary()

	r := rand.New(rand.NewPCG(1, 2))
	for range 10 {
		r.Shuffle(len(rules), func(i, j int) { rules[i], rules[j] = rules[j], rules[i] })

		merges := make(map[Pair]TokenID, len(rules))
		for _, rule := range rules {
			merges[rule.Pair] = rule.ID
		}

		got, err := BuildVocabulary(merges)
		require.NoError(t, err)

		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestBuildVocabularyErrors(t *testing.T) {
	cases := []struct {
		name   string
		merges map[Pair]TokenID
		err    error
	}{
		{"reserved", map[Pair]TokenID{{1, 2}: 98}, ErrReservedID},
		{"duplicate id", map[Pair]TokenID{{1, 2}: 256, {2, 3}: 256}, ErrDuplicateID},
		{"forward reference", map[Pair]TokenID{{257, 3}: 256, {1, 2}: 257}, ErrUnresolvedOperand},
		{"self reference", map[Pair]TokenID{{256, 1}: 256}, ErrUnresolvedOperand},
		{"gap operand", map[Pair]TokenID{{1, 2}: 256, {300, 2}: 301}, ErrUnresolvedOperand},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildVocabulary(tt.merges)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestBuildVocabularyGaps(t *testing.T) {
	got, err := BuildVocabulary(map[Pair]TokenID{{'a', 'b'}: 1000, {1000, 'c'}: 2000})
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), got[2000])
	require.Len(t, got, NumBytes+2)
}
