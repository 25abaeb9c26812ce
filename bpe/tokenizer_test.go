package bpe

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestTrain(t *testing.T) {
	t.Run("no merges requested", func(t *testing.T) {
		tok, err := Train("", NumBytes)
		require.NoError(t, err)
		require.Empty(t, tok.Merges())
		require.Equal(t, NumBytes, tok.Size())
	})

	cases := []struct {
		name      string
		text      string
		vocabSize int
	}{
		{"empty", "", 257},
		{"single byte", "a", 257},
		{"runs out", "ab", 258},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := Train(tt.text, tt.vocabSize)
			require.ErrorIs(t, err, ErrNotEnoughPairs)
			require.Nil(t, tok)
		})
	}

	t.Run("abc", func(t *testing.T) {
		tok, err := Train("abc", 258)
		require.NoError(t, err)

		want := []MergeRule{
			{Pair: Pair{'a', 'b'}, ID: 256},
			{Pair: Pair{256, 'c'}, ID: 257},
		}
		if diff := cmp.Diff(want, tok.Merges()); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}

		ids := tok.Encode("abc")
		if diff := cmp.Diff([]TokenID{257}, ids); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}

		s, err := tok.Decode(ids)
		require.NoError(t, err)
		require.Equal(t, "abc", s)
	})

	t.Run("deterministic", func(t *testing.T) {
		text := "abcd abcd dcba dcba aabb ccdd"
		first, err := Train(text, 256+8)
		require.NoError(t, err)

		for range 10 {
			again, err := Train(text, 256+8)
			require.NoError(t, err)
			if diff := cmp.Diff(first.Merges(), again.Merges()); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		}
	})

	t.Run("contiguous ids", func(t *testing.T) {
		tok, err := Train(strings.Repeat("hello world ", 20), 256+12)
		require.NoError(t, err)

		for i, rule := range tok.Merges() {
			require.Equal(t, TokenID(NumBytes+i), rule.ID)
		}
		require.Equal(t, 256+12, tok.Size())
	})
}

func TestTrainLargeVocabulary(t *testing.T) {
	_, err := Train("ab", math.MaxInt32)
	require.ErrorIs(t, err, ErrNotEnoughPairs)

	_, err = TrainSegments([][]byte{[]byte("abab"), []byte("ab")}, math.MaxInt32)
	require.ErrorIs(t, err, ErrNotEnoughPairs)
}

func TestTrainPanicsBelowByteVocabulary(t *testing.T) {
	require.Panics(t, func() { _, _ = Train("abc", 255) })
}

func TestTrainSplit(t *testing.T) {
	words := SplitFunc(func(s string) ([]string, error) {
		return strings.SplitAfter(s, " "), nil
	})

	text := "ab ab ab b a ba ba"
	tok, err := TrainSplit(text, 256+3, words)
	require.NoError(t, err)

	// every learned token must lie within a single segment
	segments, _ := words.Split(text)
	for _, rule := range tok.Merges() {
		token := tok.vocab[rule.ID]
		found := false
		for _, segment := range segments {
			if strings.Contains(segment, string(token)) {
				found = true
				break
			}
		}
		require.True(t, found, "token %q spans a segment boundary", token)
	}

	t.Run("nil splitter", func(t *testing.T) {
		whole, err := TrainSplit("abc", 258, nil)
		require.NoError(t, err)
		require.Equal(t, []TokenID{257}, whole.Encode("abc"))
	})

	t.Run("splitter error", func(t *testing.T) {
		fail := SplitFunc(func(string) ([]string, error) {
			return nil, ErrUnknownToken
		})

		_, err := TrainSplit("abc", 258, fail)
		require.ErrorIs(t, err, ErrUnknownToken)
	})
}

func TestTrainSegmentsSumsCounts(t *testing.T) {
	// "xy" occurs once per segment but three times overall, "zz" twice in one
	tok, err := TrainSegments([][]byte{[]byte("xyzz"), []byte("xy"), []byte("xyz")}, 257)
	require.NoError(t, err)
	require.Equal(t, []MergeRule{{Pair: Pair{'x', 'y'}, ID: 256}}, tok.Merges())
}

func TestEncode(t *testing.T) {
	tok, err := New([]MergeRule{
		{Pair: Pair{256, 3}, ID: 257},
		{Pair: Pair{1, 2}, ID: 256},
	})
	require.NoError(t, err)

	cases := []struct {
		name string
		in   []byte
		want []TokenID
	}{
		{"empty", nil, []TokenID{}},
		{"single", []byte{1}, []TokenID{1}},
		{"nested", []byte{1, 1, 2, 3}, []TokenID{1, 257}},
		{"partial", []byte{1, 2, 1, 2, 3}, []TokenID{256, 257}},
		{"unmerged", []byte{3, 2, 1}, []TokenID{3, 2, 1}},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tok.EncodeBytes(tt.in)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeWithoutMerges(t *testing.T) {
	tok, err := New(nil)
	require.NoError(t, err)

	text := "foo bar baz åð"
	want := make([]TokenID, 0, len(text))
	for _, b := range []byte(text) {
		want = append(want, TokenID(b))
	}

	if diff := cmp.Diff(want, tok.Encode(text)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip(t *testing.T) {
	corpus := strings.Repeat("The tokenizer learns merges; the tokenizer applies merges. ", 5) + "ünïcödé 日本語 🙂"

	tok, err := Train(corpus, 256+40)
	require.NoError(t, err)

	for _, text := range []string{
		"",
		"the tokenizer",
		"completely unseen input!",
		"日本語 and ünïcödé 🙂",
		"\x00\x01\n\t",
	} {
		t.Run(text, func(t *testing.T) {
			ids := tok.Encode(text)
			got, err := tok.Decode(ids)
			require.NoError(t, err)
			require.Equal(t, text, got)

			b, err := tok.DecodeBytes(ids)
			require.NoError(t, err)
			require.Equal(t, []byte(text), append([]byte{}, b...))
		})
	}

	require.Less(t, len(tok.Encode("the tokenizer")), len("the tokenizer"))
}

func TestDecode(t *testing.T) {
	tok, err := New([]MergeRule{{Pair: Pair{'h', 'i'}, ID: 256}})
	require.NoError(t, err)

	t.Run("unknown token", func(t *testing.T) {
		_, err := tok.Decode([]TokenID{'h', 999})
		require.ErrorIs(t, err, ErrUnknownToken)
	})

	t.Run("lossy", func(t *testing.T) {
		cases := []struct {
			ids  []TokenID
			want string
		}{
			{[]TokenID{0xff}, "�"},
			{[]TokenID{256, 0xff, 256}, "hi�hi"},
			{[]TokenID{0xe6, 0x97}, "�"},
			{[]TokenID{0xe6, 0x97, 0xa5}, "日"},
			{[]TokenID{0xe2, 0x82, 'A'}, "�A"},
			{[]TokenID{0xf0, 0x9f, 0x98}, "�"},
			{[]TokenID{0xf0, 0x9f, 0x98, 0xe6, 0x97}, "��"},
			{[]TokenID{0xed, 0xa0, 0x80}, "���"},
			{[]TokenID{0xe0, 0x80}, "��"},
			{[]TokenID{0xf4, 0x90}, "��"},
			{[]TokenID{0xc0, 0xaf}, "��"},
			{[]TokenID{0x80, 0x80}, "��"},
		}

		for _, tt := range cases {
			got, err := tok.Decode(tt.ids)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		}
	})

	t.Run("empty", func(t *testing.T) {
		got, err := tok.Decode(nil)
		require.NoError(t, err)
		require.Empty(t, got)
	})
}

func TestNewErrors(t *testing.T) {
	_, err := New([]MergeRule{
		{Pair: Pair{1, 2}, ID: 256},
		{Pair: Pair{1, 2}, ID: 257},
	})
	require.ErrorIs(t, err, ErrDuplicatePair)

	_, err = New([]MergeRule{{Pair: Pair{1, 2}, ID: 7}})
	require.ErrorIs(t, err, ErrReservedID)
}

func TestVocabularyIsCopy(t *testing.T) {
	tok, err := Train("abc", 258)
	require.NoError(t, err)

	vocab := tok.Vocabulary()
	vocab[257][0] = 'z'
	delete(vocab, 256)

	require.Equal(t, []byte("abc"), tok.Vocabulary()[257])
	require.Len(t, tok.Vocabulary(), 258)
	require.Len(t, tok.IDs(), 258)
	require.Equal(t, TokenID(257), tok.IDs()[257])
}

func TestMergeRuleJSON(t *testing.T) {
	var rule MergeRule
	require.NoError(t, rule.UnmarshalJSON([]byte("[104, 105, 256]")))
	require.Equal(t, MergeRule{Pair: Pair{'h', 'i'}, ID: 256}, rule)

	b, err := rule.MarshalJSON()
	require.NoError(t, err)
	require.JSONEq(t, "[104,105,256]", string(b))

	require.Error(t, rule.UnmarshalJSON([]byte("[1, 2]")))
}
