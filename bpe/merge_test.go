package bpe

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMerge(t *testing.T) {
	cases := []struct {
		name   string
		tokens []TokenID
		pair   Pair
		id     TokenID
		want   []TokenID
	}{
		{"empty", []TokenID{}, Pair{1, 2}, 3, []TokenID{}},
		{"leading", []TokenID{1, 2, 2, 3}, Pair{1, 2}, 4, []TokenID{4, 2, 3}},
		{"run", []TokenID{1, 2, 2, 2, 3}, Pair{2, 2}, 4, []TokenID{1, 4, 2, 3}},
		{"even run", []TokenID{2, 2, 2, 2}, Pair{2, 2}, 4, []TokenID{4, 4}},
		{"absent", []TokenID{1, 2, 3}, Pair{3, 1}, 4, []TokenID{1, 2, 3}},
		{"top pair", []TokenID{1, 2, 3, 1, 2, 1, 1, 2}, Pair{1, 2}, 4, []TokenID{4, 3, 4, 1, 4}},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.tokens, tt.pair, tt.id)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeDoesNotAlias(t *testing.T) {
	tokens := []TokenID{1, 2, 3}
	got := Merge(tokens, Pair{7, 8}, 9)
	got[0] = 42

	if tokens[0] != 1 {
		t.Fatalf("Merge result aliases its input")
	}
}

func TestCountPairs(t *testing.T) {
	cases := []struct {
		name   string
		tokens []TokenID
		want   Stats
	}{
		{"empty", nil, Stats{}},
		{"single", []TokenID{1}, Stats{}},
		{"run", []TokenID{1, 2, 2, 2, 3}, Stats{{1, 2}: 1, {2, 2}: 2, {2, 3}: 1}},
		{"repeat", []TokenID{1, 1, 2, 3}, Stats{{1, 1}: 1, {1, 2}: 1, {2, 3}: 1}},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, CountPairs(tt.tokens)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCountSegmentPairs(t *testing.T) {
	segments := [][]TokenID{
		{1, 2, 3},
		{3, 1, 2},
		{},
		{2},
	}

	want := Stats{{1, 2}: 2, {2, 3}: 1, {3, 1}: 1}
	if diff := cmp.Diff(want, CountSegmentPairs(segments)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestTopPair(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if _, _, ok := TopPair(Stats{}); ok {
			t.Fatal("expected no pair")
		}
	})

	t.Run("highest count", func(t *testing.T) {
		pair, count, ok := TopPair(CountPairs([]TokenID{1, 2, 3, 1, 2, 1, 1, 2}))
		if !ok || pair != (Pair{1, 2}) || count != 3 {
			t.Fatalf("got %v %d %t, want (1, 2) 3 true", pair, count, ok)
		}
	})

	t.Run("tie goes to smallest pair", func(t *testing.T) {
		stats := Stats{{5, 1}: 4, {2, 9}: 4, {2, 3}: 4, {1, 1}: 2}
		for range 50 {
			pair, count, _ := TopPair(stats)
			if pair != (Pair{2, 3}) || count != 4 {
				t.Fatalf("got %v %d, want (2, 3) 4", pair, count)
			}
		}
	})
}

func TestTopPairs(t *testing.T) {
	stats := Stats{{5, 1}: 4, {2, 9}: 4, {2, 3}: 4, {1, 1}: 2, {7, 7}: 9}

	want := []PairCount{
		{Pair{7, 7}, 9},
		{Pair{2, 3}, 4},
		{Pair{2, 9}, 4},
		{Pair{5, 1}, 4},
	}

	if diff := cmp.Diff(want, TopPairs(stats, 4)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	if got := TopPairs(stats, 100); len(got) != len(stats) {
		t.Errorf("expected %d pairs, got %d", len(stats), len(got))
	}

	if got := TopPairs(stats, 0); got != nil {
		t.Errorf("expected nil for k=0, got %v", got)
	}

	top, _, _ := TopPair(stats)
	if first := TopPairs(stats, 1)[0].Pair; first != top {
		t.Errorf("TopPairs and TopPair disagree: %v vs %v", first, top)
	}
}
