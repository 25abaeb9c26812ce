package bpe

import (
	"cmp"

	"github.com/emirpasic/gods/v2/trees/binaryheap"
)

// Merge returns a copy of tokens where every non-overlapping occurrence of
// pair, scanning left to right, is replaced by id.
func Merge(tokens []TokenID, pair Pair, id TokenID) []TokenID {
	merged := make([]TokenID, 0, len(tokens))
	for i := 0; i < len(tokens); {
		if i+1 < len(tokens) && tokens[i] == pair.First && tokens[i+1] == pair.Second {
			merged = append(merged, id)
			i += 2
			continue
		}

		merged = append(merged, tokens[i])
		i++
	}
	return merged
}

func containsPair(tokens []TokenID, pair Pair) bool {
	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i] == pair.First && tokens[i+1] == pair.Second {
			return true
		}
	}
	return false
}

// Stats counts occurrences of adjacent pairs.
type Stats map[Pair]int

// CountPairs counts every adjacent pair in tokens.
func CountPairs(tokens []TokenID) Stats {
	stats := make(Stats)
	countInto(stats, tokens)
	return stats
}

// CountSegmentPairs counts pairs within each segment and sums the counts.
// Pairs spanning two segments are not counted.
func CountSegmentPairs(segments [][]TokenID) Stats {
	stats := make(Stats)
	for _, segment := range segments {
		countInto(stats, segment)
	}
	return stats
}

func countInto(stats Stats, tokens []TokenID) {
	for i := 0; i+1 < len(tokens); i++ {
		stats[Pair{tokens[i], tokens[i+1]}]++
	}
}

// PairCount is a pair together with its number of occurrences.
type PairCount struct {
	Pair
	Count int
}

// rank orders candidates best first: higher count, then smaller pair.
func rank(a, b PairCount) int {
	if c := cmp.Compare(b.Count, a.Count); c != 0 {
		return c
	}
	return a.Pair.Compare(b.Pair)
}

// TopPair returns the most frequent pair. Ties go to the lexicographically
// smallest pair so training is reproducible. ok is false when stats is empty.
func TopPair(stats Stats) (pair Pair, count int, ok bool) {
	var best PairCount
	for p, c := range stats {
		if candidate := (PairCount{p, c}); !ok || rank(candidate, best) < 0 {
			best, ok = candidate, true
		}
	}
	return best.Pair, best.Count, ok
}

// TopPairs returns up to k pairs in the order TopPair would select them.
func TopPairs(stats Stats, k int) []PairCount {
	if k <= 0 || len(stats) == 0 {
		return nil
	}

	pairs := binaryheap.NewWith(rank)
	for p, c := range stats {
		pairs.Push(PairCount{p, c})
	}

	top := make([]PairCount, 0, min(k, len(stats)))
	for len(top) < k {
		pc, ok := pairs.Pop()
		if !ok {
			break
		}
		top = append(top, pc)
	}
	return top
}
