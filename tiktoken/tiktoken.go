// Package tiktoken reads and writes tiktoken rank files and recovers the
// merge table a rank file implies.
//
// A rank file lists every token as "base64(bytes) rank". Single byte tokens
// need not have rank equal to their byte value, so a tokenizer built from a
// rank file is a shuffled tokenizer whose byte shuffle maps each byte to
// its rank.
package tiktoken

import (
	"bufio"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/ollama/minibpe/bpe"
)

var (
	ErrDuplicateToken = errors.New("token appears more than once")
	ErrDuplicateRank  = errors.New("rank assigned more than once")
	ErrMissingByte    = errors.New("single byte token missing")
	ErrByteRank       = errors.New("single byte token ranked above 255")
	ErrUnmergeable    = errors.New("token cannot be split into two ranked parts")
)

// Ranks maps raw token bytes to their rank.
type Ranks map[string]bpe.TokenID

// ReadRanks parses a rank file. Blank lines are ignored.
func ReadRanks(r io.Reader) (Ranks, error) {
	ranks := make(Ranks)
	seen := make(map[bpe.TokenID]struct{})

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var lineno int
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		encoded, rank, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("tiktoken: line %d: expected token and rank", lineno)
		}

		token, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("tiktoken: line %d: %w", lineno, err)
		}

		n, err := strconv.ParseUint(strings.TrimSpace(rank), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("tiktoken: line %d: %w", lineno, err)
		}

		if _, ok := ranks[string(token)]; ok {
			return nil, fmt.Errorf("%w: line %d: %q", ErrDuplicateToken, lineno, token)
		}

		if _, ok := seen[bpe.TokenID(n)]; ok {
			return nil, fmt.Errorf("%w: line %d: %d", ErrDuplicateRank, lineno, n)
		}

		ranks[string(token)] = bpe.TokenID(n)
		seen[bpe.TokenID(n)] = struct{}{}
	}

	if err := sc.Err(); err != nil {
		return nil, err
	}

	return ranks, nil
}

// WriteRanks writes vocab as a rank file ordered by rank. vocab holds
// shuffled bytes when shuffle is non-nil and they are unshuffled on output.
// Vocabularies in which two ids share the same bytes cannot be written.
func WriteRanks(w io.Writer, vocab bpe.Vocabulary, shuffle *bpe.ByteShuffle) error {
	var inverse *bpe.ByteShuffle
	if shuffle != nil {
		inv := shuffle.Inverse()
		inverse = &inv
	}

	ids := make([]bpe.TokenID, 0, len(vocab))
	for id := range vocab {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	seen := make(map[string]bpe.TokenID, len(vocab))
	bw := bufio.NewWriter(w)
	for _, id := range ids {
		token := vocab[id]
		if inverse != nil {
			token = inverse.Apply(token)
		}

		if other, ok := seen[string(token)]; ok {
			return fmt.Errorf("%w: %q is both %d and %d", ErrDuplicateToken, token, other, id)
		}
		seen[string(token)] = id

		fmt.Fprintf(bw, "%s %d\n", base64.StdEncoding.EncodeToString(token), id)
	}

	return bw.Flush()
}

// RecoverMerges reconstructs the merge table behind ranks. Each multi-byte
// token is re-encoded with only the tokens ranked below it; what remains is
// the pair it was merged from. The returned shuffle maps each byte to the
// rank of its single byte token and the merges are expressed in ranks.
func RecoverMerges(ranks Ranks) (map[bpe.Pair]bpe.TokenID, bpe.ByteShuffle, error) {
	var shuffle bpe.ByteShuffle
	for i := range bpe.NumBytes {
		rank, ok := ranks[string([]byte{byte(i)})]
		if !ok {
			return nil, shuffle, fmt.Errorf("%w: %d", ErrMissingByte, i)
		}

		if rank >= bpe.NumBytes {
			return nil, shuffle, fmt.Errorf("%w: byte %d has rank %d", ErrByteRank, i, rank)
		}
		shuffle[i] = byte(rank)
	}

	if err := shuffle.Validate(); err != nil {
		return nil, shuffle, err
	}

	merges := make(map[bpe.Pair]bpe.TokenID, max(0, len(ranks)-bpe.NumBytes))
	for token, rank := range ranks {
		if len(token) < 2 {
			continue
		}

		parts := mergeBelow(ranks, []byte(token), rank)
		if len(parts) != 2 {
			return nil, shuffle, fmt.Errorf("%w: %q (rank %d) splits into %d parts", ErrUnmergeable, token, rank, len(parts))
		}

		merges[bpe.Pair{First: ranks[parts[0]], Second: ranks[parts[1]]}] = rank
	}

	slog.Debug("recovered merges", "tokens", len(ranks), "merges", len(merges))
	return merges, shuffle, nil
}

// mergeBelow runs byte-pair merging over token using only ranks below
// limit, always merging the adjacent pair with the lowest rank first.
func mergeBelow(ranks Ranks, token []byte, limit bpe.TokenID) []string {
	parts := make([]string, len(token))
	for i, b := range token {
		parts[i] = string([]byte{b})
	}

	for len(parts) > 1 {
		best, bestRank := -1, limit
		for i := range len(parts) - 1 {
			if rank, ok := ranks[parts[i]+parts[i+1]]; ok && rank < bestRank {
				best, bestRank = i, rank
			}
		}

		if best < 0 {
			break
		}

		parts = slices.Replace(parts, best, best+2, parts[best]+parts[best+1])
	}

	return parts
}

// FromRanks builds a tokenizer equivalent to ranks.
func FromRanks(ranks Ranks) (*bpe.ShuffledTokenizer, error) {
	merges, shuffle, err := RecoverMerges(ranks)
	if err != nil {
		return nil, err
	}

	return bpe.NewShuffled(bpe.Rules(merges), shuffle)
}

// Load reads a rank file from path and builds its tokenizer.
func Load(path string) (*bpe.ShuffledTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ranks, err := ReadRanks(f)
	if err != nil {
		return nil, err
	}

	return FromRanks(ranks)
}
