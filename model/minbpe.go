package model

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ollama/minibpe/bpe"
)

const minbpeHeader = "minbpe v1"

var ErrNonContiguous = errors.New("merge ids are not contiguous from 256")

// WriteMinBPE writes m in the minbpe .model text format: a version line,
// the split pattern, a special token count of zero, then one "first second"
// line per merge. Ids are implied by line order, so they must run from 256
// without gaps. Shuffled models cannot be represented.
func WriteMinBPE(w io.Writer, m Model) error {
	if m.EffectiveKind() != KindBasic {
		return fmt.Errorf("%w: minbpe cannot store %s tokenizers", ErrUnsupportedFormat, m.EffectiveKind())
	}

	merges := make([]bpe.MergeRule, len(m.Merges))
	copy(merges, m.Merges)
	bpe.SortMerges(merges)

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, minbpeHeader)
	fmt.Fprintln(bw, m.Pattern)
	fmt.Fprintln(bw, 0)

	for i, rule := range merges {
		if rule.ID != bpe.TokenID(bpe.NumBytes+i) {
			return fmt.Errorf("%w: %s at position %d", ErrNonContiguous, rule, i)
		}
		fmt.Fprintf(bw, "%d %d\n", rule.First, rule.Second)
	}

	return bw.Flush()
}

// ReadMinBPE reads the minbpe .model text format. Special tokens are
// skipped.
func ReadMinBPE(r io.Reader) (Model, error) {
	sc := bufio.NewScanner(r)

	var lineno int
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		lineno++
		return sc.Text(), true
	}

	if header, ok := next(); !ok || strings.TrimSpace(header) != minbpeHeader {
		if err := sc.Err(); err != nil {
			return Model{}, err
		}
		return Model{}, fmt.Errorf("%w: missing %q header", ErrUnsupportedFormat, minbpeHeader)
	}

	pattern, ok := next()
	if !ok {
		return Model{}, fmt.Errorf("minbpe: missing pattern line")
	}

	count, ok := next()
	if !ok {
		return Model{}, fmt.Errorf("minbpe: missing special token count")
	}

	specials, err := strconv.Atoi(strings.TrimSpace(count))
	if err != nil || specials < 0 {
		return Model{}, fmt.Errorf("minbpe: line %d: invalid special token count %q", lineno, count)
	}

	for range specials {
		if _, ok := next(); !ok {
			return Model{}, fmt.Errorf("minbpe: missing special token line")
		}
	}

	m := Model{Kind: KindBasic, Pattern: strings.TrimRight(pattern, "\r")}
	for {
		line, ok := next()
		if !ok {
			break
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return Model{}, fmt.Errorf("minbpe: line %d: expected two ids, got %q", lineno, line)
		}

		first, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return Model{}, fmt.Errorf("minbpe: line %d: %w", lineno, err)
		}

		second, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return Model{}, fmt.Errorf("minbpe: line %d: %w", lineno, err)
		}

		m.Merges = append(m.Merges, bpe.MergeRule{
			Pair: bpe.Pair{First: bpe.TokenID(first), Second: bpe.TokenID(second)},
			ID:   bpe.TokenID(bpe.NumBytes + len(m.Merges)),
		})
	}

	if err := sc.Err(); err != nil {
		return Model{}, err
	}

	return m, nil
}
