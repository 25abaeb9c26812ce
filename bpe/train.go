package bpe

import (
	"fmt"
	"log/slog"

	"github.com/ollama/minibpe/logutil"
)

// Splitter segments text before training. Merges are learned within
// segments and never across a segment boundary.
type Splitter interface {
	Split(text string) ([]string, error)
}

// SplitFunc adapts a function to the Splitter interface.
type SplitFunc func(text string) ([]string, error)

func (f SplitFunc) Split(text string) ([]string, error) {
	return f(text)
}

// Train learns vocabSize-256 merges from text. It panics if vocabSize is
// below 256 and returns ErrNotEnoughPairs if text runs out of pairs first.
func Train(text string, vocabSize int) (*Tokenizer, error) {
	return TrainSegments([][]byte{[]byte(text)}, vocabSize)
}

// TrainSplit is like Train but learns merges within the segments s produces.
// A nil splitter trains on the whole text.
func TrainSplit(text string, vocabSize int, s Splitter) (*Tokenizer, error) {
	segments, err := split(text, s)
	if err != nil {
		return nil, err
	}

	return TrainSegments(segments, vocabSize)
}

// TrainSegments learns merges from independent byte segments. Pair counts
// are summed over all segments and every merge is applied segment by segment.
func TrainSegments(segments [][]byte, vocabSize int) (*Tokenizer, error) {
	merges, err := newTrainer(toTokens(segments, nil), vocabSize).run()
	if err != nil {
		return nil, err
	}

	return newTokenizer(merges)
}

func split(text string, s Splitter) ([][]byte, error) {
	if s == nil {
		return [][]byte{[]byte(text)}, nil
	}

	parts, err := s.Split(text)
	if err != nil {
		return nil, fmt.Errorf("presplit: %w", err)
	}

	segments := make([][]byte, len(parts))
	for i, part := range parts {
		segments[i] = []byte(part)
	}
	return segments, nil
}

// toTokens converts byte segments to token segments, remapping each byte
// through shuffle when one is given.
func toTokens(segments [][]byte, shuffle *ByteShuffle) [][]TokenID {
	tokens := make([][]TokenID, 0, len(segments))
	for _, segment := range segments {
		ids := make([]TokenID, len(segment))
		for i, b := range segment {
			if shuffle != nil {
				b = shuffle[b]
			}
			ids[i] = TokenID(b)
		}
		tokens = append(tokens, ids)
	}
	return tokens
}

type trainState int

const (
	stateRunning trainState = iota
	stateDone
	stateFailed
)

func (s trainState) String() string {
	switch s {
	case stateRunning:
		return "running"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	default:
		return fmt.Sprintf("trainState(%d)", int(s))
	}
}

type trainer struct {
	segments [][]TokenID
	merges   map[Pair]TokenID

	// iteration counts merges learned so far; target is the number required.
	iteration, target int
	state             trainState

	inputBytes int
}

func newTrainer(segments [][]TokenID, vocabSize int) *trainer {
	if vocabSize < NumBytes {
		panic(fmt.Sprintf("bpe: vocabulary size %d must include all %d byte tokens", vocabSize, NumBytes))
	}

	tr := &trainer{
		segments: segments,
		target:   vocabSize - NumBytes,
	}

	for _, segment := range segments {
		tr.inputBytes += len(segment)
	}

	// each merge shortens the input by at least one token
	tr.merges = make(map[Pair]TokenID, min(tr.target, tr.inputBytes))

	if tr.target == 0 {
		tr.state = stateDone
	}
	return tr
}

// step learns one merge. Failed and done are terminal.
func (tr *trainer) step() trainState {
	if tr.state != stateRunning {
		return tr.state
	}

	pair, count, ok := TopPair(CountSegmentPairs(tr.segments))
	if !ok {
		tr.state = stateFailed
		tr.merges = nil
		return tr.state
	}

	id := TokenID(NumBytes + tr.iteration)
	for i, segment := range tr.segments {
		if containsPair(segment, pair) {
			tr.segments[i] = Merge(segment, pair, id)
		}
	}

	tr.merges[pair] = id
	tr.iteration++
	logutil.Trace("merge", "pair", pair, "count", count, "id", id)

	if tr.iteration == tr.target {
		tr.state = stateDone
	}
	return tr.state
}

func (tr *trainer) run() (map[Pair]TokenID, error) {
	for tr.step() == stateRunning {
	}

	if tr.state == stateFailed {
		return nil, fmt.Errorf("%w: learned %d of %d merges", ErrNotEnoughPairs, tr.iteration, tr.target)
	}

	var tokens int
	for _, segment := range tr.segments {
		tokens += len(segment)
	}

	ratio := 0.0
	if tokens > 0 {
		ratio = float64(tr.inputBytes) / float64(tokens)
	}

	slog.Debug("training complete", "merges", len(tr.merges), "bytes", tr.inputBytes, "tokens", tokens, "ratio", fmt.Sprintf("%.2fx", ratio))
	return tr.merges, nil
}
