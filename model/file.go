package model

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/ollama/minibpe/bpe"
	"github.com/ollama/minibpe/internal/orderedmap"
	"github.com/ollama/minibpe/tiktoken"
)

// Load reads a tokenizer file, choosing the format by extension: .json,
// .model (minbpe) or .tiktoken.
func Load(path string) (Model, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".tiktoken":
		t, err := tiktoken.Load(path)
		if err != nil {
			return Model{}, err
		}
		return FromTextProcessor(t, ""), nil
	case ".json", ".model":
		f, err := os.Open(path)
		if err != nil {
			return Model{}, err
		}
		defer f.Close()

		if ext == ".json" {
			return ReadJSON(f)
		}
		return ReadMinBPE(f)
	default:
		return Model{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Save writes m to path in the format its extension names.
func Save(path string, m Model) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json", ".model", ".tiktoken":
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	// build first so an invalid model never leaves a file behind
	tp, err := New(m)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	switch ext {
	case ".json":
		err = WriteJSON(f, m)
	case ".model":
		err = WriteMinBPE(f, m)
	case ".tiktoken":
		err = tiktoken.WriteRanks(f, tp.Vocabulary(), m.Shuffle)
	}

	if err != nil {
		f.Close()
		os.Remove(path)
		return err
	}

	return f.Close()
}

// TokenString renders token bytes for display. Invalid UTF-8 becomes U+FFFD
// and control characters are escaped.
func TokenString(b []byte) string {
	var sb strings.Builder
	for _, r := range strings.ToValidUTF8(string(b), "�") {
		if unicode.IsControl(r) {
			fmt.Fprintf(&sb, "\\u%04x", r)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// VocabularyJSON maps every id, in ascending order, to its rendered token.
// Tokens of shuffled tokenizers are shown unshuffled.
func VocabularyJSON(tp TextProcessor) (*orderedmap.Map[string, string], error) {
	vocab := tp.Vocabulary()

	ids := make([]bpe.TokenID, 0, len(vocab))
	for id := range vocab {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	m := orderedmap.New[string, string]()
	for _, id := range ids {
		b, err := tp.DecodeBytes([]bpe.TokenID{id})
		if err != nil {
			return nil, err
		}
		m.Set(strconv.FormatUint(uint64(id), 10), TokenString(b))
	}
	return m, nil
}
