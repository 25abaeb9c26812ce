// cmd_train.go - train command
// Main functions: TrainHandler
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"

	"github.com/ollama/minibpe/bpe"
	"github.com/ollama/minibpe/envconfig"
	"github.com/ollama/minibpe/model"
	"github.com/ollama/minibpe/presplit"
)

func TrainHandler(cmd *cobra.Command, args []string) error {
	vocabSize, err := cmd.Flags().GetInt("vocab-size")
	if err != nil {
		return err
	}

	if vocabSize < bpe.NumBytes {
		return fmt.Errorf("vocab size must be at least %d, got %d", bpe.NumBytes, vocabSize)
	}

	pattern, _ := cmd.Flags().GetString("pattern")
	if pattern == "" {
		pattern = envconfig.Pattern()
	}

	nfc, _ := cmd.Flags().GetBool("nfc")
	shuffleFrom, _ := cmd.Flags().GetString("shuffle-from")
	name, _ := cmd.Flags().GetString("name")
	output, _ := cmd.Flags().GetString("output")

	splitter, err := presplit.Lookup(pattern)
	if err != nil {
		return err
	}

	texts, err := readInputs(cmd.Context(), cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	var segments [][]byte
	for _, text := range texts {
		if nfc {
			text = norm.NFC.String(text)
		}

		if splitter == nil {
			segments = append(segments, []byte(text))
			continue
		}

		parts, err := splitter.Split(text)
		if err != nil {
			return fmt.Errorf("presplit: %w", err)
		}

		for _, part := range parts {
			segments = append(segments, []byte(part))
		}
	}

	start := time.Now()

	var tp model.TextProcessor
	if shuffleFrom != "" {
		src, err := resolveModel(cmd.Context(), shuffleFrom)
		if err != nil {
			return err
		}

		if src.Shuffle == nil {
			return fmt.Errorf("%s has no byte shuffle", shuffleFrom)
		}

		t, err := bpe.TrainShuffledSegments(segments, vocabSize, *src.Shuffle)
		if err != nil {
			return trainError(err)
		}
		tp = t
	} else {
		t, err := bpe.TrainSegments(segments, vocabSize)
		if err != nil {
			return trainError(err)
		}
		tp = t
	}

	var recorded string
	if splitter != nil {
		recorded = presplit.Resolve(pattern)
	}

	m := model.FromTextProcessor(tp, recorded)
	slog.Info("trained tokenizer", "merges", len(m.Merges), "segments", len(segments), "elapsed", time.Since(start).Round(time.Millisecond))

	if name != "" {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.Save(cmd.Context(), name, m)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "saved %s %s\n", e.Name, shortDigest(e.Digest))
	}

	if output != "" {
		if err := model.Save(output, m); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
	}

	if name == "" && output == "" {
		return model.WriteJSON(cmd.OutOrStdout(), m)
	}

	return nil
}

func trainError(err error) error {
	if errors.Is(err, bpe.ErrNotEnoughPairs) {
		return fmt.Errorf("%w; try a smaller --vocab-size or more text", err)
	}
	return err
}

func shortDigest(digest string) string {
	digest = strings.TrimPrefix(digest, "sha256:")
	return digest[:min(12, len(digest))]
}
