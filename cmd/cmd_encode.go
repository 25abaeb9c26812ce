// cmd_encode.go - encode and decode commands
// Main functions: EncodeHandler, DecodeHandler
package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ollama/minibpe/bpe"
	"github.com/ollama/minibpe/envconfig"
)

func EncodeHandler(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("tokenizer")

	tp, err := resolveTokenizer(cmd.Context(), name)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		args = []string{"-"}
	}

	texts, err := readInputs(cmd.Context(), cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	batch, err := bpe.EncodeBatch(cmd.Context(), tp, texts, int(envconfig.NumParallel()))
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for i, ids := range batch {
		slog.Debug("encoded", "input", args[i], "bytes", len(texts[i]), "tokens", len(ids))
		if _, err := fmt.Fprintln(w, formatIDs(ids)); err != nil {
			return err
		}
	}

	return nil
}

func DecodeHandler(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("tokenizer")

	tp, err := resolveTokenizer(cmd.Context(), name)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
		args = []string{string(b)}
	}

	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	text, err := tp.Decode(ids)
	if err != nil {
		return err
	}

	// no trailing newline unless writing to a terminal
	w := cmd.OutOrStdout()
	if _, err := fmt.Fprint(w, text); err != nil {
		return err
	}

	if isTerminal(w) {
		fmt.Fprintln(w)
	}

	return nil
}
