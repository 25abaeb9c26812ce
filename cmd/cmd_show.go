// cmd_show.go - show command
// Main functions: ShowHandler, showInfo
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ollama/minibpe/bpe"
	"github.com/ollama/minibpe/model"
)

func ShowHandler(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	m, err := resolveModel(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	tp, err := model.New(m)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if asJSON {
		vocab, err := model.VocabularyJSON(tp)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(vocab)
	}

	return showInfo(m, tp, w)
}

func showInfo(m model.Model, tp model.TextProcessor, w io.Writer) error {
	tableRender := func(header string, rows [][]string) {
		fmt.Fprintln(w, " ", header)
		table := tablewriter.NewWriter(w)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetBorder(false)
		table.SetNoWhiteSpace(true)
		table.SetTablePadding("    ")
		table.AppendBulk(rows)
		table.Render()
		fmt.Fprintln(w)
	}

	pattern := m.Pattern
	if pattern == "" {
		pattern = "none"
	}

	tableRender("Tokenizer", [][]string{
		{"", "kind", m.EffectiveKind()},
		{"", "pattern", runewidth.Truncate(pattern, 60, "…")},
		{"", "vocabulary", strconv.Itoa(len(m.Merges) + bpe.NumBytes)},
		{"", "digest", shortDigest(m.Digest())},
	})

	var rows [][]string
	for _, rule := range tp.Merges() {
		b, err := tp.DecodeBytes([]bpe.TokenID{rule.ID})
		if err != nil {
			return err
		}

		rows = append(rows, []string{"", strconv.FormatUint(uint64(rule.ID), 10), rule.Pair.String(), "[" + runewidth.Truncate(model.TokenString(b), tokenWidth, "…") + "]"})
	}

	tableRender("Merges", rows)
	return nil
}
