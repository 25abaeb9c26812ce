// cmd_stats.go - stats command
// Main functions: StatsHandler
package cmd

import (
	"fmt"
	"strconv"

	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ollama/minibpe/bpe"
	"github.com/ollama/minibpe/envconfig"
	"github.com/ollama/minibpe/model"
)

const tokenWidth = 32

func StatsHandler(cmd *cobra.Command, args []string) error {
	top, err := cmd.Flags().GetInt("top")
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("tokenizer")

	texts, err := readInputs(cmd.Context(), cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	var tp model.TextProcessor
	if name != "" {
		if tp, err = resolveTokenizer(cmd.Context(), name); err != nil {
			return err
		}
	} else {
		// no merges: every token is a byte
		if tp, err = bpe.New(nil); err != nil {
			return err
		}
	}

	segments, err := bpe.EncodeBatch(cmd.Context(), tp, texts, int(envconfig.NumParallel()))
	if err != nil {
		return err
	}

	var inputBytes, tokens int
	for i, segment := range segments {
		inputBytes += len(texts[i])
		tokens += len(segment)
	}

	stats := bpe.CountSegmentPairs(segments)

	var data [][]string
	for i, pc := range bpe.TopPairs(stats, top) {
		b, err := tp.DecodeBytes([]bpe.TokenID{pc.First, pc.Second})
		if err != nil {
			return err
		}

		data = append(data, []string{
			strconv.Itoa(i + 1),
			pc.Pair.String(),
			"[" + runewidth.Truncate(model.TokenString(b), tokenWidth, "…") + "]",
			strconv.Itoa(pc.Count),
		})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%d bytes, %d tokens, %d distinct pairs\n\n", inputBytes, tokens, len(stats))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"RANK", "PAIR", "TOKEN", "COUNT"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	return nil
}
