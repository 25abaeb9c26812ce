// cmd_builders.go - command constructors
package cmd

import (
	"github.com/spf13/cobra"
)

func newTrainCmd() *cobra.Command {
	trainCmd := &cobra.Command{
		Use:   "train FILE...",
		Short: "Learn a tokenizer from text files",
		Long:  "Learn a tokenizer from text files. Use - to read standard input.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  TrainHandler,
	}

	trainCmd.Flags().Int("vocab-size", 512, "Vocabulary size including the 256 byte tokens")
	trainCmd.Flags().String("pattern", "", "Presplit pattern: gpt2, gpt4, none or a regular expression (default $MINIBPE_PATTERN or gpt4)")
	trainCmd.Flags().Bool("nfc", false, "Normalize training text to Unicode NFC")
	trainCmd.Flags().String("shuffle-from", "", "Reuse the byte shuffle of this tokenizer file or stored name")
	trainCmd.Flags().String("name", "", "Save the tokenizer in the store under this name")
	trainCmd.Flags().StringP("output", "o", "", "Write the tokenizer to a .json, .model or .tiktoken file")

	return trainCmd
}

func newEncodeCmd() *cobra.Command {
	encodeCmd := &cobra.Command{
		Use:   "encode [FILE...]",
		Short: "Encode text to token ids",
		Long:  "Encode each file, or standard input when none is given, and print one line of ids per input.",
		RunE:  EncodeHandler,
	}

	encodeCmd.Flags().StringP("tokenizer", "t", "", "Tokenizer file or stored name")
	encodeCmd.MarkFlagRequired("tokenizer") //nolint:errcheck

	return encodeCmd
}

func newDecodeCmd() *cobra.Command {
	decodeCmd := &cobra.Command{
		Use:   "decode [ID...]",
		Short: "Decode token ids to text",
		Long:  "Decode ids given as arguments, or read from standard input when none is given.",
		RunE:  DecodeHandler,
	}

	decodeCmd.Flags().StringP("tokenizer", "t", "", "Tokenizer file or stored name")
	decodeCmd.MarkFlagRequired("tokenizer") //nolint:errcheck

	return decodeCmd
}

func newStatsCmd() *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats FILE...",
		Short: "Show the most frequent adjacent token pairs",
		Args:  cobra.MinimumNArgs(1),
		RunE:  StatsHandler,
	}

	statsCmd.Flags().Int("top", 10, "Number of pairs to show")
	statsCmd.Flags().StringP("tokenizer", "t", "", "Count pairs of this tokenizer's output instead of raw bytes")

	return statsCmd
}

func newShowCmd() *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show TOKENIZER",
		Short: "Show the merges or vocabulary of a tokenizer",
		Args:  cobra.ExactArgs(1),
		RunE:  ShowHandler,
	}

	showCmd.Flags().Bool("json", false, "Print the vocabulary as JSON")

	return showCmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored tokenizers",
		Args:    cobra.NoArgs,
		RunE:    ListHandler,
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm NAME [NAME...]",
		Short: "Remove stored tokenizers",
		Args:  cobra.MinimumNArgs(1),
		RunE:  DeleteHandler,
	}
}

func newImportTiktokenCmd() *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import-tiktoken PATH",
		Short: "Store a tokenizer recovered from a tiktoken rank file",
		Args:  cobra.ExactArgs(1),
		RunE:  ImportTiktokenHandler,
	}

	importCmd.Flags().String("name", "", "Name to store the tokenizer under (default: file name)")
	importCmd.Flags().String("pattern", "gpt4", "Presplit pattern to record with the tokenizer")

	return importCmd
}

func newExportCmd() *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export TOKENIZER",
		Short: "Write a tokenizer to a file",
		Args:  cobra.ExactArgs(1),
		RunE:  ExportHandler,
	}

	exportCmd.Flags().StringP("output", "o", "", "Destination .json, .model or .tiktoken file (default: JSON to stdout)")

	return exportCmd
}
