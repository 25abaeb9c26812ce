// cmd_model.go - import and export commands
// Main functions: ImportTiktokenHandler, ExportHandler
package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ollama/minibpe/model"
	"github.com/ollama/minibpe/presplit"
	"github.com/ollama/minibpe/tiktoken"
)

func ImportTiktokenHandler(cmd *cobra.Command, args []string) error {
	path := args[0]

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	pattern, _ := cmd.Flags().GetString("pattern")
	if strings.EqualFold(pattern, "none") {
		pattern = ""
	}

	t, err := tiktoken.Load(path)
	if err != nil {
		return err
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	e, err := s.Save(cmd.Context(), name, model.FromTextProcessor(t, presplit.Resolve(pattern)))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %s %s (%d merges)\n", e.Name, shortDigest(e.Digest), e.Merges)
	return nil
}

func ExportHandler(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")

	m, err := resolveModel(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if output == "" {
		return model.WriteJSON(cmd.OutOrStdout(), m)
	}

	if err := model.Save(output, m); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
	return nil
}
