// cmd_list.go - list and rm commands
// Main functions: ListHandler, DeleteHandler
package cmd

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func ListHandler(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	entries, err := s.List(cmd.Context())
	if err != nil {
		return err
	}

	var data [][]string
	for _, e := range entries {
		data = append(data, []string{
			e.Name,
			shortDigest(e.Digest),
			e.Kind,
			strconv.Itoa(e.Merges + 256),
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"NAME", "ID", "KIND", "VOCAB", "CREATED"})
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

func DeleteHandler(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	for _, name := range args {
		if err := s.Delete(cmd.Context(), name); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted '%s'\n", name)
	}

	return nil
}
