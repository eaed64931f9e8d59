// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/zotero-mcp/internal/export"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve <key>...",
	Short: "Print the content of items",
	Long: `Retrieve runs the same retrieval as the retrieve_zotero_items_content tool:
note bodies, the text of PDF attachments, and nothing for other items.
Records are printed in the order the keys are given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().String("format", string(export.FormatMarkdown), "output format: json, yaml, or markdown")

	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	svc, closer, err := newService()
	if err != nil {
		return err
	}
	defer closer.Close()

	records, err := svc.RetrieveContent(cmd.Context(), args)
	if err != nil {
		return err
	}
	return export.WriteContent(os.Stdout, export.Format(format), records)
}
