// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/zotero-mcp/internal/export"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search the library and print normalized metadata",
	Long: `Search runs the same search as the search_zotero_library tool. Each
matching item is printed with its type, title, parent title, and the full
ancestry of every collection it is filed in.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("limit", 10, "maximum number of items to return")
	searchCmd.Flags().String("format", string(export.FormatTable), "output format: table, json, or yaml")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return fmt.Errorf("--limit must be a positive integer")
	}
	format, _ := cmd.Flags().GetString("format")

	svc, closer, err := newService()
	if err != nil {
		return err
	}
	defer closer.Close()

	result, err := svc.SearchLibrary(cmd.Context(), limit, strings.Join(args, " "))
	if err != nil {
		return err
	}
	return export.WriteSearch(os.Stdout, export.Format(format), result)
}
