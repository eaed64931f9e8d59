// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export renders normalized records for the command line: a table
// or JSON or YAML for search results, and JSON, YAML, or Markdown for
// retrieved content.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/zotero-mcp/pkg/types"
)

// Format names an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// untitled stands in for a missing title in human-readable output.
const untitled = "(untitled)"

// WriteSearch writes a search result in the given format.
func WriteSearch(w io.Writer, f Format, result types.SearchResult) error {
	switch f {
	case FormatTable:
		return searchTable(w, result)
	case FormatJSON:
		return writeJSON(w, result)
	case FormatYAML:
		return writeYAML(w, result)
	}
	return fmt.Errorf("unsupported search output format %q: use table, json, or yaml", f)
}

func searchTable(w io.Writer, result types.SearchResult) error {
	fmt.Fprintln(w, result.Message)
	if len(result.Items) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tTYPE\tTITLE\tPARENT\tCOLLECTIONS")
	for _, it := range result.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			it.ItemKey, it.ItemType, titleOr(it.ItemTitle, untitled), titleOr(it.ItemParentTitle, "-"), collectionPaths(it.ItemCollectionNames))
	}
	return tw.Flush()
}

// collectionPaths renders chains as "Root/Child" paths separated by "; ".
func collectionPaths(chains [][]string) string {
	if len(chains) == 0 {
		return "-"
	}
	paths := make([]string, 0, len(chains))
	for _, chain := range chains {
		names := make([]string, 0, len(chain))
		for _, label := range chain {
			if _, name, ok := strings.Cut(label, ": "); ok {
				names = append(names, name)
			} else {
				names = append(names, label)
			}
		}
		paths = append(paths, strings.Join(names, "/"))
	}
	return strings.Join(paths, "; ")
}

// WriteContent writes content records in the given format.
func WriteContent(w io.Writer, f Format, records []types.ItemContentRecord) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, records)
	case FormatYAML:
		return writeYAML(w, records)
	case FormatMarkdown:
		return contentMarkdown(w, records)
	}
	return fmt.Errorf("unsupported content output format %q: use json, yaml, or markdown", f)
}

// contentMarkdown writes one section per record. Note bodies are converted
// from HTML; PDF text is written as is.
func contentMarkdown(w io.Writer, records []types.ItemContentRecord) error {
	for i, rec := range records {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "## %s (%s)\n\n", titleOr(rec.ItemTitle, untitled), rec.ItemKey)

		body := rec.ItemContent
		if looksLikeHTML(body) {
			md, err := htmltomarkdown.ConvertString(body)
			if err != nil {
				return fmt.Errorf("converting %s to markdown: %w", rec.ItemKey, err)
			}
			body = md
		}
		if strings.TrimSpace(body) == "" {
			body = "_No content._"
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(body, "\n")); err != nil {
			return err
		}
	}
	return nil
}

func looksLikeHTML(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "<")
}

func titleOr(title *string, fallback string) string {
	if title == nil || *title == "" {
		return fallback
	}
	return *title
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeYAML(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}
