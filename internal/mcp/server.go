// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mcp exposes the library operations as MCP tools, over stdio or
// streamable HTTP.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/zotero-mcp/internal/library"
	"github.com/pdiddy/zotero-mcp/pkg/types"
)

const (
	serverName = "zotero-mcp"

	searchToolName   = "search_zotero_library"
	retrieveToolName = "retrieve_zotero_items_content"
)

// Searcher is the part of library.Service the tools call.
type Searcher interface {
	SearchLibrary(ctx context.Context, limit int, query string) (types.SearchResult, error)
	RetrieveContent(ctx context.Context, keys []string) ([]types.ItemContentRecord, error)
}

var _ Searcher = (*library.Service)(nil)

// Server is an MCP server bound to one library.
type Server struct {
	lib    Searcher
	log    *logrus.Entry
	server *mcp.Server
}

// NewServer builds the MCP server and registers its tools.
func NewServer(lib Searcher, version string, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Server{
		lib: lib,
		log: log,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    serverName,
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        searchToolName,
		Description: "Search the user's Zotero library and return metadata for matching items. Use this to find papers, books, notes, and attachments by title or content.\n\nArgs:\n  limit: Maximum number of items to return (positive integer)\n  query: Search query matched against all item fields and full text\n\nReturns a status message and, for each item, its key, type, title, parent title, and the full ancestry of every collection it belongs to.",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        retrieveToolName,
		Description: "Retrieve the content of Zotero items by key. Use this after search_zotero_library to read a note or the text of a PDF attachment.\n\nArgs:\n  item_keys: Item keys as returned by search_zotero_library\n\nReturns one record per key, in the same order, with the item title and content (note HTML, PDF text, or empty for other items).",
	}, s.handleRetrieve)
}

type searchInput struct {
	Limit int    `json:"limit" jsonschema:"Maximum number of items to return (positive integer)"`
	Query string `json:"query" jsonschema:"Search query"`
}

type retrieveInput struct {
	ItemKeys []string `json:"item_keys" jsonschema:"Zotero item keys to retrieve"`
}

func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest, input searchInput) (*mcp.CallToolResult, any, error) {
	if input.Limit <= 0 {
		return errorResult("Error: limit must be a positive integer."), nil, nil
	}

	result, err := s.lib.SearchLibrary(ctx, input.Limit, input.Query)
	if err != nil {
		s.log.WithError(err).WithField("tool", searchToolName).Error("tool call failed")
		return errorResult(fmt.Sprintf("Search error: %v", err)), nil, nil
	}
	return jsonResult(result)
}

func (s *Server) handleRetrieve(ctx context.Context, req *mcp.CallToolRequest, input retrieveInput) (*mcp.CallToolResult, any, error) {
	if len(input.ItemKeys) == 0 {
		return errorResult("Error: item_keys must contain at least one key."), nil, nil
	}

	records, err := s.lib.RetrieveContent(ctx, input.ItemKeys)
	if err != nil {
		s.log.WithError(err).WithField("tool", retrieveToolName).Error("tool call failed")
		if errors.Is(err, library.ErrInvalidArgument) {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil, nil
		}
		return errorResult(fmt.Sprintf("Retrieve error: %v", err)), nil, nil
	}
	return jsonResult(records)
}

// ServeStdio runs the server on stdin/stdout until ctx is done or the
// client disconnects.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.log.Info("serving MCP on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// ServeHTTP runs the server as a streamable HTTP endpoint on addr until ctx
// is done.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.server }, nil)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.WithField("addr", addr).Info("serving MCP over HTTP")

	select {
	case err := <-errc:
		return fmt.Errorf("serving HTTP: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("Error encoding result: %v", err)), nil, nil
	}
	return textResult(string(data)), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	r := textResult(text)
	r.IsError = true
	return r
}
