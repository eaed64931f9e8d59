// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library implements the two library operations exposed to MCP
// clients and the CLI: searching for item metadata and retrieving item
// content. It wires a backend to the normalizers and holds no state of its
// own between calls.
package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/zotero-mcp/internal/normalize"
	"github.com/pdiddy/zotero-mcp/internal/zotero"
	"github.com/pdiddy/zotero-mcp/pkg/types"
)

// EmptySearchMessage is the status reported when a search matches nothing.
const EmptySearchMessage = "Search results: 0 items found - no items match the search query"

// ErrInvalidArgument is returned for arguments rejected before any backend
// call.
var ErrInvalidArgument = errors.New("invalid argument")

// Service runs searches and content retrieval against one library.
type Service struct {
	lib      zotero.Library
	metadata *normalize.MetadataNormalizer
	content  *normalize.ContentNormalizer
	log      *logrus.Entry
}

// NewService returns a Service reading from lib and extracting PDF text
// with text.
func NewService(lib zotero.Library, text normalize.TextExtractor, log *logrus.Entry) *Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{
		lib:      lib,
		metadata: normalize.NewMetadataNormalizer(lib, text, log),
		content:  normalize.NewContentNormalizer(lib, text, log),
		log:      log,
	}
}

// SearchLibrary searches the library and normalizes each hit's metadata.
// An empty result is reported through the message, not as an error.
func (s *Service) SearchLibrary(ctx context.Context, limit int, query string) (types.SearchResult, error) {
	if limit < 1 {
		return types.SearchResult{}, fmt.Errorf("%w: limit must be a positive integer, got %d", ErrInvalidArgument, limit)
	}

	raw, err := s.lib.Query(ctx, limit, query)
	if err != nil {
		return types.SearchResult{}, fmt.Errorf("searching library: %w", err)
	}
	if len(raw) == 0 {
		s.log.WithField("query", query).Info(EmptySearchMessage)
		return types.SearchResult{Message: EmptySearchMessage, Items: []types.ItemMetadataRecord{}}, nil
	}

	items, err := s.metadata.Normalize(ctx, raw)
	if err != nil {
		return types.SearchResult{}, fmt.Errorf("normalizing search results: %w", err)
	}
	return types.SearchResult{Message: searchMessage(len(items)), Items: items}, nil
}

func searchMessage(n int) string {
	plural := ""
	if n > 1 {
		plural = "s"
	}
	return fmt.Sprintf("Search results: %d item%s found", n, plural)
}

// RetrieveContent fetches the given items and returns their content in key
// order.
func (s *Service) RetrieveContent(ctx context.Context, keys []string) ([]types.ItemContentRecord, error) {
	raw := make([]types.RawItem, 0, len(keys))
	for i, key := range keys {
		if key == "" {
			return nil, fmt.Errorf("%w: item key %d is empty", ErrInvalidArgument, i)
		}
		item, err := s.lib.Item(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("fetching item %s: %w", key, err)
		}
		raw = append(raw, item)
	}

	records, err := s.content.Normalize(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("retrieving content: %w", err)
	}
	s.log.WithField("items", len(records)).Info("Retrieved item content")
	return records, nil
}

// Collection returns the ancestry chain of one collection.
func (s *Service) Collection(ctx context.Context, key string) ([]string, error) {
	return normalize.NewCollectionResolver(s.lib, s.log).Resolve(ctx, key)
}
