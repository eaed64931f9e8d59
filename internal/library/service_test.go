// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/zotero-mcp/internal/normalize"
	"github.com/pdiddy/zotero-mcp/internal/zotero"
	"github.com/pdiddy/zotero-mcp/pkg/types"
)

// stubText reports the bytes as page text.
type stubText struct{}

func (stubText) Text(data []byte) (string, error) { return string(data), nil }

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// newZoteroServer serves a small library over the Web API routes.
func newZoteroServer(t *testing.T, searchResults []map[string]any) *httptest.Server {
	t.Helper()
	items := map[string]map[string]any{
		"BOOK0001": {"key": "BOOK0001", "data": map[string]any{"itemType": "book", "title": "Learning Deep Architectures", "collections": []any{"C2"}}},
		"PDF00001": {"key": "PDF00001", "data": map[string]any{"itemType": "attachment", "contentType": "application/pdf", "title": "Full Text PDF", "parentItem": "BOOK0001"}},
		"NOTE0001": {"key": "NOTE0001", "data": map[string]any{"itemType": "note", "note": `<div data-schema-version="9"><h1>Findings</h1><p>...</p></div>`, "collections": []any{"C1"}}},
	}
	collections := map[string]map[string]any{
		"C1": {"key": "C1", "data": map[string]any{"name": "Research", "parentCollection": false}},
		"C2": {"key": "C2", "data": map[string]any{"name": "Deep Learning", "parentCollection": "C1"}},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/1/items", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchResults)
	})
	mux.HandleFunc("GET /users/1/items/{key}", func(w http.ResponseWriter, r *http.Request) {
		it, ok := items[r.PathValue("key")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(it)
	})
	mux.HandleFunc("GET /users/1/items/{key}/file", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("key") != "PDF00001" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "Page one.Page two.")
	})
	mux.HandleFunc("GET /users/1/collections/{key}", func(w http.ResponseWriter, r *http.Request) {
		c, ok := collections[r.PathValue("key")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(c)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newTestService(t *testing.T, searchResults []map[string]any) *Service {
	t.Helper()
	ts := newZoteroServer(t, searchResults)
	client, err := zotero.NewClient(types.LibraryConfig{
		ID:      "1",
		Type:    types.LibraryUser,
		Mode:    types.ModeWeb,
		BaseURL: ts.URL,
	}, quietLogger())
	require.NoError(t, err)
	return NewService(client, stubText{}, quietLogger())
}

func TestSearchLibrary_Empty(t *testing.T) {
	svc := newTestService(t, []map[string]any{})

	got, err := svc.SearchLibrary(context.Background(), 10, "machine learning")
	require.NoError(t, err)
	assert.Equal(t, "Search results: 0 items found - no items match the search query", got.Message)
	assert.Equal(t, []types.ItemMetadataRecord{}, got.Items)
}

func TestSearchLibrary_Note(t *testing.T) {
	svc := newTestService(t, []map[string]any{
		{"key": "NOTE0001", "data": map[string]any{"itemType": "note", "note": `<div data-schema-version="9"><h1>Findings</h1><p>...</p></div>`, "collections": []any{"C1"}}},
	})

	got, err := svc.SearchLibrary(context.Background(), 10, "findings")
	require.NoError(t, err)
	assert.Equal(t, "Search results: 1 item found", got.Message)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Findings", *got.Items[0].ItemTitle)
	assert.Equal(t, [][]string{{"Collection depth=0: Research"}}, got.Items[0].ItemCollectionNames)
}

func TestSearchLibrary_Plural(t *testing.T) {
	svc := newTestService(t, []map[string]any{
		{"key": "PDF00001", "data": map[string]any{"itemType": "attachment", "contentType": "application/pdf", "title": "Full Text PDF", "parentItem": "BOOK0001"}},
		{"key": "BOOK0001", "data": map[string]any{"itemType": "book", "title": "Learning Deep Architectures", "collections": []any{"C2"}}},
	})

	got, err := svc.SearchLibrary(context.Background(), 10, "deep")
	require.NoError(t, err)
	assert.Equal(t, "Search results: 2 items found", got.Message)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "PDF00001", got.Items[0].ItemKey)
	assert.Equal(t, "Learning Deep Architectures", *got.Items[0].ItemParentTitle)
	assert.Equal(t, got.Items[1].ItemCollectionNames, got.Items[0].ItemCollectionNames)
}

func TestSearchLibrary_Errors(t *testing.T) {
	svc := newTestService(t, []map[string]any{
		{"key": "X", "data": map[string]any{"itemType": "book"}},
	})

	_, err := svc.SearchLibrary(context.Background(), 0, "q")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.SearchLibrary(context.Background(), 5, "q")
	assert.ErrorIs(t, err, normalize.ErrMissingCollections)
}

func TestRetrieveContent(t *testing.T) {
	svc := newTestService(t, nil)

	got, err := svc.RetrieveContent(context.Background(), []string{"PDF00001", "NOTE0001", "BOOK0001"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "PDF00001", got[0].ItemKey)
	assert.Equal(t, "Page one.Page two.", got[0].ItemContent)
	assert.True(t, strings.HasPrefix(got[1].ItemContent, `<div data-schema-version="9">`))
	assert.Equal(t, "Findings", *got[1].ItemTitle)
	assert.Empty(t, got[2].ItemContent)
}

func TestRetrieveContent_Errors(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.RetrieveContent(context.Background(), []string{"NOPE"})
	assert.ErrorIs(t, err, zotero.ErrNotFound)

	_, err = svc.RetrieveContent(context.Background(), []string{"BOOK0001", ""})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCollection(t *testing.T) {
	svc := newTestService(t, nil)

	got, err := svc.Collection(context.Background(), "C2")
	require.NoError(t, err)
	assert.Equal(t, []string{"Collection depth=0: Research", "Collection depth=1: Deep Learning"}, got)
}
