// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/zotero-mcp/internal/zotero"
	"github.com/pdiddy/zotero-mcp/pkg/types"
)

// fakeLibrary serves items, collections, and files from maps and counts
// every fetch.
type fakeLibrary struct {
	items       map[string]types.RawItem
	collections map[string]types.RawCollection
	files       map[string][]byte

	itemCalls       map[string]int
	collectionCalls map[string]int
	fileCalls       map[string]int
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{
		items:           map[string]types.RawItem{},
		collections:     map[string]types.RawCollection{},
		files:           map[string][]byte{},
		itemCalls:       map[string]int{},
		collectionCalls: map[string]int{},
		fileCalls:       map[string]int{},
	}
}

func (f *fakeLibrary) addCollection(key, name string, parent any) {
	f.collections[key] = types.RawCollection{
		Key:  key,
		Data: map[string]any{"key": key, "name": name, "parentCollection": parent},
	}
}

func (f *fakeLibrary) Item(_ context.Context, key string) (types.RawItem, error) {
	f.itemCalls[key]++
	it, ok := f.items[key]
	if !ok {
		return types.RawItem{}, fmt.Errorf("%w: /items/%s", zotero.ErrNotFound, key)
	}
	return it, nil
}

func (f *fakeLibrary) Collection(_ context.Context, key string) (types.RawCollection, error) {
	f.collectionCalls[key]++
	c, ok := f.collections[key]
	if !ok {
		return types.RawCollection{}, fmt.Errorf("%w: /collections/%s", zotero.ErrNotFound, key)
	}
	return c, nil
}

func (f *fakeLibrary) File(_ context.Context, key string) ([]byte, error) {
	f.fileCalls[key]++
	b, ok := f.files[key]
	if !ok {
		return nil, fmt.Errorf("%w: /items/%s/file", zotero.ErrNotFound, key)
	}
	return b, nil
}

// fakeText treats the document bytes as the text itself.
type fakeText struct{}

func (fakeText) Text(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty document")
	}
	return string(data), nil
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func strPtr(s string) *string { return &s }
