// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize turns raw Zotero records into uniform metadata and
// content records. Items are classified into a small fixed set of kinds
// (notes, PDF attachments, everything else) and each kind has a strategy
// for its title and content. Collection membership is reported as full
// ancestry chains.
//
// Normalizers process a batch sequentially and keep its order: record i of
// the output always describes item i of the input. Any error aborts the
// batch, since skipping an item would break that correspondence.
package normalize

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/zotero-mcp/pkg/types"
)

// ItemFetcher fetches item records by key.
type ItemFetcher interface {
	Item(ctx context.Context, key string) (types.RawItem, error)
}

// Library is what the normalizers need from a backend.
type Library interface {
	ItemFetcher
	CollectionFetcher
	FileFetcher
}

// MetadataNormalizer builds ItemMetadataRecords.
type MetadataNormalizer struct {
	items       ItemFetcher
	collections *CollectionResolver
	strategies  *Dispatcher
	log         *logrus.Entry
}

// NewMetadataNormalizer returns a normalizer reading parents and collections
// from lib.
func NewMetadataNormalizer(lib Library, text TextExtractor, log *logrus.Entry) *MetadataNormalizer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &MetadataNormalizer{
		items:       lib,
		collections: NewCollectionResolver(lib, log),
		strategies:  NewDispatcher(lib, text),
		log:         log,
	}
}

// Normalize returns one metadata record per item, in input order.
func (n *MetadataNormalizer) Normalize(ctx context.Context, items []types.RawItem) ([]types.ItemMetadataRecord, error) {
	records := make([]types.ItemMetadataRecord, 0, len(items))
	for i, item := range items {
		rec, err := n.normalizeItem(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("item %d (%s): %w", i, item.Key, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (n *MetadataNormalizer) normalizeItem(ctx context.Context, item types.RawItem) (types.ItemMetadataRecord, error) {
	if err := checkItem(item); err != nil {
		return types.ItemMetadataRecord{}, err
	}
	itemType := stringValue(item.Data, "itemType")
	contentType := stringValue(item.Data, "contentType")

	parentData, err := n.parentData(ctx, item.Data)
	if err != nil {
		return types.ItemMetadataRecord{}, err
	}

	ids, err := effectiveCollections(item.Data, parentData)
	if err != nil {
		return types.ItemMetadataRecord{}, err
	}
	names, err := n.collectionNames(ctx, ids)
	if err != nil {
		return types.ItemMetadataRecord{}, err
	}

	kind := Classify(itemType, contentType, stringValue(parentData, "itemType"), stringValue(parentData, "contentType"))
	title, parentTitle, err := n.strategies.Strategy(kind).ParseTitle(item.Data, parentData)
	if err != nil {
		return types.ItemMetadataRecord{}, fmt.Errorf("parsing %s title: %w", kind, err)
	}

	n.log.WithFields(logrus.Fields{"item": item.Key, "kind": kind.String()}).Debug("normalized item metadata")
	return types.ItemMetadataRecord{
		ItemKey:             item.Key,
		ItemType:            itemType,
		ItemTitle:           title,
		ItemParentTitle:     parentTitle,
		ItemCollectionNames: names,
	}, nil
}

// parentData fetches the parent's data, or returns an empty mapping for
// top-level items. Parents are fetched on every call.
func (n *MetadataNormalizer) parentData(ctx context.Context, itemData map[string]any) (map[string]any, error) {
	key := stringValue(itemData, "parentItem")
	if key == "" {
		return map[string]any{}, nil
	}

	parent, err := n.items.Item(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: parent item %s: %w", ErrLookup, key, err)
	}
	if len(parent.Data) == 0 {
		return nil, fmt.Errorf("%w: parent item %s has no data", ErrMalformedRecord, key)
	}
	n.log.WithField("parent", key).Info("Item has a parent item")
	return parent.Data, nil
}

// effectiveCollections picks the collection references to report. Child
// items (notes and attachments under a parent) are not filed themselves, so
// an item without collections of its own inherits its parent's. This applies
// to every item type.
func effectiveCollections(itemData, parentData map[string]any) ([]any, error) {
	own, ownDeclared := listValue(itemData, "collections")
	if len(own) > 0 {
		return own, nil
	}
	if inherited, ok := listValue(parentData, "collections"); ok {
		return inherited, nil
	}
	if ownDeclared {
		return own, nil
	}
	return nil, ErrMissingCollections
}

// collectionNames resolves each distinct reference in order of appearance.
func (n *MetadataNormalizer) collectionNames(ctx context.Context, ids []any) ([][]string, error) {
	names := make([][]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		keys, err := CollectionKeys(id)
		if err != nil {
			return nil, err
		}
		if seen[keys[0]] {
			continue
		}
		seen[keys[0]] = true

		chain, err := n.collections.Resolve(ctx, id)
		if err != nil {
			return nil, err
		}
		names = append(names, chain)
	}
	return names, nil
}
