// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/zotero-mcp/pkg/types"
)

// ContentNormalizer builds ItemContentRecords. Items are classified from
// their own fields only; parents are never fetched.
type ContentNormalizer struct {
	strategies *Dispatcher
	log        *logrus.Entry
}

// NewContentNormalizer returns a normalizer that reads attachment bytes from
// files and extracts PDF text with text.
func NewContentNormalizer(files FileFetcher, text TextExtractor, log *logrus.Entry) *ContentNormalizer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ContentNormalizer{strategies: NewDispatcher(files, text), log: log}
}

// Normalize returns one content record per item, in input order.
func (n *ContentNormalizer) Normalize(ctx context.Context, items []types.RawItem) ([]types.ItemContentRecord, error) {
	records := make([]types.ItemContentRecord, 0, len(items))
	for i, item := range items {
		rec, err := n.normalizeItem(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("item %d (%s): %w", i, item.Key, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (n *ContentNormalizer) normalizeItem(ctx context.Context, item types.RawItem) (types.ItemContentRecord, error) {
	if err := checkItem(item); err != nil {
		return types.ItemContentRecord{}, err
	}

	kind := Classify(stringValue(item.Data, "itemType"), stringValue(item.Data, "contentType"), "", "")
	strategy := n.strategies.Strategy(kind)

	title, _, err := strategy.ParseTitle(item.Data, map[string]any{})
	if err != nil {
		return types.ItemContentRecord{}, fmt.Errorf("parsing %s title: %w", kind, err)
	}
	content, err := strategy.ParseContent(ctx, item.Key, item.Data)
	if err != nil {
		return types.ItemContentRecord{}, err
	}

	n.log.WithFields(logrus.Fields{"item": item.Key, "kind": kind.String(), "chars": len(content)}).Debug("normalized item content")
	return types.ItemContentRecord{
		ItemKey:     item.Key,
		ItemTitle:   title,
		ItemContent: content,
	}, nil
}
