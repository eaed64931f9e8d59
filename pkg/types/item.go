// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the zotero-mcp server.
// Raw records mirror what the Zotero API returns; normalized records are what
// the tools hand back to the calling agent.
package types

// RawItem is an item record as returned by a library backend. Data is kept
// loosely typed because item shapes differ between item types (notes carry
// "note", attachments carry "contentType", child items carry "parentItem").
type RawItem struct {
	// Key is the library-unique item key (e.g. "ABCD2345").
	Key string `json:"key" yaml:"key"`

	// Data is the item's field mapping, at least "itemType".
	Data map[string]any `json:"data" yaml:"data"`
}

// RawCollection is a collection record as returned by a library backend.
// Data carries "name" and "parentCollection" (false at a root).
type RawCollection struct {
	Key  string         `json:"key" yaml:"key"`
	Data map[string]any `json:"data" yaml:"data"`
}

// ItemMetadataRecord is the normalized metadata for one item.
type ItemMetadataRecord struct {
	ItemKey  string `json:"itemKey" yaml:"itemKey"`
	ItemType string `json:"itemType" yaml:"itemType"`

	// ItemTitle is nil when the item declares no title.
	ItemTitle *string `json:"itemTitle" yaml:"itemTitle"`

	// ItemParentTitle is the parent item's title, nil without a parent.
	ItemParentTitle *string `json:"itemParentTitle" yaml:"itemParentTitle"`

	// ItemCollectionNames holds one ancestry chain per collection the item
	// (or its parent) belongs to, each ordered root to leaf.
	ItemCollectionNames [][]string `json:"itemCollectionNames" yaml:"itemCollectionNames"`
}

// ItemContentRecord is the normalized content for one item.
type ItemContentRecord struct {
	ItemKey   string  `json:"itemKey" yaml:"itemKey"`
	ItemTitle *string `json:"itemTitle" yaml:"itemTitle"`

	// ItemContent is the note HTML, the PDF text, or empty for items
	// without extractable content.
	ItemContent string `json:"itemContent" yaml:"itemContent"`
}

// SearchResult is the outcome of a library search: a status message and
// one metadata record per matching item.
type SearchResult struct {
	Message string               `json:"message" yaml:"message"`
	Items   []ItemMetadataRecord `json:"items" yaml:"items"`
}
