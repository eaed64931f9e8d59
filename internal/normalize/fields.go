// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"fmt"

	"github.com/pdiddy/zotero-mcp/pkg/types"
)

// stringValue returns data[key] when it is a string, "" otherwise.
func stringValue(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

// optionalString returns a pointer to data[key] when it is a string.
func optionalString(data map[string]any, key string) *string {
	s, ok := data[key].(string)
	if !ok {
		return nil
	}
	return &s
}

// listValue returns data[key] as a list. JSON decoding yields []any; the
// SQLite backend and tests may hand over []string.
func listValue(data map[string]any, key string) ([]any, bool) {
	switch v := data[key].(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// checkItem rejects records that cannot be normalized: no key, no data, or
// no item type.
func checkItem(item types.RawItem) error {
	if item.Key == "" {
		return fmt.Errorf("%w: item has no key", ErrMalformedRecord)
	}
	if len(item.Data) == 0 {
		return fmt.Errorf("%w: item %s has no data", ErrMalformedRecord, item.Key)
	}
	if stringValue(item.Data, "itemType") == "" {
		return fmt.Errorf("%w: item %s has no itemType", ErrMalformedRecord, item.Key)
	}
	return nil
}
