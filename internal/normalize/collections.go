// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/zotero-mcp/pkg/types"
)

// MaxCollectionDepth is the deepest ancestor level the resolver visits.
// Collection trees are forests; a parent chain longer than this is treated
// as a cycle in the source data.
const MaxCollectionDepth = 100

// CollectionFetcher fetches collection records by key.
type CollectionFetcher interface {
	Collection(ctx context.Context, key string) (types.RawCollection, error)
}

// CollectionResolver turns a collection reference into its ancestry chain.
// It holds no per-call state and never caches: every Resolve refetches.
type CollectionResolver struct {
	lib CollectionFetcher
	log *logrus.Entry
}

// NewCollectionResolver returns a resolver reading from lib.
func NewCollectionResolver(lib CollectionFetcher, log *logrus.Entry) *CollectionResolver {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &CollectionResolver{lib: lib, log: log}
}

// Resolve returns the ancestry of the referenced collection as
// "Collection depth=D: <name>" entries ordered root to leaf, with the root
// at depth 0. id is a collection key or an object whose values are keys;
// for the latter the first key is used.
func (r *CollectionResolver) Resolve(ctx context.Context, id any) ([]string, error) {
	chain, _, err := r.resolve(ctx, id, 0)
	return chain, err
}

// resolve climbs to the root and labels each level on the way back down.
// depth counts levels above the starting collection; the returned total is
// the depth at which the root was found.
func (r *CollectionResolver) resolve(ctx context.Context, id any, depth int) ([]string, int, error) {
	if depth > MaxCollectionDepth {
		return nil, 0, fmt.Errorf("%w: no root within %d levels (at %v)", ErrCycleOrExcessiveDepth, MaxCollectionDepth, id)
	}

	keys, err := CollectionKeys(id)
	if err != nil {
		return nil, 0, err
	}
	key := keys[0]
	r.log.WithFields(logrus.Fields{"depth": depth, "collection": key}).Debug("resolving collection")

	col, err := r.lib.Collection(ctx, key)
	if err != nil {
		return nil, 0, fmt.Errorf("resolving collection %s: %w", key, err)
	}
	if len(col.Data) == 0 {
		return nil, 0, fmt.Errorf("%w: collection %s has no data", ErrMalformedRecord, key)
	}
	name, ok := col.Data["name"].(string)
	if !ok {
		return nil, 0, fmt.Errorf("%w: collection %s has no name", ErrMalformedRecord, key)
	}

	parent, ok := parentCollection(col.Data["parentCollection"])
	if !ok {
		return []string{collectionLabel(0, name)}, depth, nil
	}

	chain, total, err := r.resolve(ctx, parent, depth+1)
	if err != nil {
		return nil, 0, err
	}
	return append(chain, collectionLabel(total-depth, name)), total, nil
}

func collectionLabel(depth int, name string) string {
	return fmt.Sprintf("Collection depth=%d: %s", depth, name)
}

// parentCollection reports the parent reference of a collection. Roots carry
// false; the API omits the field in some responses.
func parentCollection(v any) (any, bool) {
	switch p := v.(type) {
	case string:
		return p, p != ""
	case map[string]any:
		return p, len(p) > 0
	}
	return nil, false
}

// CollectionKeys normalizes a collection reference to a list of keys. The
// API usually gives a key string, but some payloads carry an object whose
// values are keys; its values are returned ordered by their object keys
// (numerically when the object keys are indices).
func CollectionKeys(id any) ([]string, error) {
	switch v := id.(type) {
	case string:
		if v == "" {
			return nil, fmt.Errorf("%w: empty collection key", ErrMalformedRecord)
		}
		return []string{v}, nil
	case map[string]any:
		names := make([]string, 0, len(v))
		for k := range v {
			names = append(names, k)
		}
		sort.Slice(names, func(i, j int) bool { return indexLess(names[i], names[j]) })

		var keys []string
		for _, k := range names {
			if s, ok := v[k].(string); ok && s != "" {
				keys = append(keys, s)
			}
		}
		if len(keys) == 0 {
			return nil, fmt.Errorf("%w: collection reference %v holds no keys", ErrMalformedRecord, v)
		}
		return keys, nil
	}
	return nil, fmt.Errorf("%w: unsupported collection reference %T", ErrMalformedRecord, id)
}

func indexLess(a, b string) bool {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	if aErr == nil && bErr == nil {
		return ai < bi
	}
	return a < b
}
