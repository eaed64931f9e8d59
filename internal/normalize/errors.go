// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import "errors"

// Errors returned by the normalizers. They are wrapped with the item or
// collection they concern; match them with errors.Is.
var (
	// ErrMalformedRecord means an item or collection record is missing,
	// empty, or lacks a field every record of its kind carries.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrStructure means a note body has no schema container.
	ErrStructure = errors.New("note has no schema container")

	// ErrEmptyContent means a note's schema container has no children.
	ErrEmptyContent = errors.New("note container is empty")

	// ErrCycleOrExcessiveDepth means collection ancestry did not reach a
	// root within MaxCollectionDepth levels.
	ErrCycleOrExcessiveDepth = errors.New("collection ancestry is cyclic or too deep")

	// ErrMissingCollections means neither the item nor its parent declares
	// a collections field.
	ErrMissingCollections = errors.New("item and parent declare no collections")

	// ErrLookup means the parent item could not be fetched.
	ErrLookup = errors.New("parent item lookup failed")
)
