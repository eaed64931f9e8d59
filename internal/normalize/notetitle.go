// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// NoteSchemaVersion is the data-schema-version Zotero writes on the
// container div of a note body.
const NoteSchemaVersion = "9"

var noteContainerSelector = fmt.Sprintf("div[data-schema-version=%q]", NoteSchemaVersion)

// NoteTitle extracts the title of a Zotero note. The title is the text of the
// first h1 among the container's direct children; without one it is the text
// of the container's first child of any kind. Comments and whitespace-only
// text between tags do not count as children.
//
// The container is required: a body without it fails with ErrStructure rather
// than falling back to the document root.
func NoteTitle(noteHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(noteHTML))
	if err != nil {
		return "", fmt.Errorf("%w: parsing note HTML: %w", ErrStructure, err)
	}

	container := doc.Find(noteContainerSelector).First()
	if container.Length() == 0 {
		return "", ErrStructure
	}

	if h1 := container.ChildrenFiltered("h1").First(); h1.Length() > 0 {
		return h1.Text(), nil
	}

	contents := container.Contents()
	for i, n := range contents.Nodes {
		switch n.Type {
		case html.ElementNode:
			return contents.Eq(i).Text(), nil
		case html.TextNode:
			if strings.TrimSpace(n.Data) != "" {
				return n.Data, nil
			}
		}
	}
	return "", ErrEmptyContent
}
