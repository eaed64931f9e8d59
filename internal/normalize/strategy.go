// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"context"
	"fmt"
	"strings"
)

// Kind identifies the parsing strategy an item is handled with.
type Kind int

const (
	KindGeneric Kind = iota
	KindNote
	KindPDF
)

func (k Kind) String() string {
	switch k {
	case KindNote:
		return "note"
	case KindPDF:
		return "pdf"
	default:
		return "generic"
	}
}

const (
	itemTypeNote       = "note"
	itemTypeAttachment = "attachment"
	contentTypePDF     = "application/pdf"
)

// Classify picks the strategy for an item from its type and content type,
// and the parent's when the item has one. The first matching rule wins:
// notes, then PDF attachments, then everything else.
func Classify(itemType, contentType, parentType, parentContentType string) Kind {
	switch {
	case itemType == itemTypeNote:
		return KindNote
	case contentType == contentTypePDF:
		return KindPDF
	case isEmbeddedNoteImage(itemType, contentType, parentType):
		// No title or text is extracted from images embedded in notes yet.
		return KindGeneric
	default:
		return KindGeneric
	}
}

func isEmbeddedNoteImage(itemType, contentType, parentType string) bool {
	return itemType == itemTypeAttachment && parentType == itemTypeNote && strings.HasPrefix(contentType, "image/")
}

// Strategy extracts the title and content of one kind of item.
type Strategy interface {
	Kind() Kind

	// ParseTitle returns the item's title and its parent's title. Either may
	// be nil when the record does not declare one. parentData is empty for
	// items without a parent.
	ParseTitle(itemData, parentData map[string]any) (title, parentTitle *string, err error)

	// ParseContent returns the item's textual content, empty when the item
	// has none to extract.
	ParseContent(ctx context.Context, key string, itemData map[string]any) (string, error)
}

// FileFetcher fetches attachment bytes by item key.
type FileFetcher interface {
	File(ctx context.Context, key string) ([]byte, error)
}

// TextExtractor turns document bytes into plain text.
type TextExtractor interface {
	Text(data []byte) (string, error)
}

// Dispatcher hands out strategies. The PDF strategy is bound to the file
// fetcher and text extractor given here.
type Dispatcher struct {
	files FileFetcher
	text  TextExtractor
}

// NewDispatcher returns a Dispatcher using files and text for PDF content.
func NewDispatcher(files FileFetcher, text TextExtractor) *Dispatcher {
	return &Dispatcher{files: files, text: text}
}

// Strategy returns a fresh strategy for k.
func (d *Dispatcher) Strategy(k Kind) Strategy {
	switch k {
	case KindNote:
		return noteStrategy{}
	case KindPDF:
		return pdfStrategy{files: d.files, text: d.text}
	default:
		return genericStrategy{}
	}
}

// noteStrategy titles a note from its HTML body; the content is the body.
type noteStrategy struct{}

func (noteStrategy) Kind() Kind { return KindNote }

func (noteStrategy) ParseTitle(itemData, parentData map[string]any) (*string, *string, error) {
	title, err := NoteTitle(stringValue(itemData, "note"))
	if err != nil {
		return nil, nil, err
	}
	return &title, optionalString(parentData, "title"), nil
}

func (noteStrategy) ParseContent(_ context.Context, _ string, itemData map[string]any) (string, error) {
	return stringValue(itemData, "note"), nil
}

// genericStrategy reports declared titles and has no content. For child
// items such as attachments the parent's title names the actual work.
type genericStrategy struct{}

func (genericStrategy) Kind() Kind { return KindGeneric }

func (genericStrategy) ParseTitle(itemData, parentData map[string]any) (*string, *string, error) {
	return optionalString(itemData, "title"), optionalString(parentData, "title"), nil
}

func (genericStrategy) ParseContent(context.Context, string, map[string]any) (string, error) {
	return "", nil
}

// pdfStrategy titles like a generic item and reads the attachment's text.
type pdfStrategy struct {
	genericStrategy
	files FileFetcher
	text  TextExtractor
}

func (pdfStrategy) Kind() Kind { return KindPDF }

func (s pdfStrategy) ParseContent(ctx context.Context, key string, _ map[string]any) (string, error) {
	data, err := s.files.File(ctx, key)
	if err != nil {
		return "", fmt.Errorf("fetching attachment %s: %w", key, err)
	}
	text, err := s.text.Text(data)
	if err != nil {
		return "", fmt.Errorf("extracting text from %s: %w", key, err)
	}
	return text, nil
}
