// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftext extracts plain text from PDF attachments held in memory.
// Documents are validated with pdfcpu before their pages are read, so a
// corrupt download fails with ErrUnreadableDocument instead of producing
// partial text.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrUnreadableDocument is returned when the bytes are not a readable PDF.
var ErrUnreadableDocument = errors.New("unreadable PDF document")

// pdfcpu otherwise writes a config directory under the user's home.
var disableConfigDir sync.Once

// Extractor turns PDF bytes into text. The zero value is not usable; call New.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor {
	disableConfigDir.Do(api.DisableConfigDir)
	return &Extractor{}
}

// Text returns the plain text of every page concatenated in page order,
// without separators beyond what each page's extraction yields.
func (e *Extractor) Text(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty byte stream", ErrUnreadableDocument)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnreadableDocument, err)
	}

	// The page reader panics on malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", ErrUnreadableDocument, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnreadableDocument, err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %w", ErrUnreadableDocument, i, err)
		}
		b.WriteString(pageText)
	}
	return b.String(), nil
}
