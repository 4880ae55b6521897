package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	apperr "github.com/campusqa/courseqa/internal/pkg/errors"
)

// Page holds the plain text of a single PDF page. Number is 1-based to match
// how citations reference pages.
type Page struct {
	Number int
	Text   string
}

// PDFPages extracts per-page text from a PDF. Pages that yield no text are
// skipped; a document whose every page is empty returns an empty slice, not
// an error. An unreadable file wraps ErrExtraction.
func PDFPages(r io.ReaderAt, size int64) ([]Page, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: parse pdf: %v", apperr.ErrExtraction, err)
	}
	var pages []Page
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: extract page %d: %v", apperr.ErrExtraction, i, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}
	return pages, nil
}
