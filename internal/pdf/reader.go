package pdf

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	apperrors "github.com/a3tai/docindex/internal/errors"
)

// PageSource provides the text of a paginated document. Pages are numbered
// from 1.
type PageSource interface {
	NumPages() int
	PageText(page int) (string, error)
}

// Reader opens uploaded PDF files for text extraction
type Reader struct {
	validator *Validator
}

// NewReader creates a new PDF reader with the specified constraints
func NewReader(maxFileSize int64) *Reader {
	return &Reader{
		validator: NewValidator(maxFileSize),
	}
}

// Open validates data and prepares it for page-by-page text extraction
func (r *Reader) Open(data []byte) (doc *Document, err error) {
	if _, err := r.validator.Validate(data); err != nil {
		return nil, err
	}

	defer func() {
		// ledongthuc/pdf panics on some malformed cross-reference data
		if rec := recover(); rec != nil {
			doc = nil
			err = apperrors.Wrap(apperrors.ErrorTypeInvalidDocument, "the PDF document could not be read",
				fmt.Errorf("%v", rec))
		}
	}()

	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeInvalidDocument, "the PDF document could not be read", err)
	}

	return &Document{reader: pdfReader}, nil
}

// Document is an opened PDF file
type Document struct {
	reader *pdf.Reader
}

// NumPages returns the number of pages in the document
func (d *Document) NumPages() int {
	return d.reader.NumPage()
}

// PageText extracts the plain text of a page. Pages without content yield
// an empty string.
func (d *Document) PageText(page int) (string, error) {
	if page < 1 || page > d.reader.NumPage() {
		return "", fmt.Errorf("invalid page number %d (document has %d pages)", page, d.reader.NumPage())
	}

	p := d.reader.Page(page)
	if p.V.IsNull() {
		return "", nil
	}

	text, err := p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("extract text from page %d: %w", page, err)
	}
	return text, nil
}
