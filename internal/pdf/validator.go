package pdf

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	apperrors "github.com/a3tai/docindex/internal/errors"
)

// pdfHeader starts every PDF file
var pdfHeader = []byte("%PDF-")

// Validator checks uploaded PDF files before text extraction
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator. A maxFileSize of zero disables
// the size check.
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// Validate checks size, header and document structure and returns the
// number of pages
func (v *Validator) Validate(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, apperrors.New(apperrors.ErrorTypeInvalidDocument, "the uploaded PDF file is empty")
	}

	if v.maxFileSize > 0 && int64(len(data)) > v.maxFileSize {
		return 0, apperrors.Newf(apperrors.ErrorTypeFileTooLarge,
			"file too large: %d bytes (max: %d bytes)", len(data), v.maxFileSize)
	}

	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\n\r "), pdfHeader) {
		return 0, apperrors.New(apperrors.ErrorTypeInvalidDocument, "the uploaded file is not a PDF document")
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrorTypeInvalidDocument, "the PDF document could not be read", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return 0, apperrors.Wrap(apperrors.ErrorTypeInvalidDocument, "the PDF page tree could not be read", err)
	}

	return ctx.PageCount, nil
}
