package tasks

import (
	"context"
	"strconv"
	"strings"

	"github.com/a3tai/docindex/internal/docx"
	apperrors "github.com/a3tai/docindex/internal/errors"
	"github.com/a3tai/docindex/internal/pattern"
	"github.com/a3tai/docindex/internal/pdf"
	"github.com/a3tai/docindex/internal/pdf/pagerange"
	"github.com/a3tai/docindex/internal/transform"
)

// Ensure Service implements Processor.
var _ Processor = (*Service)(nil)

// Options configures a Service
type Options struct {
	// MaxFileSize bounds every uploaded file in bytes
	MaxFileSize int64
	// TableSeparator joins the fields of consolidated table lines
	TableSeparator string
	// StrictPageRange rejects page ranges that do not fit the PDF instead of
	// searching every page
	StrictPageRange bool
	// ComposeUnicode compares PDF text and terms in Unicode NFC form
	ComposeUnicode bool
}

// Service runs the processing tasks on in-memory documents
type Service struct {
	opts      Options
	pdfReader *pdf.Reader
}

// NewService creates a task service
func NewService(opts Options) *Service {
	if opts.TableSeparator == "" {
		opts.TableSeparator = transform.DefaultSeparator
	}
	return &Service{
		opts:      opts,
		pdfReader: pdf.NewReader(opts.MaxFileSize),
	}
}

// GenerateRegex derives an index pattern from a sample entry
func (s *Service) GenerateRegex(_ context.Context, sample string) (string, error) {
	if strings.TrimSpace(sample) == "" {
		return "", apperrors.New(apperrors.ErrorTypeMissingInput, "a sample entry is required")
	}
	return pattern.Derive(sample)
}

// Process runs the task identified by id
func (s *Service) Process(ctx context.Context, id TaskID, in Input) ([]byte, error) {
	switch id {
	case TaskExtractIndex:
		file, err := s.requireFile(in, FieldFile)
		if err != nil {
			return nil, err
		}
		regex := in.Field(FieldRegex)
		if regex == "" {
			return nil, apperrors.New(apperrors.ErrorTypeMissingInput, "a regular expression is required")
		}
		return s.ExtractIndex(ctx, file, regex, in.Field(FieldDecorator))

	case TaskReformatNames, TaskExtractKorean, TaskConsolidateTable:
		file, err := s.requireFile(in, FieldFile)
		if err != nil {
			return nil, err
		}
		switch id {
		case TaskReformatNames:
			return s.ReformatNames(ctx, file)
		case TaskExtractKorean:
			return s.ExtractKoreanTable(ctx, file)
		default:
			return s.ConsolidateTable(ctx, file)
		}

	case TaskLocatePages:
		pdfData, hasPDF := in.File(FieldPDF)
		docxData, hasDocx := in.File(FieldDocx)
		if !hasPDF || !hasDocx {
			return nil, apperrors.New(apperrors.ErrorTypeMissingInput, "both a PDF file and a DOCX file are required")
		}
		if err := s.checkSize(pdfData); err != nil {
			return nil, err
		}
		if err := s.checkSize(docxData); err != nil {
			return nil, err
		}
		return s.LocatePages(ctx, pdfData, docxData, in.Field(FieldPageRange))
	}

	return nil, apperrors.Newf(apperrors.ErrorTypeUnknownTask, "unknown task %q", string(id))
}

// ExtractIndex applies expr to the body text of a document and writes the
// de-duplicated, decorated entries one per paragraph
func (s *Service) ExtractIndex(_ context.Context, file []byte, expr, decorator string) ([]byte, error) {
	doc, err := docx.Read(file)
	if err != nil {
		return nil, err
	}

	entries, err := transform.ExtractIndex(doc.Text(), expr, decorator)
	if err != nil {
		return nil, err
	}

	out := docx.NewBuilder()
	out.AddHeading(headingIndexList, 1)
	for _, entry := range entries {
		out.AddParagraph(entry)
	}
	return build(out)
}

// ReformatNames lists every non-blank paragraph next to its reformatted
// name, or an empty cell when the paragraph is not a name line
func (s *Service) ReformatNames(_ context.Context, file []byte) ([]byte, error) {
	doc, err := docx.Read(file)
	if err != nil {
		return nil, err
	}

	rows := [][]string{{headerOriginal, headerChanged}}
	for _, p := range doc.Paragraphs {
		original := strings.TrimSpace(p.Text)
		if original == "" {
			continue
		}
		changed, _ := transform.ReformatName(original)
		rows = append(rows, []string{original, changed})
	}

	out := docx.NewBuilder()
	out.AddTable(rows, docx.TableOptions{Columns: 2, BoldHeader: true})
	return build(out)
}

// ExtractKoreanTable reads the first two columns of the document's first
// table and adds the Hangul part of the first column
func (s *Service) ExtractKoreanTable(_ context.Context, file []byte) ([]byte, error) {
	table, err := readFirstTable(file)
	if err != nil {
		return nil, err
	}

	rows := [][]string{{headerOriginalNoMark, headerKorean, headerChanged}}
	for _, row := range dataRows(table) {
		if len(row) < 2 {
			continue
		}
		rows = append(rows, []string{
			strings.TrimSpace(strings.TrimLeft(row[0], transform.NameMarker)),
			transform.ExtractKorean(row[0]),
			row[1],
		})
	}

	out := docx.NewBuilder()
	out.AddTable(rows, docx.TableOptions{Columns: 3, BoldHeader: true})
	return build(out)
}

// LocatePages searches the PDF for the terms in the second column of the
// document's first table and returns the table with a page column added
func (s *Service) LocatePages(ctx context.Context, pdfData, docxData []byte, pageRange string) ([]byte, error) {
	table, err := readFirstTable(docxData)
	if err != nil {
		return nil, err
	}

	terms := searchTerms(table)
	if len(terms) == 0 {
		return nil, apperrors.New(apperrors.ErrorTypeMissingInput,
			"no search terms were found in the second column of the index table")
	}

	doc, err := s.pdfReader.Open(pdfData)
	if err != nil {
		return nil, err
	}

	rng, err := pagerange.Resolve(pageRange, doc.NumPages(), s.opts.StrictPageRange)
	if err != nil {
		return nil, err
	}

	found, err := pdf.Locate(ctx, terms, doc, rng, pdf.WithUnicodeComposition(s.opts.ComposeUnicode))
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.ErrorTypeInvalidDocument, "text could not be extracted from the PDF", err)
	}

	columns := table.Columns
	for _, row := range table.Rows {
		columns = max(columns, len(row))
	}

	rows := make([][]string, 0, len(table.Rows))
	for i, row := range table.Rows {
		cells := make([]string, columns+1)
		copy(cells, row)
		switch {
		case i == 0:
			cells[columns] = headerPages
		case len(row) > 1:
			cells[columns] = formatPages(found.Pages(strings.TrimSpace(table.Cell(i, 1))))
		}
		rows = append(rows, cells)
	}

	out := docx.NewBuilder()
	out.AddHeading(headingPageAnalysis, 1)
	out.AddTable(rows, docx.TableOptions{Columns: columns + 1})
	return build(out)
}

// ConsolidateTable merges the columns of a four-column table into sorted
// lines
func (s *Service) ConsolidateTable(_ context.Context, file []byte) ([]byte, error) {
	table, err := readFirstTable(file)
	if err != nil {
		return nil, err
	}

	columns := table.Columns
	if columns == 0 && len(table.Rows) > 0 {
		columns = len(table.Rows[0])
	}
	if columns < transform.MinConsolidateColumns {
		return nil, apperrors.Newf(apperrors.ErrorTypeInsufficientColumns,
			"the table must have at least %d columns", transform.MinConsolidateColumns)
	}

	lines := transform.ConsolidateRows(table.Rows, s.opts.TableSeparator)
	if len(lines) == 0 {
		return nil, apperrors.New(apperrors.ErrorTypeNoMatch, "no rows to consolidate were found in the table")
	}

	out := docx.NewBuilder()
	out.AddHeading(headingConsolidation, 1)
	for _, line := range lines {
		out.AddParagraph(line)
	}
	return build(out)
}

func (s *Service) requireFile(in Input, name string) ([]byte, error) {
	data, ok := in.File(name)
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrorTypeMissingInput, "the %s upload is required", name)
	}
	if err := s.checkSize(data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Service) checkSize(data []byte) error {
	if s.opts.MaxFileSize > 0 && int64(len(data)) > s.opts.MaxFileSize {
		return apperrors.Newf(apperrors.ErrorTypeFileTooLarge,
			"file too large: %d bytes (max: %d bytes)", len(data), s.opts.MaxFileSize)
	}
	return nil
}

func readFirstTable(file []byte) (docx.Table, error) {
	doc, err := docx.Read(file)
	if err != nil {
		return docx.Table{}, err
	}
	table, ok := doc.FirstTable()
	if !ok {
		return docx.Table{}, apperrors.New(apperrors.ErrorTypeInvalidDocument, "the document does not contain a table")
	}
	return table, nil
}

// dataRows skips the header row
func dataRows(t docx.Table) [][]string {
	if len(t.Rows) < 2 {
		return nil
	}
	return t.Rows[1:]
}

// searchTerms returns the trimmed, non-empty second-column cells of the
// data rows
func searchTerms(t docx.Table) []string {
	var terms []string
	for i := 1; i < len(t.Rows); i++ {
		if term := strings.TrimSpace(t.Cell(i, 1)); term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

func formatPages(pages []int) string {
	if len(pages) == 0 {
		return notFoundInPDF
	}
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, pageListSeparator)
}

func build(b *docx.Builder) ([]byte, error) {
	data, err := b.Bytes()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeInternal, "failed to write result document", err)
	}
	return data, nil
}
