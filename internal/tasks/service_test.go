package tasks

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/docindex/internal/docx"
	apperrors "github.com/a3tai/docindex/internal/errors"
	"github.com/a3tai/docindex/internal/pdf/pdftest"
)

func newTestService() *Service {
	return NewService(Options{MaxFileSize: 1024 * 1024})
}

func paragraphsDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	b := docx.NewBuilder()
	for _, p := range paragraphs {
		b.AddParagraph(p)
	}
	data, err := b.Bytes()
	require.NoError(t, err)
	return data
}

func tableDocx(t *testing.T, rows [][]string) []byte {
	t.Helper()
	b := docx.NewBuilder()
	b.AddParagraph("색인")
	b.AddTable(rows, docx.TableOptions{BoldHeader: true})
	data, err := b.Bytes()
	require.NoError(t, err)
	return data
}

func readResult(t *testing.T, data []byte) *docx.Document {
	t.Helper()
	doc, err := docx.Read(data)
	require.NoError(t, err)
	return doc
}

func paragraphTexts(doc *docx.Document) []string {
	texts := make([]string, len(doc.Paragraphs))
	for i, p := range doc.Paragraphs {
		texts[i] = p.Text
	}
	return texts
}

func TestParseTaskID(t *testing.T) {
	for _, id := range All {
		got, err := ParseTaskID(string(id))
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}

	_, err := ParseTaskID("tab6")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeUnknownTask))

	assert.Equal(t, "result_tab4.docx", TaskLocatePages.ResultFilename())
}

func TestService_GenerateRegex(t *testing.T) {
	s := newTestService()

	regex, err := s.GenerateRegex(context.Background(), "라몬즈+Ramones+")
	require.NoError(t, err)
	assert.Contains(t, regex, `\+`)

	_, err = s.GenerateRegex(context.Background(), "A+B-")
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeMalformedSample))

	_, err = s.GenerateRegex(context.Background(), " ")
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeMissingInput))
}

func TestService_ExtractIndex(t *testing.T) {
	s := newTestService()
	regex, err := s.GenerateRegex(context.Background(), "라몬즈+Ramones+")
	require.NoError(t, err)

	file := paragraphsDocx(t,
		"라몬즈+Ramones+",
		"섹스 피스톨즈+Sex Pistols+",
		"라몬즈+Ramones+",
		"색인 없는 문단",
	)

	out, err := s.Process(context.Background(), TaskExtractIndex, Input{
		Files:  map[string][]byte{FieldFile: file},
		Fields: map[string]string{FieldRegex: regex, FieldDecorator: "()"},
	})
	require.NoError(t, err)

	doc := readResult(t, out)
	require.NotEmpty(t, doc.Paragraphs)
	assert.Equal(t, headingIndexList, doc.Paragraphs[0].Text)
	assert.Equal(t, []string{"라몬즈(Ramones)", "섹스 피스톨즈(Sex Pistols)"}, paragraphTexts(doc)[1:])
}

func TestService_ExtractIndex_Errors(t *testing.T) {
	s := newTestService()
	file := paragraphsDocx(t, "nothing to see")

	tests := []struct {
		name     string
		in       Input
		wantType apperrors.ErrorType
	}{
		{
			name:     "missing file",
			in:       Input{Fields: map[string]string{FieldRegex: `x`}},
			wantType: apperrors.ErrorTypeMissingInput,
		},
		{
			name:     "missing regex",
			in:       Input{Files: map[string][]byte{FieldFile: file}},
			wantType: apperrors.ErrorTypeMissingInput,
		},
		{
			name: "invalid regex",
			in: Input{
				Files:  map[string][]byte{FieldFile: file},
				Fields: map[string]string{FieldRegex: `([a-z]`},
			},
			wantType: apperrors.ErrorTypeInvalidPattern,
		},
		{
			name: "no match",
			in: Input{
				Files:  map[string][]byte{FieldFile: file},
				Fields: map[string]string{FieldRegex: `\d+`},
			},
			wantType: apperrors.ErrorTypeNoMatch,
		},
		{
			name: "not a docx",
			in: Input{
				Files:  map[string][]byte{FieldFile: []byte("plain text")},
				Fields: map[string]string{FieldRegex: `x`},
			},
			wantType: apperrors.ErrorTypeInvalidDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Process(context.Background(), TaskExtractIndex, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.wantType, apperrors.TypeOf(err))
		})
	}
}

func TestService_ReformatNames(t *testing.T) {
	s := newTestService()
	file := paragraphsDocx(t, "*홍 길동 Gil-dong Hong", "", "   ", "일반 문단")

	out, err := s.Process(context.Background(), TaskReformatNames, Input{
		Files: map[string][]byte{FieldFile: file},
	})
	require.NoError(t, err)

	table, ok := readResult(t, out).FirstTable()
	require.True(t, ok)
	assert.Equal(t, [][]string{
		{headerOriginal, headerChanged},
		{"*홍 길동 Gil-dong Hong", "길동, 홍Hong, Gil-dong"},
		{"일반 문단", ""},
	}, table.Rows)
}

func TestService_ExtractKoreanTable(t *testing.T) {
	s := newTestService()
	file := tableDocx(t, [][]string{
		{"원어", "변경"},
		{"*라몬즈 Ramones", "Ramones, The"},
		{"비틀스(The Beatles)", ""},
	})

	out, err := s.Process(context.Background(), TaskExtractKorean, Input{
		Files: map[string][]byte{FieldFile: file},
	})
	require.NoError(t, err)

	table, ok := readResult(t, out).FirstTable()
	require.True(t, ok)
	assert.Equal(t, [][]string{
		{headerOriginalNoMark, headerKorean, headerChanged},
		{"라몬즈 Ramones", "라몬즈", "Ramones, The"},
		{"비틀스(The Beatles)", "비틀스", ""},
	}, table.Rows)
}

func TestService_ExtractKoreanTable_NoTable(t *testing.T) {
	_, err := newTestService().ExtractKoreanTable(context.Background(), paragraphsDocx(t, "no table"))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeInvalidDocument))
}

func TestService_LocatePages(t *testing.T) {
	s := newTestService()
	pdfData := pdftest.Generate(
		"The Ramones played first.",
		"",
		"Then the Sex Pistols.",
		"Ramones again",
	)
	index := tableDocx(t, [][]string{
		{"번호", "원어"},
		{"1", "Ramones"},
		{"2", "Sex  Pistols"},
		{"3", "Clash"},
		{"4", ""},
	})

	tests := []struct {
		name      string
		pageRange string
		want      []string
	}{
		{"all pages", "", []string{"1, 4", "3", notFoundInPDF, notFoundInPDF}},
		{"range", "2-3", []string{notFoundInPDF, "3", notFoundInPDF, notFoundInPDF}},
		{"reversed range searches everything", "4-2", []string{"1, 4", "3", notFoundInPDF, notFoundInPDF}},
		{"garbage range searches everything", "first-last", []string{"1, 4", "3", notFoundInPDF, notFoundInPDF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := s.Process(context.Background(), TaskLocatePages, Input{
				Files:  map[string][]byte{FieldPDF: pdfData, FieldDocx: index},
				Fields: map[string]string{FieldPageRange: tt.pageRange},
			})
			require.NoError(t, err)

			doc := readResult(t, out)
			assert.Equal(t, headingPageAnalysis, doc.Paragraphs[0].Text)

			table, ok := doc.FirstTable()
			require.True(t, ok)
			require.Len(t, table.Rows, 5)
			assert.Equal(t, 3, table.Columns)
			assert.Equal(t, []string{"번호", "원어", headerPages}, table.Rows[0])
			assert.Equal(t, []string{"1", "Ramones", tt.want[0]}, table.Rows[1])

			got := make([]string, 0, 4)
			for _, row := range table.Rows[1:] {
				got = append(got, row[2])
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_LocatePages_NoSizeLimit(t *testing.T) {
	s := NewService(Options{})
	index := tableDocx(t, [][]string{{"번호", "원어"}, {"1", "Ramones"}})

	out, err := s.Process(context.Background(), TaskLocatePages, Input{
		Files: map[string][]byte{FieldPDF: pdftest.Generate("Ramones"), FieldDocx: index},
	})
	require.NoError(t, err)

	table, ok := readResult(t, out).FirstTable()
	require.True(t, ok)
	assert.Equal(t, []string{"1", "Ramones", "1"}, table.Rows[1])
}

func TestService_LocatePages_StrictRange(t *testing.T) {
	s := NewService(Options{MaxFileSize: 1024 * 1024, StrictPageRange: true})
	index := tableDocx(t, [][]string{{"번호", "원어"}, {"1", "Ramones"}})

	_, err := s.LocatePages(context.Background(), pdftest.Generate("Ramones", "Ramones"), index, "2-9")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeInvalidPageRange))
}

func TestService_LocatePages_Errors(t *testing.T) {
	s := newTestService()
	pdfData := pdftest.Generate("Ramones")

	tests := []struct {
		name     string
		in       Input
		wantType apperrors.ErrorType
	}{
		{
			name:     "missing pdf",
			in:       Input{Files: map[string][]byte{FieldDocx: tableDocx(t, [][]string{{"a", "b"}, {"1", "x"}})}},
			wantType: apperrors.ErrorTypeMissingInput,
		},
		{
			name: "no terms",
			in: Input{Files: map[string][]byte{
				FieldPDF:  pdfData,
				FieldDocx: tableDocx(t, [][]string{{"a", "b"}, {"1", " "}}),
			}},
			wantType: apperrors.ErrorTypeMissingInput,
		},
		{
			name: "no table",
			in: Input{Files: map[string][]byte{
				FieldPDF:  pdfData,
				FieldDocx: paragraphsDocx(t, "Ramones"),
			}},
			wantType: apperrors.ErrorTypeInvalidDocument,
		},
		{
			name: "broken pdf",
			in: Input{Files: map[string][]byte{
				FieldPDF:  []byte("%PDF-1.4 broken"),
				FieldDocx: tableDocx(t, [][]string{{"a", "b"}, {"1", "x"}}),
			}},
			wantType: apperrors.ErrorTypeInvalidDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Process(context.Background(), TaskLocatePages, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.wantType, apperrors.TypeOf(err))
		})
	}
}

func TestService_ConsolidateTable(t *testing.T) {
	s := newTestService()
	file := tableDocx(t, [][]string{
		{"번호", "용어", "변경", "원어"},
		{"1", "비틀스", "", "The Beatles"},
		{"2", "라몬즈", "라몬스", "Ramones"},
		{"3", "", "무시", "ignored"},
		{"4", "비틀스", "", "The Beatles"},
		{"5", "Blur", "", "Blur"},
	})

	out, err := s.Process(context.Background(), TaskConsolidateTable, Input{
		Files: map[string][]byte{FieldFile: file},
	})
	require.NoError(t, err)

	doc := readResult(t, out)
	assert.Equal(t, []string{
		headingConsolidation,
		"Blur    Blur",
		"라몬스    Ramones",
		"비틀스    The Beatles",
	}, paragraphTexts(doc))
}

func TestService_ConsolidateTable_CustomSeparator(t *testing.T) {
	s := NewService(Options{MaxFileSize: 1024 * 1024, TableSeparator: " | "})
	file := tableDocx(t, [][]string{{"a", "b", "c", "d"}, {"1", "용어", "", "term"}})

	out, err := s.ConsolidateTable(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, []string{headingConsolidation, "용어 | term"}, paragraphTexts(readResult(t, out)))
}

func TestService_ConsolidateTable_Errors(t *testing.T) {
	s := newTestService()

	_, err := s.ConsolidateTable(context.Background(), tableDocx(t, [][]string{{"a", "b", "c"}, {"1", "2", "3"}}))
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeInsufficientColumns))

	_, err = s.ConsolidateTable(context.Background(), tableDocx(t, [][]string{{"a", "b", "c", "d"}, {"1", "", "x", "y"}}))
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNoMatch))
}

func TestService_FileTooLarge(t *testing.T) {
	s := NewService(Options{MaxFileSize: 10})

	_, err := s.Process(context.Background(), TaskReformatNames, Input{
		Files: map[string][]byte{FieldFile: bytes.Repeat([]byte("x"), 11)},
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeFileTooLarge))
}

func TestService_UnknownTask(t *testing.T) {
	_, err := newTestService().Process(context.Background(), TaskID("tab9"), Input{})
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeUnknownTask))
}

func TestLoggingProcessor(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	p := NewLoggingProcessor(newTestService(), logger)

	_, err := p.GenerateRegex(context.Background(), "라몬즈+Ramones+")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "generate regex")

	buf.Reset()
	_, err = p.Process(context.Background(), TaskConsolidateTable, Input{
		Files: map[string][]byte{FieldFile: paragraphsDocx(t, "no table")},
	})
	require.Error(t, err)
	assert.Contains(t, buf.String(), "task=tab5")
	assert.Contains(t, buf.String(), "error_type=INVALID_DOCUMENT")
	assert.Contains(t, buf.String(), "level=INFO")
}
