// Package tasks runs the document processing jobs behind the HTTP API. Each
// task reads uploaded documents and produces a new Word document; the
// input is never modified and no partial output is returned on failure.
package tasks

import (
	"context"
	"strings"

	"github.com/a3tai/docindex/internal/docx"
	apperrors "github.com/a3tai/docindex/internal/errors"
)

// TaskID identifies a processing task. The identifiers are the tab names of
// the web client.
type TaskID string

const (
	// TaskExtractIndex extracts index entries from a document with a pattern
	TaskExtractIndex TaskID = "tab1"
	// TaskReformatNames rewrites marked name lines family-name first
	TaskReformatNames TaskID = "tab2"
	// TaskExtractKorean pulls the Hangul text out of an index table
	TaskExtractKorean TaskID = "tab3"
	// TaskLocatePages finds the PDF pages of each term in an index table
	TaskLocatePages TaskID = "tab4"
	// TaskConsolidateTable turns a four-column table into sorted lines
	TaskConsolidateTable TaskID = "tab5"
)

// Form field names read by the tasks
const (
	FieldFile      = "file"
	FieldRegex     = "regex"
	FieldDecorator = "decorator"
	FieldPDF       = "pdf_file"
	FieldDocx      = "docx_file"
	FieldPageRange = "page_range"
)

// Document labels written into generated documents
const (
	headingIndexList     = "추출된 색인 목록"
	headingPageAnalysis  = "PDF 색인 분석 결과"
	headingConsolidation = "테이블 정리 결과 (가나다순 정렬)"

	headerOriginal       = "원본 내용"
	headerChanged        = "변경 내용"
	headerOriginalNoMark = "원본 내용 (*제거)"
	headerKorean         = "한글 추출"
	headerPages          = "페이지"
	notFoundInPDF        = "PDF에서 찾을 수 없음"
	pageListSeparator    = ", "
)

// All lists every task in order
var All = []TaskID{
	TaskExtractIndex,
	TaskReformatNames,
	TaskExtractKorean,
	TaskLocatePages,
	TaskConsolidateTable,
}

// ParseTaskID validates a task identifier
func ParseTaskID(s string) (TaskID, error) {
	id := TaskID(strings.TrimSpace(s))
	for _, known := range All {
		if id == known {
			return id, nil
		}
	}
	return "", apperrors.Newf(apperrors.ErrorTypeUnknownTask, "unknown task %q", s)
}

// ResultFilename is the download name of the task's output document
func (id TaskID) ResultFilename() string {
	return "result_" + string(id) + docx.Extension
}

// Input carries the uploaded files and form values of a task request
type Input struct {
	Files  map[string][]byte
	Fields map[string]string
}

// File returns an uploaded file, or false when it is missing or empty
func (in Input) File(name string) ([]byte, bool) {
	data, ok := in.Files[name]
	return data, ok && len(data) > 0
}

// Field returns a form value, or "" when absent
func (in Input) Field(name string) string {
	return in.Fields[name]
}

// Processor runs tasks
type Processor interface {
	// GenerateRegex derives an index pattern from a sample entry
	GenerateRegex(ctx context.Context, sample string) (string, error)
	// Process runs a task and returns the generated .docx file
	Process(ctx context.Context, id TaskID, in Input) ([]byte, error)
}
