// Package docx reads paragraphs and tables from Word documents and builds
// new ones.
//
// Only the main document part is read. Body-level paragraphs and tables are
// kept in document order; text inside tables is not repeated in Paragraphs.
package docx

import "strings"

// ContentType is the MIME type of a .docx file
const ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Extension is the file extension of generated documents
const Extension = ".docx"

const (
	nsMain          = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// Paragraph is a body-level paragraph
type Paragraph struct {
	Text string
}

// Table is a body-level table. Rows hold the text of every cell; a cell
// spanning several grid columns appears once per spanned column, and a
// vertically merged cell repeats the text of the cell that starts the merge.
type Table struct {
	Rows    [][]string
	Columns int
}

// Document is the readable content of a Word document
type Document struct {
	Paragraphs []Paragraph
	Tables     []Table
}

// Text returns the text of all body paragraphs joined by newlines
func (d *Document) Text() string {
	lines := make([]string, len(d.Paragraphs))
	for i, p := range d.Paragraphs {
		lines[i] = p.Text
	}
	return strings.Join(lines, "\n")
}

// FirstTable returns the first table of the document
func (d *Document) FirstTable() (Table, bool) {
	if len(d.Tables) == 0 {
		return Table{}, false
	}
	return d.Tables[0], true
}

// Cell returns the text of a cell, or "" when the row is shorter
func (t Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}
