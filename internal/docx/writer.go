package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const (
	// TableGridStyle is the bordered table style applied to generated tables
	TableGridStyle = "TableGrid"

	// textWidth is the usable A4 page width in twentieths of a point
	textWidth = 9026
)

// TableOptions controls how AddTable renders a table
type TableOptions struct {
	// Columns is the number of grid columns; rows are padded to it.
	// Zero means the length of the longest row.
	Columns int
	// BoldHeader renders the first row in bold
	BoldHeader bool
}

// Builder assembles a new Word document block by block
type Builder struct {
	blocks []*etree.Element
}

// NewBuilder creates an empty document builder
func NewBuilder() *Builder {
	return &Builder{}
}

// AddHeading appends a heading paragraph. Levels outside 1-3 are clamped.
func (b *Builder) AddHeading(text string, level int) {
	level = min(max(level, 1), 3)
	b.blocks = append(b.blocks, newParagraph(text, "Heading"+strconv.Itoa(level), false))
}

// AddParagraph appends a plain paragraph
func (b *Builder) AddParagraph(text string) {
	b.blocks = append(b.blocks, newParagraph(text, "", false))
}

// AddTable appends a bordered table
func (b *Builder) AddTable(rows [][]string, opts TableOptions) {
	columns := opts.Columns
	for _, row := range rows {
		columns = max(columns, len(row))
	}
	if columns == 0 {
		return
	}

	tbl := etree.NewElement("w:tbl")
	tblPr := tbl.CreateElement("w:tblPr")
	tblPr.CreateElement("w:tblStyle").CreateAttr("w:val", TableGridStyle)
	tblW := tblPr.CreateElement("w:tblW")
	tblW.CreateAttr("w:w", "0")
	tblW.CreateAttr("w:type", "auto")
	tblPr.CreateElement("w:tblLook").CreateAttr("w:val", "04A0")

	width := strconv.Itoa(textWidth / columns)
	grid := tbl.CreateElement("w:tblGrid")
	for i := 0; i < columns; i++ {
		grid.CreateElement("w:gridCol").CreateAttr("w:w", width)
	}

	for i, row := range rows {
		tr := tbl.CreateElement("w:tr")
		bold := opts.BoldHeader && i == 0
		for col := 0; col < columns; col++ {
			text := ""
			if col < len(row) {
				text = row[col]
			}
			tc := tr.CreateElement("w:tc")
			tcW := tc.CreateElement("w:tcPr").CreateElement("w:tcW")
			tcW.CreateAttr("w:w", width)
			tcW.CreateAttr("w:type", "dxa")
			tc.AddChild(newParagraph(text, "", bold))
		}
	}

	b.blocks = append(b.blocks, tbl)
}

// WriteTo writes the document as a .docx package
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	documentXML, err := b.documentXML()
	if err != nil {
		return cw.n, err
	}

	parts := []struct {
		name    string
		content []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(packageRelsXML)},
		{"word/_rels/document.xml.rels", []byte(documentRelsXML)},
		{"word/styles.xml", []byte(stylesXML)},
		{"word/document.xml", documentXML},
	}
	for _, part := range parts {
		fw, err := zw.Create(part.name)
		if err != nil {
			return cw.n, fmt.Errorf("create %s: %w", part.name, err)
		}
		if _, err := fw.Write(part.content); err != nil {
			return cw.n, fmt.Errorf("write %s: %w", part.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("finish docx package: %w", err)
	}
	return cw.n, nil
}

// Bytes returns the document as a .docx package
func (b *Builder) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := b.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (b *Builder) documentXML() ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := doc.CreateElement("w:document")
	root.CreateAttr("xmlns:w", nsMain)
	root.CreateAttr("xmlns:r", nsRelationships)
	body := root.CreateElement("w:body")

	for _, block := range b.blocks {
		body.AddChild(block.Copy())
	}

	sectPr := body.CreateElement("w:sectPr")
	pgSz := sectPr.CreateElement("w:pgSz")
	pgSz.CreateAttr("w:w", "11906")
	pgSz.CreateAttr("w:h", "16838")
	pgMar := sectPr.CreateElement("w:pgMar")
	for _, side := range [][2]string{
		{"w:top", "1440"}, {"w:right", "1440"}, {"w:bottom", "1440"}, {"w:left", "1440"},
		{"w:header", "708"}, {"w:footer", "708"}, {"w:gutter", "0"},
	} {
		pgMar.CreateAttr(side[0], side[1])
	}

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("render document.xml: %w", err)
	}
	return out, nil
}

// newParagraph builds a paragraph with a single run. Newlines become line
// breaks and tabs become tab characters.
func newParagraph(text, style string, bold bool) *etree.Element {
	p := etree.NewElement("w:p")
	if style != "" {
		p.CreateElement("w:pPr").CreateElement("w:pStyle").CreateAttr("w:val", style)
	}
	if text == "" {
		return p
	}

	r := p.CreateElement("w:r")
	if bold {
		r.CreateElement("w:rPr").CreateElement("w:b")
	}
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			r.CreateElement("w:br")
		}
		for j, segment := range strings.Split(line, "\t") {
			if j > 0 {
				r.CreateElement("w:tab")
			}
			if segment == "" {
				continue
			}
			t := r.CreateElement("w:t")
			t.CreateAttr("xml:space", "preserve")
			t.SetText(segment)
		}
	}
	return p
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
