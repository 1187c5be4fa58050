package docx

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/nguyenthenguyen/docx"

	apperrors "github.com/a3tai/docindex/internal/errors"
)

// Read parses a .docx file held in memory
func Read(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, apperrors.New(apperrors.ErrorTypeInvalidDocument, "the uploaded DOCX file is empty")
	}

	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeInvalidDocument, "the uploaded file is not a valid DOCX document", err)
	}
	defer r.Close()

	return Parse(r.Editable().GetContent())
}

// Parse reads the content of a word/document.xml part
func Parse(documentXML string) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(documentXML); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeInvalidDocument, "the document body could not be parsed", err)
	}

	root := doc.Root()
	if root == nil || root.Tag != "document" {
		return nil, apperrors.New(apperrors.ErrorTypeInvalidDocument, "the document has no body")
	}
	body := firstChild(root, "body")
	if body == nil {
		return nil, apperrors.New(apperrors.ErrorTypeInvalidDocument, "the document has no body")
	}

	result := &Document{}
	for _, el := range body.ChildElements() {
		switch el.Tag {
		case "p":
			result.Paragraphs = append(result.Paragraphs, Paragraph{Text: paragraphText(el)})
		case "tbl":
			table, err := parseTable(el)
			if err != nil {
				return nil, err
			}
			result.Tables = append(result.Tables, table)
		}
	}

	return result, nil
}

func parseTable(tbl *etree.Element) (Table, error) {
	table := Table{}
	if grid := firstChild(tbl, "tblGrid"); grid != nil {
		table.Columns = len(children(grid, "gridCol"))
	}

	// text of the cell occupying each grid column in the previous row,
	// used to resolve vertical merges
	var above []string
	for _, tr := range children(tbl, "tr") {
		var row []string
		for _, tc := range children(tr, "tc") {
			text := cellText(tc)
			span := 1
			merged := false
			if tcPr := firstChild(tc, "tcPr"); tcPr != nil {
				if gs := firstChild(tcPr, "gridSpan"); gs != nil {
					n, err := spanValue(gs)
					if err != nil {
						return Table{}, err
					}
					if n > 1 {
						span = n
					}
				}
				if vm := firstChild(tcPr, "vMerge"); vm != nil && attrValue(vm, "val") != "restart" {
					merged = true
				}
			}
			for i := 0; i < span; i++ {
				col := len(row)
				if merged && col < len(above) {
					row = append(row, above[col])
				} else {
					row = append(row, text)
				}
			}
		}
		table.Rows = append(table.Rows, row)
		above = row
		if len(row) > table.Columns {
			table.Columns = len(row)
		}
	}

	return table, nil
}

func spanValue(el *etree.Element) (int, error) {
	n, err := strconv.Atoi(attrValue(el, "val"))
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrorTypeInvalidDocument, "a table cell has an invalid column span", err)
	}
	return n, nil
}

// cellText joins the paragraphs of a cell with newlines. Nested tables are
// not included.
func cellText(tc *etree.Element) string {
	var parts []string
	for _, p := range children(tc, "p") {
		parts = append(parts, paragraphText(p))
	}
	return strings.Join(parts, "\n")
}

func paragraphText(p *etree.Element) string {
	var sb strings.Builder
	collectText(p, &sb)
	return sb.String()
}

// collectText walks runs in document order, including runs nested in
// hyperlinks, smart tags and tracked insertions.
func collectText(el *etree.Element, sb *strings.Builder) {
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "pPr", "rPr", "del":
			// properties and deleted runs carry no visible text
		case "t":
			sb.WriteString(child.Text())
		case "tab":
			sb.WriteString("\t")
		case "br", "cr":
			sb.WriteString("\n")
		default:
			collectText(child, sb)
		}
	}
}

func children(el *etree.Element, tag string) []*etree.Element {
	var found []*etree.Element
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			found = append(found, child)
		}
	}
	return found
}

func firstChild(el *etree.Element, tag string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}

// attrValue returns the value of an attribute by local name, whatever its
// namespace prefix.
func attrValue(el *etree.Element, key string) string {
	for _, a := range el.Attr {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}
