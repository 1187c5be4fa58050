// Package pdftest builds small PDF documents for tests.
package pdftest

import (
	"fmt"
	"strings"
)

// Generate returns a PDF with one page per argument. Each page shows its
// lines of text in Helvetica; an empty string yields a page without text.
// Only characters representable in WinAnsiEncoding survive extraction.
func Generate(pages ...string) []byte {
	var (
		b       strings.Builder
		offsets []int
	)

	obj := func(body string) {
		offsets = append(offsets, b.Len())
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	b.WriteString("%PDF-1.4\n")

	// 1: catalog, 2: page tree, 3: font, then page and content pairs
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	obj("<<\n/Type /Catalog\n/Pages 2 0 R\n>>")
	obj(fmt.Sprintf("<<\n/Type /Pages\n/Kids [%s]\n/Count %d\n>>", strings.Join(kids, " "), len(pages)))
	obj("<<\n/Type /Font\n/Subtype /Type1\n/BaseFont /Helvetica\n/Encoding /WinAnsiEncoding\n>>")

	for i, text := range pages {
		obj(fmt.Sprintf("<<\n/Type /Page\n/Parent 2 0 R\n/MediaBox [0 0 612 792]\n/Contents %d 0 R\n"+
			"/Resources <<\n/Font <<\n/F1 3 0 R\n>>\n>>\n>>", 5+2*i))

		content := contentStream(text)
		obj(fmt.Sprintf("<<\n/Length %d\n>>\nstream\n%sendstream", len(content), content))
	}

	xrefStart := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<<\n/Size %d\n/Root 1 0 R\n>>\nstartxref\n%d\n", len(offsets)+1, xrefStart)
	b.WriteString("%%EOF")

	return []byte(b.String())
}

func contentStream(text string) string {
	if text == "" {
		return "q Q\n"
	}

	var b strings.Builder
	b.WriteString("BT\n/F1 12 Tf\n14 TL\n72 720 Td\n")
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteString("T*\n")
		}
		fmt.Fprintf(&b, "(%s) Tj\n", escape(line))
	}
	b.WriteString("ET\n")
	return b.String()
}

var escaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)

func escape(s string) string {
	return escaper.Replace(s)
}
