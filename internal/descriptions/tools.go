// Package descriptions holds the long-form descriptions of the MCP tools.
package descriptions

// Tool names
const (
	GenerateRegex = "generate_regex"
	ReformatName  = "reformat_name"
	ExtractKorean = "extract_korean"
	ExtractIndex  = "extract_index"
	LocateTerms   = "locate_terms"
	ListDocuments = "list_documents"
)

const (
	GenerateRegexDescription = `Derive the regular expression that finds index entries shaped like a sample entry.

**When to use:** A manuscript marks index terms inline, e.g. 라몬즈+Ramones+, and you need a pattern for extract_index.

**Sample format:** <term><symbol><original><symbol>. The symbol is any character that is not Hangul, a Latin letter, a digit or whitespace, and both symbols must be the same.

**Examples:**
• "라몬즈+Ramones+" gives a pattern with the delimiter \+
• "공자/Confucius, 孔子/" accepts several comma separated originals

**Returns:** the pattern. It always has two groups: the term and the original.`

	ReformatNameDescription = `Rewrite a marked name line so both names are written family-name first.

**When to use:** Building a name index from lines such as "*홍 길동 Gil-dong Hong".

**Examples:**
• "*홍 길동 Gil-dong Hong" becomes "길동, 홍Hong, Gil-dong"

**Notes:** Lines must start with '*' followed by a Hangul name and a Latin name. Other lines are rejected.`

	ExtractKoreanDescription = `Keep only the Hangul parts of a text.

**When to use:** Stripping originals, punctuation and page numbers from an index entry so it can be searched in the book PDF.

**Examples:**
• "라몬즈(Ramones) 12" becomes "라몬즈"
• "섹스 피스톨즈 Sex Pistols" becomes "섹스 피스톨즈"`

	ExtractIndexDescription = `Apply an index pattern to a text and list each entry once, in order of first appearance.

**When to use:** After generate_regex, to collect the index entries of a manuscript.

**Decorator:** up to two characters wrapped around the original term. "()" gives 라몬즈(Ramones), "+" gives 라몬즈+Ramones+, empty gives 라몬즈Ramones.

**Common workflows:**
1. generate_regex with a sample entry
2. extract_index with the manuscript text and the returned pattern
3. locate_terms with the extracted Korean terms`

	LocateTermsDescription = `Find the pages of a PDF on which each term occurs.

**When to use:** Filling in page numbers for an index once the final book PDF exists.

**Matching:** whitespace is ignored on both sides, so terms broken across lines are still found.

**Examples:**
• path "book.pdf", terms "라몬즈, 비틀스"
• path "book.pdf", terms one per line, page_range "3-120" to skip front matter

**Notes:** The PDF must be inside the document directory. Use list_documents to see what is available.`

	ListDocumentsDescription = `List the PDF files in the document directory.

**When to use:** Before locate_terms, to find the path of the book PDF.

**Notes:** Hidden files and symlinks are skipped. Large directories are truncated and the listing is cached for a few minutes; pass refresh to rescan.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	GenerateRegex: GenerateRegexDescription,
	ReformatName:  ReformatNameDescription,
	ExtractKorean: ExtractKoreanDescription,
	ExtractIndex:  ExtractIndexDescription,
	LocateTerms:   LocateTermsDescription,
	ListDocuments: ListDocumentsDescription,
}

// GetToolDescription returns the description of a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}
