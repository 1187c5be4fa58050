// Package transform holds the text transforms applied to document content:
// name reformatting, Korean extraction, index de-duplication and table
// consolidation. All functions are pure.
package transform

import (
	"regexp"
	"strings"
)

// NameMarker prefixes the lines that ReformatName rewrites.
const NameMarker = "*"

// nameLine splits a marked line into its Hangul run and the Latin run that
// follows it.
var nameLine = regexp.MustCompile(`^([가-힣\s]+)([A-Za-z\s-]+)`)

// ReformatName rewrites a "*<Hangul name> <Latin name>" line so that each
// name is written family-name first: "*홍 길동 Gil-dong Hong" becomes
// "길동, 홍Hong, Gil-dong". It reports false when the line is not marked or
// does not contain both runs.
func ReformatName(line string) (string, bool) {
	if !strings.HasPrefix(line, NameMarker) {
		return "", false
	}

	text := strings.TrimSpace(strings.TrimLeft(line, NameMarker))
	m := nameLine.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}

	korean := reorderName(strings.TrimSpace(m[1]))
	latin := reorderName(strings.TrimSpace(m[2]))
	return korean + latin, true
}

// reorderName moves the last space-separated token to the front:
// "Gil-dong Hong" becomes "Hong, Gil-dong". Single-token names are unchanged.
func reorderName(name string) string {
	tokens := strings.Fields(name)
	if len(tokens) < 2 {
		return name
	}
	last := tokens[len(tokens)-1]
	return last + ", " + strings.Join(tokens[:len(tokens)-1], " ")
}
