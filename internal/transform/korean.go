package transform

import (
	"regexp"
	"strings"
)

var hangulRun = regexp.MustCompile(`[가-힣]+`)

// ExtractKorean returns every maximal run of Hangul syllables in text,
// joined by single spaces.
func ExtractKorean(text string) string {
	return strings.Join(hangulRun.FindAllString(text, -1), " ")
}
