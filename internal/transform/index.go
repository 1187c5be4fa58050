package transform

import (
	"regexp"
	"strings"

	apperrors "github.com/a3tai/docindex/internal/errors"
	"github.com/a3tai/docindex/internal/pattern"
)

// Decorator wraps the second part of an index entry.
type Decorator struct {
	Prefix string
	Suffix string
}

// ParseDecorator builds a Decorator from up to two characters: none leaves
// entries undecorated, one character is used on both sides, and with two or
// more the first opens and the second closes.
func ParseDecorator(chars string) Decorator {
	runes := []rune(chars)
	switch len(runes) {
	case 0:
		return Decorator{}
	case 1:
		return Decorator{Prefix: string(runes[0]), Suffix: string(runes[0])}
	default:
		return Decorator{Prefix: string(runes[0]), Suffix: string(runes[1])}
	}
}

// Format renders m as an index entry. It reports false for matches that
// yield no usable entry, such as a two-group match with an empty group.
func (d Decorator) Format(m pattern.Match) (string, bool) {
	switch m := m.(type) {
	case pattern.TwoGroups:
		first, second := strings.TrimSpace(m.First), strings.TrimSpace(m.Second)
		if first == "" || second == "" {
			return "", false
		}
		return first + d.Prefix + second + d.Suffix, true
	case pattern.OneGroup:
		item := strings.TrimSpace(m.Group)
		return item, item != ""
	case pattern.NoGroup:
		item := strings.TrimSpace(m.Text)
		return item, item != ""
	default:
		return "", false
	}
}

// ExtractIndex applies expr to text and returns the formatted entries in
// first-seen order without duplicates.
func ExtractIndex(text, expr, decorator string) ([]string, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeInvalidPattern, "the supplied regular expression is not valid", err)
	}

	matches := pattern.FindAll(re, text)
	if len(matches) == 0 {
		return nil, apperrors.New(apperrors.ErrorTypeNoMatch, "no content matched the regular expression")
	}

	d := ParseDecorator(decorator)
	seen := make(map[string]bool, len(matches))
	var entries []string
	for _, m := range matches {
		item, ok := d.Format(m)
		if !ok || seen[item] {
			continue
		}
		seen[item] = true
		entries = append(entries, item)
	}

	if len(entries) == 0 {
		return nil, apperrors.New(apperrors.ErrorTypeNoMatch, "no valid entries matched the regular expression")
	}
	return entries, nil
}
