package pattern

import (
	"regexp"
)

// Match is one regular expression match, shaped by the number of capture
// groups in the pattern that produced it. It is one of NoGroup, OneGroup or
// TwoGroups.
type Match interface {
	isMatch()
}

// NoGroup is a match of a pattern without capture groups.
type NoGroup struct {
	Text string
}

// OneGroup is a match of a pattern with exactly one capture group.
type OneGroup struct {
	Group string
}

// TwoGroups is a match of a pattern with two or more capture groups. Groups
// after the second are ignored.
type TwoGroups struct {
	First  string
	Second string
}

func (NoGroup) isMatch()   {}
func (OneGroup) isMatch()  {}
func (TwoGroups) isMatch() {}

// FindAll returns every non-overlapping match of re in text, in order.
// Groups that did not participate in a match are empty strings.
func FindAll(re *regexp.Regexp, text string) []Match {
	groups := re.NumSubexp()
	found := re.FindAllStringSubmatch(text, -1)

	matches := make([]Match, 0, len(found))
	for _, m := range found {
		switch {
		case groups == 0:
			matches = append(matches, NoGroup{Text: m[0]})
		case groups == 1:
			matches = append(matches, OneGroup{Group: m[1]})
		default:
			matches = append(matches, TwoGroups{First: m[1], Second: m[2]})
		}
	}
	return matches
}
