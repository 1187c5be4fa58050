// Package pattern derives index-extraction regular expressions from an
// annotated sample and models the matches they produce.
package pattern

import (
	"regexp"
	"unicode"

	apperrors "github.com/a3tai/docindex/internal/errors"
)

const (
	// TermPattern matches the index term: up to 20 Hangul, Latin, digit,
	// whitespace or period characters. The bound is fixed, not taken from the
	// sample, so malformed documents cannot produce runaway matches.
	TermPattern = `[가-힣A-Za-z0-9\s.]{1,20}`

	// OriginalPattern matches one original-language term.
	OriginalPattern = `[A-Za-z0-9\s.\-()\x{00C0}-\x{017F}\x{4E00}-\x{9FFF}]+`
)

// MalformedSampleMessage is returned to callers whose sample cannot be parsed.
const MalformedSampleMessage = "sample must have the form <term><symbol><original><symbol>, e.g. 라몬즈+Ramones+"

// Sample is an annotated example entry split into its parts.
type Sample struct {
	Term      string
	Original  string
	Delimiter rune
}

// ParseSample splits sample into term, delimiter and original-language part.
//
// The accepted shape is: optional whitespace, a non-empty term, optional
// whitespace, a delimiter (any character that is not Hangul, a Latin letter,
// a digit or whitespace), the original part (possibly empty), the same
// delimiter again and optional trailing whitespace. Neither part may span a
// line break. The shortest term that yields a valid split wins; when no term
// fits after the leading whitespace, that whitespace is given back to the
// term one character at a time, so "  ++" has the term " ".
func ParseSample(sample string) (Sample, error) {
	runes := []rune(sample)

	last := len(runes) - 1
	for last >= 0 && isSpace(runes[last]) {
		last--
	}
	lead := 0
	for lead < len(runes) && isSpace(runes[lead]) {
		lead++
	}
	if last < 0 || !isDelimiter(runes[last]) {
		return Sample{}, apperrors.New(apperrors.ErrorTypeMalformedSample, MalformedSampleMessage)
	}
	closing := runes[last]

	// next[i] is the first non-whitespace index at or after i
	next := make([]int, last+2)
	next[last+1] = last + 1
	for i := last; i >= 0; i-- {
		next[i] = i
		if isSpace(runes[i]) {
			next[i] = next[i+1]
		}
	}

	split := func(start, termEnd int) (Sample, bool) {
		open := next[termEnd]
		if open >= last || runes[open] != closing {
			return Sample{}, false
		}
		original := runes[open+1 : last]
		if containsRune(original, '\n') {
			return Sample{}, false
		}
		return Sample{
			Term:      string(runes[start:termEnd]),
			Original:  string(original),
			Delimiter: closing,
		}, true
	}

	for termEnd := lead + 1; termEnd < last; termEnd++ {
		if runes[termEnd-1] == '\n' {
			break
		}
		if parsed, ok := split(lead, termEnd); ok {
			return parsed, nil
		}
	}

	// A term made of leading whitespace: the last non-newline whitespace
	// character before the first delimiter.
	for start := lead - 1; start >= 0; start-- {
		if runes[start] == '\n' {
			continue
		}
		if parsed, ok := split(start, start+1); ok {
			return parsed, nil
		}
		break
	}

	return Sample{}, apperrors.New(apperrors.ErrorTypeMalformedSample, MalformedSampleMessage)
}

// Derive builds a two-group regular expression that matches entries shaped
// like sample anywhere in a text. Only the delimiter comes from the sample;
// both group patterns are fixed.
func Derive(sample string) (string, error) {
	parsed, err := ParseSample(sample)
	if err != nil {
		return "", err
	}
	return Build(parsed.Delimiter), nil
}

// Build returns the derived pattern for the given delimiter.
func Build(delimiter rune) string {
	d := regexp.QuoteMeta(string(delimiter))
	original := OriginalPattern + `(?:,\s*` + OriginalPattern + `)*`
	return "(" + TermPattern + ")" + d + "(" + original + ")" + d
}

// isDelimiter reports whether r may separate the parts of a sample.
func isDelimiter(r rune) bool {
	switch {
	case r >= '가' && r <= '힣':
		return false
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case isSpace(r):
		return false
	}
	return true
}

// isSpace also counts the file, group, record and unit separators as
// whitespace.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

func containsRune(runes []rune, target rune) bool {
	for _, r := range runes {
		if r == target {
			return true
		}
	}
	return false
}
