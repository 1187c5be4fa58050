package pdf

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/a3tai/docindex/internal/pdf/pagerange"
)

// Locations maps each search term to the ascending page numbers it occurs on
type Locations map[string][]int

// Pages returns the pages term was found on
func (l Locations) Pages(term string) []int {
	return l[term]
}

// Found reports whether term occurs on any page
func (l Locations) Found(term string) bool {
	return len(l[term]) > 0
}

// Normalize removes all whitespace, so that line wraps and spacing
// introduced by text extraction do not affect matching.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// NormalizeNFC composes s to Unicode NFC before removing whitespace
func NormalizeNFC(s string) string {
	return Normalize(norm.NFC.String(s))
}

// LocateOption configures Locate
type LocateOption func(*locateConfig)

type locateConfig struct {
	normalize func(string) string
}

// WithUnicodeComposition compares terms and page text in NFC form, so
// decomposed and precomposed characters match each other. A term then no
// longer matches the base letter of a composed character.
func WithUnicodeComposition(enabled bool) LocateOption {
	return func(c *locateConfig) {
		if enabled {
			c.normalize = NormalizeNFC
		}
	}
}

// Locate finds the pages of src on which each term occurs. Terms and page
// text are compared after Normalize, as substrings. Only pages selected by
// r are scanned; an out-of-bounds r scans every page. Every term is present
// in the result, with an empty list when it was not found.
func Locate(ctx context.Context, terms []string, src PageSource, r pagerange.PageRange, opts ...LocateOption) (Locations, error) {
	cfg := locateConfig{normalize: Normalize}
	for _, opt := range opts {
		opt(&cfg)
	}

	normalized := make(map[string]string, len(terms))
	result := make(Locations, len(terms))
	for _, term := range terms {
		normalized[term] = cfg.normalize(term)
		result[term] = []int{}
	}

	for _, page := range r.Pages(src.NumPages()) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := src.PageText(page)
		if err != nil {
			return nil, err
		}
		pageText := cfg.normalize(text)
		if pageText == "" {
			continue
		}

		for term, needle := range normalized {
			found := result[term]
			if !strings.Contains(pageText, needle) {
				continue
			}
			if len(found) > 0 && found[len(found)-1] == page {
				continue
			}
			result[term] = append(found, page)
		}
	}

	for _, pages := range result {
		sort.Ints(pages)
	}
	return result, nil
}
