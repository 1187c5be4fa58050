// Package pagerange parses the "start-end" page ranges callers use to limit
// a PDF search.
package pagerange

import (
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/a3tai/docindex/internal/errors"
)

var rangeSyntax = regexp.MustCompile(`^\s*(\d+)\s*-\s*(\d+)\s*$`)

// PageRange is an inclusive range of 1-based page numbers. The zero value
// selects every page.
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// All selects every page of a document
var All = PageRange{}

// IsAll reports whether r selects every page
func (r PageRange) IsAll() bool {
	return r == All
}

// Valid reports whether r fits a document of total pages: 1 ≤ start < end ≤ total
func (r PageRange) Valid(total int) bool {
	return r.Start >= 1 && r.Start < r.End && r.End <= total
}

// Pages lists the page numbers r selects in ascending order. A range that is
// not valid for total selects every page.
func (r PageRange) Pages(total int) []int {
	start, end := 1, total
	if r.Valid(total) {
		start, end = r.Start, r.End
	}
	if end < start {
		return nil
	}

	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}

// String formats r the way Parse reads it
func (r PageRange) String() string {
	if r.IsAll() {
		return "all"
	}
	return strconv.Itoa(r.Start) + "-" + strconv.Itoa(r.End)
}

// Parse reads a "start-end" range. Blank input yields All.
func Parse(s string) (PageRange, error) {
	if strings.TrimSpace(s) == "" {
		return All, nil
	}

	m := rangeSyntax.FindStringSubmatch(s)
	if m == nil {
		return All, apperrors.Newf(apperrors.ErrorTypeInvalidPageRange, "page range %q must look like start-end, e.g. 3-120", s)
	}

	start, err := strconv.Atoi(m[1])
	if err != nil {
		return All, apperrors.Wrap(apperrors.ErrorTypeInvalidPageRange, "page range start is out of bounds", err)
	}
	end, err := strconv.Atoi(m[2])
	if err != nil {
		return All, apperrors.Wrap(apperrors.ErrorTypeInvalidPageRange, "page range end is out of bounds", err)
	}

	return PageRange{Start: start, End: end}, nil
}

// Resolve parses s against a document of total pages. Unless strict is set,
// unparsable or out-of-bounds ranges fall back to All; in strict mode they
// are reported as errors.
func Resolve(s string, total int, strict bool) (PageRange, error) {
	r, err := Parse(s)
	if err != nil {
		if strict {
			return All, err
		}
		return All, nil
	}

	if r.IsAll() || r.Valid(total) {
		return r, nil
	}
	if strict {
		return All, apperrors.Newf(apperrors.ErrorTypeInvalidPageRange,
			"page range %s must satisfy 1 ≤ start < end ≤ %d", r, total)
	}
	return All, nil
}
