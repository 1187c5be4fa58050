package transform

import (
	"sort"
	"strings"
)

// DefaultSeparator joins the two fields of a consolidated line.
const DefaultSeparator = "    "

// MinConsolidateColumns is the number of columns ConsolidateRows reads.
const MinConsolidateColumns = 4

// ConsolidateRows turns the data rows of a 4+-column table into lines. The
// first row is a header and is skipped. For each row the second column is
// used when the third is empty, otherwise the third; either way it is joined
// with the fourth column by sep. Rows with an empty second column or fewer
// than four cells are skipped. The result is de-duplicated and sorted by
// code point.
func ConsolidateRows(rows [][]string, sep string) []string {
	if len(rows) < 2 {
		return nil
	}

	seen := make(map[string]bool)
	var lines []string
	for _, row := range rows[1:] {
		if len(row) < MinConsolidateColumns {
			continue
		}
		second := strings.TrimSpace(row[1])
		third := strings.TrimSpace(row[2])
		fourth := strings.TrimSpace(row[3])

		var line string
		switch {
		case second != "" && third == "":
			line = second + sep + fourth
		case second != "" && third != "":
			line = third + sep + fourth
		default:
			continue
		}

		if !seen[line] {
			seen[line] = true
			lines = append(lines, line)
		}
	}

	sort.Strings(lines)
	return lines
}
