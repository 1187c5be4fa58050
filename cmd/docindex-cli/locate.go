package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/a3tai/docindex/internal/config"
	"github.com/a3tai/docindex/internal/pdf"
	"github.com/a3tai/docindex/internal/pdf/pagerange"
)

var (
	locatePDF     string
	locateTerms   []string
	locateRange   string
	locateStrict  bool
	locateNFC     bool
	locateMaxSize int64
)

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Find the PDF pages on which each term occurs",
	Long: `Search a PDF for each term and list the pages it occurs on. Matching ignores
all whitespace, so terms broken across lines are still found.`,
	Example: `  docindex-cli locate --pdf book.pdf --terms 라몬즈,비틀스 --range 3-120`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(locatePDF)
		if err != nil {
			return err
		}

		doc, err := pdf.NewReader(locateMaxSize).Open(data)
		if err != nil {
			return err
		}

		rng, err := pagerange.Resolve(locateRange, doc.NumPages(), locateStrict)
		if err != nil {
			return err
		}

		var terms []string
		for _, term := range locateTerms {
			if term = strings.TrimSpace(term); term != "" {
				terms = append(terms, term)
			}
		}
		if len(terms) == 0 {
			return fmt.Errorf("at least one search term is required")
		}

		found, err := pdf.Locate(cmd.Context(), terms, doc, rng, pdf.WithUnicodeComposition(locateNFC))
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		printField(w, "PDF:", locatePDF)
		printField(w, "Pages:", fmt.Sprintf("%d (searched: %s)", doc.NumPages(), rng))

		lines := make([]string, 0, len(terms))
		for _, term := range terms {
			if !found.Found(term) {
				lines = append(lines, term+" "+errorStyle.Render("not found"))
				continue
			}
			pages := found.Pages(term)
			numbers := make([]string, len(pages))
			for i, p := range pages {
				numbers[i] = strconv.Itoa(p)
			}
			lines = append(lines, term+" "+successStyle.Render(strings.Join(numbers, ", ")))
		}
		printBox(w, "Locations", lines...)
		return nil
	},
}

func init() {
	locateCmd.Flags().StringVarP(&locatePDF, "pdf", "p", "", "PDF file to search")
	locateCmd.Flags().StringSliceVarP(&locateTerms, "terms", "t", nil, "Terms to find (comma separated or repeated)")
	locateCmd.Flags().StringVarP(&locateRange, "range", "r", "", "Inclusive page range such as 3-120")
	locateCmd.Flags().BoolVar(&locateStrict, "strict", false, "Fail on page ranges that do not fit the PDF")
	locateCmd.Flags().BoolVar(&locateNFC, "nfc", false, "Compare text in Unicode NFC form")
	locateCmd.Flags().Int64Var(&locateMaxSize, "max-file-size", config.DefaultMaxFileSize, "Maximum PDF size in bytes")
	_ = locateCmd.MarkFlagRequired("pdf")
	_ = locateCmd.MarkFlagRequired("terms")
	rootCmd.AddCommand(locateCmd)
}
