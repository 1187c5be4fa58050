package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/a3tai/docindex/internal/pattern"
	"github.com/a3tai/docindex/internal/transform"
)

var (
	deriveText      string
	deriveDecorator string
)

var deriveCmd = &cobra.Command{
	Use:   "derive <sample>",
	Short: "Derive an index pattern from a sample entry",
	Long: `Derive the regular expression that matches index entries shaped like the
sample, e.g. 라몬즈+Ramones+. With --text the pattern is applied right away.`,
	Example: `  docindex-cli derive '라몬즈+Ramones+'
  docindex-cli derive '라몬즈+Ramones+' --text '비틀스+The Beatles+' --decorator '()'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sample, err := pattern.ParseSample(args[0])
		if err != nil {
			return err
		}
		regex := pattern.Build(sample.Delimiter)

		w := cmd.OutOrStdout()
		printField(w, "Term:", sample.Term)
		printField(w, "Original:", sample.Original)
		printField(w, "Delimiter:", string(sample.Delimiter))
		fmt.Fprintln(w, regex)

		if deriveText == "" {
			return nil
		}

		entries, err := transform.ExtractIndex(deriveText, regex, deriveDecorator)
		if err != nil {
			return err
		}
		printBox(w, fmt.Sprintf("%d entries", len(entries)), entries...)
		return nil
	},
}

var namesCmd = &cobra.Command{
	Use:   "names <line>...",
	Short: "Reformat '*<Korean name> <Latin name>' lines family-name first",
	Example: `  docindex-cli names '*홍 길동 Gil-dong Hong'`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		for _, line := range args {
			line = strings.TrimSpace(line)
			reformatted, ok := transform.ReformatName(line)
			if !ok {
				fmt.Fprintf(w, "%s %s\n", line, errorStyle.Render("(not a name line)"))
				continue
			}
			fmt.Fprintf(w, "%s %s %s\n", line, dimStyle.Render("→"), successStyle.Render(reformatted))
		}
		return nil
	},
}

func init() {
	deriveCmd.Flags().StringVarP(&deriveText, "text", "t", "", "Text to apply the derived pattern to")
	deriveCmd.Flags().StringVarP(&deriveDecorator, "decorator", "d", "", "Up to two characters wrapped around the original term")
	rootCmd.AddCommand(deriveCmd, namesCmd)
}
