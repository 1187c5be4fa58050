package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/a3tai/docindex/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "docindex-cli",
	Short: "Build book indexes from Word and PDF documents",
	Long: `docindex-cli runs the docindex processing tools on local files.

It derives index patterns from sample entries, reformats name lines, finds the
PDF pages of index terms and runs any of the web tasks (tab1-tab5) offline.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("docindex-cli %s\n", version.String()))
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}
