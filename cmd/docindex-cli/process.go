package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/a3tai/docindex/internal/config"
	"github.com/a3tai/docindex/internal/tasks"
)

var (
	processFiles     []string
	processFields    []string
	processOutput    string
	processSeparator string
	processStrict    bool
)

var processCmd = &cobra.Command{
	Use:   "process <task>",
	Short: "Run a web task (tab1-tab5) on local files",
	Long: `Run one of the processing tasks on local files and write the resulting Word
document. Files and form values use the field names of the HTTP API:

  tab1  --file file=book.docx --field regex=... --field decorator=()
  tab2  --file file=names.docx
  tab3  --file file=index.docx
  tab4  --file pdf_file=book.pdf --file docx_file=index.docx --field page_range=3-120
  tab5  --file file=table.docx`,
	Example: `  docindex-cli process tab5 --file file=table.docx -o sorted.docx`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := tasks.ParseTaskID(args[0])
		if err != nil {
			return err
		}

		in := tasks.Input{
			Files:  make(map[string][]byte, len(processFiles)),
			Fields: make(map[string]string, len(processFields)),
		}
		for _, spec := range processFiles {
			name, path, ok := strings.Cut(spec, "=")
			if !ok {
				return fmt.Errorf("--file must look like field=path, got %q", spec)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			in.Files[name] = data
		}
		for _, spec := range processFields {
			name, value, ok := strings.Cut(spec, "=")
			if !ok {
				return fmt.Errorf("--field must look like name=value, got %q", spec)
			}
			in.Fields[name] = value
		}

		service := tasks.NewService(tasks.Options{
			MaxFileSize:     config.DefaultMaxFileSize,
			TableSeparator:  processSeparator,
			StrictPageRange: processStrict,
		})
		out, err := service.Process(cmd.Context(), id, in)
		if err != nil {
			return err
		}

		output := processOutput
		if output == "" {
			output = id.ResultFilename()
		}
		if err := os.WriteFile(output, out, 0o644); err != nil {
			return err
		}

		abs, _ := filepath.Abs(output)
		printField(cmd.OutOrStdout(), "Wrote:", successStyle.Render(abs))
		return nil
	},
}

func init() {
	processCmd.Flags().StringArrayVarP(&processFiles, "file", "f", nil, "Uploaded file as field=path (repeatable)")
	processCmd.Flags().StringArrayVar(&processFields, "field", nil, "Form value as name=value (repeatable)")
	processCmd.Flags().StringVarP(&processOutput, "output", "o", "", "Output file (default result_<task>.docx)")
	processCmd.Flags().StringVar(&processSeparator, "separator", config.DefaultTableSeparator, "Separator for tab5 lines")
	processCmd.Flags().BoolVar(&processStrict, "strict-page-range", false, "Fail on page ranges that do not fit the PDF")
	rootCmd.AddCommand(processCmd)
}
