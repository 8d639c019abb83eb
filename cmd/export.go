package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"gridhour/config"
	"gridhour/output"
	"gridhour/storage"
)

var (
	exportFormat string
	exportOutput string
	exportDBPath string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export persisted time entries to CSV/Excel",
	Long: `Export every persisted time entry, joined with developer, project, and
task names.

Output format can be selected explicitly via --format or inferred from the
--output extension.`,
	Example: `
  # Export to CSV
  gridhour export --output ./entries.csv

  # Export to Excel
  gridhour export --output ./entries.xlsx

  # Force Excel format independent of extension
  gridhour export --format excel --output ./entries.out
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		format := exportFormat
		if strings.TrimSpace(format) == "" {
			format = detectExportFormat(exportOutput)
		}

		store, err := storage.OpenSQLite(resolveDBPath(exportDBPath, cfg))
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.ListEntryDetails()
		if err != nil {
			return err
		}

		writer, err := output.WriterForFormat(format)
		if err != nil {
			return err
		}
		if err := writer.Write(exportOutput, entries); err != nil {
			return err
		}

		fmt.Printf("Export completed. Rows: %d, Format: %s, File: %s\n", len(entries), format, exportOutput)
		return nil
	},
}

func detectExportFormat(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "xlsx", "xlsm", "xls":
		return "excel"
	default:
		return "csv"
	}
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: csv|excel (optional, inferred from extension when omitted)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")
	exportCmd.Flags().StringVar(&exportDBPath, "db", "", "Path to local SQLite database (defaults to database.path from config)")

	_ = exportCmd.MarkFlagRequired("output")
}
