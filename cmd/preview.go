package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"gridhour/config"
	"gridhour/importer"
	"gridhour/storage"
)

var (
	previewInput  string
	previewDBPath string
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview what a timesheet would import, without writing anything",
	Long: `Parse a timesheet workbook in preview mode.

Nothing is written: referenced projects are checked against the store and
the ones not found are reported as invalid. The output shows the chosen
sheet, the detected developer, entry counts, the first ten valid rows, and
every row-numbered error.`,
	Example: `
  # Preview a timesheet against the configured database
  gridhour preview -i timesheet.xlsx
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		loc, err := cfg.Parse.Location()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(previewInput)
		if err != nil {
			return fmt.Errorf("read input file %s: %w", previewInput, err)
		}

		store, err := storage.OpenSQLite(resolveDBPath(previewDBPath, cfg))
		if err != nil {
			return err
		}
		defer store.Close()

		service := importer.NewService(loc)
		result, err := service.ParseWorkbook(data, &importer.PreviewResolver{Store: store})
		if err != nil {
			return err
		}

		fmt.Printf("Sheet: %s\n", result.SheetName)
		fmt.Printf("Developer: %s\n", displayDeveloper(result.DetectedDeveloper))
		fmt.Printf("Valid entries: %d\n", len(result.Entries))
		fmt.Printf("Projects: %s\n", strings.Join(result.Projects.All, ", "))
		if len(result.Projects.Invalid) > 0 {
			fmt.Printf("Invalid projects: %s\n", strings.Join(result.Projects.Invalid, ", "))
		}

		if len(result.Preview) > 0 {
			fmt.Println("\nPreview (first rows):")
			for _, row := range result.Preview {
				fmt.Printf("  %s | %s | %s | %s | %d min\n",
					row.Developer,
					row.Project,
					row.Task,
					row.Start.Format("2006-01-02 15:04"),
					row.DurationMinutes,
				)
			}
		}

		fmt.Println()
		printWarnings(result.Warnings)
		printErrors(result.Errors)
		if len(result.Errors) > 0 {
			fmt.Printf("\n%d error(s): import would be rejected.\n", len(result.Errors))
		} else {
			fmt.Println("No errors: import would succeed.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringVarP(&previewInput, "input", "i", "", "Input workbook path (.xlsx)")
	previewCmd.Flags().StringVar(&previewDBPath, "db", "", "Path to local SQLite database (defaults to database.path from config)")

	_ = previewCmd.MarkFlagRequired("input")
}
