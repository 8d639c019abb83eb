package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gridhour/config"
	"gridhour/importer"
	"gridhour/storage"
	"gridhour/timesheet"
)

var (
	importInput  string
	importDBPath string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a spreadsheet timesheet into the local SQLite store",
	Long: `Parse a timesheet workbook and persist every normalized entry.

Import is all-or-nothing by default: if any row fails validation or the
workbook structure cannot be recovered, nothing is persisted and every
error is reported with its row number. Setting import.strict to false in
the config persists the valid rows instead. Developers, projects, and
tasks referenced by name are created when they do not exist yet.`,
	Example: `
  # Import a timesheet into the configured database
  gridhour import -i timesheet.xlsx

  # Import into an explicit database file
  gridhour import -i timesheet.xlsx --db ./gridhour.db
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

		data, err := os.ReadFile(importInput)
		if err != nil {
			return fmt.Errorf("read input file %s: %w", importInput, err)
		}

		store, err := storage.OpenSQLite(resolveDBPath(importDBPath, cfg))
		if err != nil {
			return err
		}
		defer store.Close()

		service := importer.NewService(loc)
		result, err := service.ParseWorkbook(data, &importer.ImportResolver{Store: store})
		if err != nil {
			return err
		}

		printWarnings(result.Warnings)
		if len(result.Errors) > 0 {
			printErrors(result.Errors)
			if cfg.Import.Strict {
				return fmt.Errorf("import rejected: %d error(s), no entries were persisted", len(result.Errors))
			}
			fmt.Printf("import.strict is disabled: persisting %d valid entries despite %d error(s)\n",
				len(result.Entries), len(result.Errors))
		}

		entries := make([]timesheet.TimeEntry, 0, len(result.Entries))
		for _, candidate := range result.Entries {
			entries = append(entries, candidate.Entry())
		}

		inserted, err := store.InsertTimeEntries(entries)
		if err != nil {
			return err
		}

		fmt.Printf("Import completed. Sheet: %s, Developer: %s, Entries persisted: %d\n",
			result.SheetName,
			displayDeveloper(result.DetectedDeveloper),
			inserted,
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importInput, "input", "i", "", "Input workbook path (.xlsx)")
	importCmd.Flags().StringVar(&importDBPath, "db", "", "Path to local SQLite database (defaults to database.path from config)")

	_ = importCmd.MarkFlagRequired("input")
}

func resolveDBPath(flagValue string, cfg *config.Config) string {
	if flagValue != "" {
		return flagValue
	}
	return cfg.Database.Path
}

func displayDeveloper(name string) string {
	if name == "" {
		return "(unknown)"
	}
	return name
}

func printWarnings(warnings []string) {
	for _, warning := range warnings {
		fmt.Printf("Warning: %s\n", warning)
	}
}

func printErrors(errors []string) {
	for _, message := range errors {
		fmt.Printf("Error: %s\n", message)
	}
}
