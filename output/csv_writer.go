package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"gridhour/timesheet"
)

type CSVWriter struct{}

func (w *CSVWriter) Write(path string, entries []timesheet.EntryDetail) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv output %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	headers := []string{"Developer", "Project", "Task", "Start", "DurationMinutes", "Description"}
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}

	for _, entry := range entries {
		row := []string{
			entry.Developer,
			entry.Project,
			entry.Task,
			entry.Start.Format(time.RFC3339),
			strconv.Itoa(entry.DurationMinutes),
			entry.Description,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	return nil
}
