package importer

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Value is one spreadsheet cell. Text always carries the raw cell content;
// Number/HasNum are set when the content is numeric, and Time/HasTime when a
// concrete timestamp is already known (grid conversion synthesizes these).
type Value struct {
	Text    string
	Number  float64
	HasNum  bool
	Time    time.Time
	HasTime bool
}

func cellValue(raw string) Value {
	v := Value{Text: raw}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return v
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		v.Number = n
		v.HasNum = true
	}
	return v
}

func timeValue(t time.Time) Value {
	return Value{Time: t, HasTime: true}
}

func (v Value) IsEmpty() bool {
	return !v.HasTime && strings.TrimSpace(v.Text) == ""
}

// Int reads the value as whole minutes, rounding fractional numerics.
func (v Value) Int() (int, bool) {
	if v.HasNum {
		return int(v.Number + 0.5), true
	}
	n, err := strconv.Atoi(strings.TrimSpace(v.Text))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Matrix is the positional projection of a sheet: rows of cells with
// row/column indices preserved.
type Matrix [][]Value

func (m Matrix) at(row, col int) Value {
	if row < 0 || row >= len(m) || col < 0 || col >= len(m[row]) {
		return Value{}
	}
	return m[row][col]
}

type SheetData struct {
	Name   string
	Matrix Matrix
}

// Workbook is the read-only input: an ordered collection of named sheets.
type Workbook struct {
	Sheets []SheetData
}

// ReadWorkbook opens an xlsx workbook from a byte buffer and projects every
// sheet into a positional matrix. Raw cell values are preserved so date cells
// arrive as their underlying serial numbers.
func ReadWorkbook(data []byte) (*Workbook, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer file.Close()

	wb := &Workbook{}
	for _, sheetName := range file.GetSheetList() {
		rows, err := file.GetRows(sheetName, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read rows from sheet %s: %w", sheetName, err)
		}

		matrix := make(Matrix, len(rows))
		for i, row := range rows {
			cells := make([]Value, len(row))
			for j, raw := range row {
				cells[j] = cellValue(raw)
			}
			matrix[i] = cells
		}
		wb.Sheets = append(wb.Sheets, SheetData{Name: sheetName, Matrix: matrix})
	}

	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return wb, nil
}

// Row is the header-keyed projection of one data row. Values are keyed by
// normalized header text. RowNumber is header-relative: the header row is 1,
// so the first data row is 2.
type Row struct {
	RowNumber int
	Values    map[string]Value
}

// headerRows builds the row-object projection of a matrix once a header row
// has been chosen. Later duplicate headers do not overwrite earlier columns.
func headerRows(m Matrix, headerRow int) []Row {
	if headerRow < 0 || headerRow >= len(m) {
		return nil
	}

	headers := make([]string, len(m[headerRow]))
	for j, cell := range m[headerRow] {
		headers[j] = normalizeHeader(cell.Text)
	}

	rows := make([]Row, 0, len(m)-headerRow-1)
	for i := headerRow + 1; i < len(m); i++ {
		values := make(map[string]Value, len(headers))
		for j, key := range headers {
			if key == "" {
				continue
			}
			if _, seen := values[key]; seen {
				continue
			}
			values[key] = m.at(i, j)
		}
		rows = append(rows, Row{RowNumber: i - headerRow + 1, Values: values})
	}
	return rows
}

func headerKeys(m Matrix, headerRow int) []string {
	if headerRow < 0 || headerRow >= len(m) {
		return nil
	}
	keys := make([]string, 0, len(m[headerRow]))
	for _, cell := range m[headerRow] {
		if key := normalizeHeader(cell.Text); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}
