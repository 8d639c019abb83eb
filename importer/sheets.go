package importer

import (
	"sort"
	"strings"
)

const (
	headerScanRows    = 30
	anchorScanRows    = 20
	developerScanRows = 30
	hourScanRows      = 120
	minHeaderMatches  = 2
)

var metadataNameTokens = []string{"variable", "lookup", "list", "config", "settings", "meta"}

var developerLabels = map[string]bool{
	"name":          true,
	"developer":     true,
	"developername": true,
}

// SheetScore is one ranked sheet candidate. The scoring signals stay exposed
// so threshold and tie-break behavior can be tested in isolation.
type SheetScore struct {
	Name           string
	Score          int
	HeaderRow      int // -1 when no confident header row exists
	HeaderMatches  int
	WeekdayRow     bool
	WeekEnding     bool
	ProjectCode    bool
	DeveloperLabel bool
	HourLikeCells  int
	Developer      string

	index int
}

// RankSheets scores every sheet in the workbook and returns candidates sorted
// best-first. Ties on score resolve to the higher header-match count, then to
// workbook order.
func RankSheets(wb *Workbook) []SheetScore {
	scores := make([]SheetScore, 0, len(wb.Sheets))
	for i, sheet := range wb.Sheets {
		s := scoreSheet(sheet)
		s.index = i
		scores = append(scores, s)
	}

	sort.SliceStable(scores, func(a, b int) bool {
		if scores[a].Score != scores[b].Score {
			return scores[a].Score > scores[b].Score
		}
		if scores[a].HeaderMatches != scores[b].HeaderMatches {
			return scores[a].HeaderMatches > scores[b].HeaderMatches
		}
		return scores[a].index < scores[b].index
	})
	return scores
}

func scoreSheet(sheet SheetData) SheetScore {
	m := sheet.Matrix
	s := SheetScore{Name: sheet.Name, HeaderRow: -1}

	s.HeaderRow, s.HeaderMatches = bestHeaderRow(m)
	s.WeekdayRow = findWeekdayRow(m) >= 0
	s.WeekEnding = hasWeekEndingLabel(m)
	s.ProjectCode = findProjectCodeCell(m) != nil
	s.Developer = findDeveloperOnSheet(m)
	s.DeveloperLabel = s.Developer != ""
	s.HourLikeCells = countHourLikeCells(m)

	s.Score = s.HeaderMatches
	if s.WeekdayRow {
		s.Score += 3
	}
	if s.WeekEnding {
		s.Score += 2
	}
	if s.ProjectCode {
		s.Score += 2
	}
	if s.HourLikeCells >= 3 {
		s.Score += 2
	}
	if s.DeveloperLabel {
		s.Score++
	}
	if looksLikeMetadataSheetName(sheet.Name) {
		s.Score -= 2
	}
	return s
}

// bestHeaderRow finds the row whose cells match the most canonical-field
// tokens. Rows with fewer than two matches are not a confident header.
func bestHeaderRow(m Matrix) (int, int) {
	bestRow, bestCount := -1, 0
	limit := len(m)
	if limit > headerScanRows {
		limit = headerScanRows
	}
	for i := 0; i < limit; i++ {
		count := 0
		for _, cell := range m[i] {
			if _, ok := classifyHeader(normalizeHeader(cell.Text)); ok {
				count++
			}
		}
		if count > bestCount {
			bestRow, bestCount = i, count
		}
	}
	if bestCount < minHeaderMatches {
		return -1, bestCount
	}
	return bestRow, bestCount
}

func hasWeekEndingLabel(m Matrix) bool {
	limit := len(m)
	if limit > anchorScanRows {
		limit = anchorScanRows
	}
	for i := 0; i < limit; i++ {
		for _, cell := range m[i] {
			key := normalizeHeader(cell.Text)
			if strings.Contains(key, "weekending") || strings.Contains(key, "weekof") {
				return true
			}
		}
	}
	return false
}

type cellRef struct {
	row, col int
}

func findProjectCodeCell(m Matrix) *cellRef {
	limit := len(m)
	if limit > anchorScanRows {
		limit = anchorScanRows
	}
	for i := 0; i < limit; i++ {
		for j, cell := range m[i] {
			if normalizeHeader(cell.Text) == "projectcode" {
				return &cellRef{row: i, col: j}
			}
		}
	}
	return nil
}

// findDeveloperOnSheet looks for a label cell ("Name:", "Developer") with a
// non-empty text value immediately to its right.
func findDeveloperOnSheet(m Matrix) string {
	limit := len(m)
	if limit > developerScanRows {
		limit = developerScanRows
	}
	for i := 0; i < limit; i++ {
		for j, cell := range m[i] {
			key := normalizeHeader(strings.TrimSuffix(strings.TrimSpace(cell.Text), ":"))
			if !developerLabels[key] {
				continue
			}
			adjacent := m.at(i, j+1)
			value := strings.TrimSpace(adjacent.Text)
			if value == "" || adjacent.HasNum {
				continue
			}
			// A "Developer | Project | ..." header row is not a
			// label/value pair.
			if _, isHeader := classifyHeader(normalizeHeader(value)); isHeader {
				continue
			}
			return value
		}
	}
	return ""
}

// countHourLikeCells counts numeric cells in (0, 24], a proxy for a weekday
// hours grid.
func countHourLikeCells(m Matrix) int {
	count := 0
	limit := len(m)
	if limit > hourScanRows {
		limit = hourScanRows
	}
	for i := 0; i < limit; i++ {
		for _, cell := range m[i] {
			if cell.HasNum && cell.Number > 0 && cell.Number <= 24 {
				count++
			}
		}
	}
	return count
}

func looksLikeMetadataSheetName(name string) bool {
	lowered := strings.ToLower(name)
	for _, token := range metadataNameTokens {
		if strings.Contains(lowered, token) {
			return true
		}
	}
	return false
}

// projectCodeColumnValues collects the non-empty values beneath a literal
// "Project Code" header anywhere on the sheet. Preview-mode project
// validation falls back to these when a grid sheet yields no parsed rows.
func projectCodeColumnValues(m Matrix) []string {
	ref := findProjectCodeCell(m)
	if ref == nil {
		return nil
	}

	values := make([]string, 0, 8)
	for i := ref.row + 1; i < len(m); i++ {
		text := strings.TrimSpace(m.at(i, ref.col).Text)
		if text == "" {
			continue
		}
		if strings.Contains(strings.ToLower(text), "total") {
			continue
		}
		values = append(values, text)
	}
	return values
}
