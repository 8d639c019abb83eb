package importer

import (
	"fmt"
	"time"
)

// Service parses workbooks into normalized time-entry candidates. A single
// parse is synchronous and row-ordered; no state is shared across calls.
type Service struct {
	location *time.Location
}

func NewService(loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{location: loc}
}

// ParseWorkbook is the byte-buffer entry point: it selects the best sheet,
// rewrites a weekly grid into rows when one is detected, and runs every row
// through normalization, validation, and entity resolution.
func (s *Service) ParseWorkbook(data []byte, resolver EntityResolver) (*Result, error) {
	wb, err := ReadWorkbook(data)
	if err != nil {
		return nil, err
	}

	ranked := RankSheets(wb)
	best := ranked[0]
	matrix := wb.Sheets[best.index].Matrix
	ctx := NewContext(best.Developer, s.location)

	normalized, warnings, structErr := s.extractRows(matrix, best, ctx)
	if structErr != nil {
		return structuralFailure(best.Name, structErr.Error(), warnings), nil
	}

	builder := newResultBuilder(best.Name, ctx.SheetDeveloper)
	for _, w := range warnings {
		builder.addWarning(w)
	}

	if err := s.processRows(builder, normalized, ctx, resolver); err != nil {
		return nil, err
	}

	// Grid sheets can reference projects in a "Project Code" column even
	// when every row failed to parse; preview still surface-checks those.
	if resolver.Mode() == "preview" {
		for _, name := range projectCodeColumnValues(matrix) {
			builder.addProjectName(name)
		}
	}

	return s.finish(builder, resolver)
}

// ParseRows is the lower-level entry point for callers that already hold
// header-keyed rows; sheet selection and grid rewriting are bypassed.
func (s *Service) ParseRows(rows []Row, ctx Context, resolver EntityResolver) (*Result, error) {
	if ctx.Location == nil {
		ctx.Location = s.location
	}

	builder := newResultBuilder("", ctx.SheetDeveloper)
	if err := s.processRows(builder, normalizeAll(rows), ctx, resolver); err != nil {
		return nil, err
	}
	return s.finish(builder, resolver)
}

// extractRows turns the chosen sheet into normalized rows, taking the weekly
// grid path when either the header keys or the raw matrix look like one.
func (s *Service) extractRows(matrix Matrix, best SheetScore, ctx Context) ([]NormalizedRow, []string, error) {
	if best.HeaderRow >= 0 {
		keys := headerKeys(matrix, best.HeaderRow)
		if looksLikeGridHeaders(keys) {
			layout, ok := detectGridLayout(matrix)
			if !ok {
				// Header keys said grid but the matrix scan found no
				// anchor; fall back to the header-row geometry.
				layout = gridLayoutFromHeaderRow(matrix, best.HeaderRow)
			}
			return convertGridWithWarnings(matrix, layout, ctx)
		}
		if !headersCanTimeRows(keys) {
			// The header keys give rows no source of time (no date, no
			// duration, no start/end pair), so a tabular reading can only
			// fail every row. Rescan the raw matrix for a grid anchor,
			// which catches layouts like a "Project Code" header with
			// unlabeled day columns, before committing to it.
			if layout, ok := detectGridLayout(matrix); ok {
				return convertGridWithWarnings(matrix, layout, ctx)
			}
		}
		return normalizeAll(headerRows(matrix, best.HeaderRow)), nil, nil
	}

	layout, ok := detectGridLayout(matrix)
	if !ok {
		return nil, nil, fmt.Errorf("no header row detected and sheet does not look like a weekly grid")
	}
	return convertGridWithWarnings(matrix, layout, ctx)
}

func convertGridWithWarnings(matrix Matrix, layout gridLayout, ctx Context) ([]NormalizedRow, []string, error) {
	rows, warnings, err := convertGrid(matrix, layout, ctx)
	if err != nil {
		return nil, warnings, err
	}
	return rows, warnings, nil
}

func gridLayoutFromHeaderRow(m Matrix, headerRow int) gridLayout {
	layout := gridLayout{headerRow: headerRow, projectCol: -1, taskCol: -1}
	if headerRow >= len(m) {
		return layout
	}
	seen := map[int]bool{}
	for j, cell := range m[headerRow] {
		day, ok := weekdayIndexFor(cell.Text)
		if !ok || seen[day] {
			continue
		}
		seen[day] = true
		layout.dayCols = append(layout.dayCols, dayColumn{day: day, col: j})
	}
	layout.projectCol, layout.taskCol = findGridLabelColumns(m[headerRow], layout.dayCols)
	return layout
}

func normalizeAll(rows []Row) []NormalizedRow {
	normalized := make([]NormalizedRow, 0, len(rows))
	for _, row := range rows {
		normalized = append(normalized, NormalizeRow(row))
	}
	return normalized
}

// processRows runs validation and (in import mode) sequential row-order
// entity resolution. Row failures are collected, never raised: a bad row must
// not abort the scan.
func (s *Service) processRows(builder *resultBuilder, rows []NormalizedRow, ctx Context, resolver EntityResolver) error {
	for _, row := range rows {
		if row.isBlank() {
			continue
		}

		if row.Project != "" {
			builder.addProjectName(row.Project)
		}

		candidate, preview, err := BuildCandidate(row, ctx)
		if err != nil {
			builder.addRowError(row.RowNumber, err.Error())
			continue
		}

		if err := resolver.ResolveEntry(&candidate); err != nil {
			return fmt.Errorf("resolve entities for row %d: %w", row.RowNumber, err)
		}
		builder.addEntry(candidate, preview)
	}
	return nil
}

func (s *Service) finish(builder *resultBuilder, resolver EntityResolver) (*Result, error) {
	invalid, err := resolver.ValidateProjects(builder.projectNames())
	if err != nil {
		return nil, err
	}
	return builder.assemble(invalid), nil
}
