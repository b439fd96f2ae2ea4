// Package export renders the grouped registry to a styled XLSX workbook:
// one sheet per partition plus the main sheet, with the group counter
// merged down each run, highlighted multi-decision clusters, and an
// embedded per-year frequency chart.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"casereg/internal/registry"
)

// Options carries the styling knobs a workbook is rendered with.
type Options struct {
	FillColor   string // ARGB/RGB hex for multi-decision run highlight
	ChartAnchor string // top-left cell the year chart is anchored to
	DateFormat  string // Go time layout for the decision date column
}

// DefaultOptions mirrors the original registry workbooks: green cluster
// highlight, chart beside the table.
func DefaultOptions() Options {
	return Options{
		FillColor:   "00FF00",
		ChartAnchor: "J2",
		DateFormat:  "2006-01-02",
	}
}

var headers = []string{"Group", "Filename", "Decision Date", "Case Numbers"}

// Columns the year-frequency chart data is parked in, to the right of the
// table proper.
const (
	yearCol  = "G"
	countCol = "H"
)

// WriteWorkbook writes every table to its own sheet at path. The first
// table becomes the workbook's first sheet.
func WriteWorkbook(path string, tables []registry.Table, opts Options) error {
	if len(tables) == 0 {
		return fmt.Errorf("no tables to export")
	}
	def := DefaultOptions()
	if opts.FillColor == "" {
		opts.FillColor = def.FillColor
	}
	if opts.ChartAnchor == "" {
		opts.ChartAnchor = def.ChartAnchor
	}
	if opts.DateFormat == "" {
		opts.DateFormat = def.DateFormat
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, tab := range tables {
		sheet := sheetName(tab.Name)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return fmt.Errorf("create sheet %q: %w", sheet, err)
			}
		}
		if err := writeSheet(f, sheet, tab, opts); err != nil {
			return fmt.Errorf("sheet %q: %w", sheet, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, tab registry.Table, opts Options) error {
	rows := buildRows(tab.Records, opts.DateFormat)

	for c, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	if err := styleSheet(f, sheet, tab.Records, len(rows), opts); err != nil {
		return err
	}

	for c, w := range columnWidths(headers, rows) {
		col, _ := excelize.ColumnNumberToName(c + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}

	return writeYearChart(f, sheet, tab, opts)
}

// buildRows turns records into display cells in table column order.
func buildRows(records []registry.Record, dateFormat string) [][]string {
	rows := make([][]string, len(records))
	for i, rec := range records {
		date := ""
		if rec.HasDate() {
			date = rec.Date.Format(dateFormat)
		}
		rows[i] = []string{
			fmt.Sprintf("%d", rec.Group),
			rec.Title,
			date,
			rec.Canonical,
		}
	}
	return rows
}

func styleSheet(f *excelize.File, sheet string, records []registry.Record, nRows int, opts Options) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Border:    box(styleThick),
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "D1", headerStyle); err != nil {
		return err
	}
	if nRows == 0 {
		return nil
	}

	thin, err := f.NewStyle(&excelize.Style{Border: box(styleThin)})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "B2", fmt.Sprintf("C%d", nRows+1), thin); err != nil {
		return err
	}

	counterStyle, err := f.NewStyle(&excelize.Style{
		Border:    box(styleThick),
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	clusterStyle, err := f.NewStyle(&excelize.Style{
		Border: box(styleThick),
		Fill:   excelize.Fill{Type: "pattern", Color: []string{opts.FillColor}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	for _, sp := range spans(records, 2) {
		if err := f.SetCellStyle(sheet,
			fmt.Sprintf("A%d", sp.first), fmt.Sprintf("A%d", sp.last), counterStyle); err != nil {
			return err
		}
		if sp.last == sp.first {
			continue
		}
		// Multi-decision cluster: merge the counter down the run and
		// highlight the decision block.
		if err := f.MergeCell(sheet,
			fmt.Sprintf("A%d", sp.first), fmt.Sprintf("A%d", sp.last)); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet,
			fmt.Sprintf("B%d", sp.first), fmt.Sprintf("D%d", sp.last), clusterStyle); err != nil {
			return err
		}
	}
	return nil
}

func writeYearChart(f *excelize.File, sheet string, tab registry.Table, opts Options) error {
	counts := registry.YearCounts(tab.Records)
	if len(counts) == 0 {
		return nil
	}

	if err := f.SetCellValue(sheet, yearCol+"1", "Year"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, countCol+"1", "Decisions"); err != nil {
		return err
	}
	for i, yc := range counts {
		row := i + 2
		if err := f.SetCellValue(sheet, fmt.Sprintf("%s%d", yearCol, row), yc.Year); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, fmt.Sprintf("%s%d", countCol, row), yc.Count); err != nil {
			return err
		}
	}

	lastRow := len(counts) + 1
	return f.AddChart(sheet, opts.ChartAnchor, &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$%s$1", sheet, countCol),
			Categories: fmt.Sprintf("'%s'!$%s$2:$%s$%d", sheet, yearCol, yearCol, lastRow),
			Values:     fmt.Sprintf("'%s'!$%s$2:$%s$%d", sheet, countCol, countCol, lastRow),
		}},
		Title: []excelize.RichTextRun{{Text: "Decision Date Frequency"}},
		Legend: excelize.ChartLegend{
			Position: "none",
		},
	})
}

const (
	styleThin  = 1
	styleThick = 5
)

func box(weight int) []excelize.Border {
	sides := []string{"left", "right", "top", "bottom"}
	borders := make([]excelize.Border, len(sides))
	for i, s := range sides {
		borders[i] = excelize.Border{Type: s, Color: "000000", Style: weight}
	}
	return borders
}

type span struct {
	first, last int // 1-based worksheet rows, inclusive
}

// spans maps group runs onto worksheet row ranges, with firstRow the row
// the first record lands on. The group numbers themselves are already in
// the cells; only the row boundaries matter here.
func spans(records []registry.Record, firstRow int) []span {
	var out []span
	for _, run := range registry.Runs(records) {
		out = append(out, span{
			first: firstRow + run.Start,
			last:  firstRow + run.Start + run.Length - 1,
		})
	}
	return out
}

// columnWidths sizes each table column to its longest cell, with a little
// padding and a cap so one long filename cannot blow the layout up.
func columnWidths(headers []string, rows [][]string) []float64 {
	widths := make([]float64, len(headers))
	for c, h := range headers {
		widths[c] = float64(len(h))
	}
	for _, row := range rows {
		for c, v := range row {
			if c < len(widths) && float64(len(v)) > widths[c] {
				widths[c] = float64(len(v))
			}
		}
	}
	for c := range widths {
		widths[c] += 2
		if widths[c] > 80 {
			widths[c] = 80
		}
	}
	return widths
}

// sheetName trims a partition name to Excel's 31-character sheet limit.
func sheetName(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	return name
}
