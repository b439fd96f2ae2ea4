// Package tabular reads the decision list out of a CSV or XLSX source and
// hands it to the registry as raw rows. Structural problems (no usable
// title column) abort the whole batch; everything row-level is recoverable
// downstream.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"casereg/internal/registry"
)

// ErrMissingColumn reports that a configured column is absent from the
// source header. For the title column this is fatal for the batch.
var ErrMissingColumn = errors.New("column not found")

// Default column positions when no header names are configured, matching
// the export layout the registry itself produces: the title in the first
// column and the decision date in the third.
const (
	defaultTitleIndex = 0
	defaultDateIndex  = 2
)

// Options selects where titles and dates live in the source.
type Options struct {
	TitleColumn string // header name; "" = first column
	DateColumn  string // header name; "" = third column when present
	Sheet       string // XLSX sheet name; "" = first sheet
}

// ReadFile reads rows from path, dispatching on the file extension.
// ".csv" is read as CSV; everything else is treated as a workbook.
func ReadFile(path string, opts Options) ([]registry.Row, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		return ReadCSV(f, opts)
	}
	return ReadWorkbook(path, opts)
}

// ReadCSV reads rows from a CSV source. The first record is the header.
func ReadCSV(r io.Reader, opts Options) ([]registry.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	cells, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rowsFromCells(cells, opts)
}

// ReadWorkbook reads rows from an XLSX file. Cell values arrive already
// formatted, so date cells come back as display text and are parsed later
// by the normalizer.
func ReadWorkbook(path string, opts Options) ([]registry.Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rowsFromCells(cells, opts)
}

func rowsFromCells(cells [][]string, opts Options) ([]registry.Row, error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("source has no rows")
	}
	header := cells[0]

	titleIdx := defaultTitleIndex
	if opts.TitleColumn != "" {
		idx := findColumn(header, opts.TitleColumn)
		if idx < 0 {
			return nil, fmt.Errorf("title column %q: %w", opts.TitleColumn, ErrMissingColumn)
		}
		titleIdx = idx
	}
	if titleIdx >= len(header) {
		return nil, fmt.Errorf("title column %d out of range: %w", titleIdx, ErrMissingColumn)
	}

	// A missing date column is recoverable: rows simply carry no date text.
	dateIdx := -1
	if opts.DateColumn != "" {
		dateIdx = findColumn(header, opts.DateColumn)
	} else if len(header) > defaultDateIndex {
		dateIdx = defaultDateIndex
	}

	rows := make([]registry.Row, 0, len(cells)-1)
	for _, line := range cells[1:] {
		if len(line) <= titleIdx || strings.TrimSpace(line[titleIdx]) == "" {
			continue // blank line in the sheet
		}
		row := registry.Row{Title: strings.TrimSpace(line[titleIdx])}
		if dateIdx >= 0 && dateIdx < len(line) {
			row.DateText = strings.TrimSpace(line[dateIdx])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func findColumn(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}
