package tabular

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

const sampleCSV = `Filename,Status,Decision Date
2019 01 10 CAS 2019 ABC 1 decision,final,2019-01-10
CAS Bull entry CAS 2020 DEF 2,draft,2020-03-15
,skipped,2020-01-01
Unrelated filing,final,
`

func TestReadCSVPositionalDefaults(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(sampleCSV), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows (blank title skipped), got %d", len(rows))
	}
	if rows[0].Title != "2019 01 10 CAS 2019 ABC 1 decision" {
		t.Errorf("title = %q", rows[0].Title)
	}
	if rows[0].DateText != "2019-01-10" {
		t.Errorf("date text = %q", rows[0].DateText)
	}
	if rows[2].DateText != "" {
		t.Errorf("missing date should stay empty, got %q", rows[2].DateText)
	}
}

func TestReadCSVNamedColumns(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(sampleCSV), Options{
		TitleColumn: "filename",
		DateColumn:  "decision date",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows[1].Title != "CAS Bull entry CAS 2020 DEF 2" || rows[1].DateText != "2020-03-15" {
		t.Errorf("row = %+v", rows[1])
	}
}

func TestReadCSVMissingTitleColumnIsFatal(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(sampleCSV), Options{TitleColumn: "Nope"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("error = %v, want ErrMissingColumn", err)
	}
}

func TestReadCSVMissingDateColumnIsRecoverable(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(sampleCSV), Options{DateColumn: "Nope"})
	if err != nil {
		t.Fatalf("a missing date column must not abort the batch: %v", err)
	}
	for _, r := range rows {
		if r.DateText != "" {
			t.Errorf("row %q carried date text %q", r.Title, r.DateText)
		}
	}
}

func TestReadCSVEmptySource(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader(""), Options{}); err == nil {
		t.Error("expected an error for an empty source")
	}
}

func TestReadWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.xlsx")
	f := excelize.NewFile()
	cells := [][]string{
		{"Filename", "Status", "Decision Date"},
		{"CAS 2019 ABC 1 decision", "final", "2019-01-10"},
		{"", "skipped", "2020-01-01"},
		{"Unrelated filing", "final", ""},
	}
	sheet := f.GetSheetName(0)
	for r, row := range cells {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	rows, err := ReadFile(path, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Title != "CAS 2019 ABC 1 decision" || rows[0].DateText != "2019-01-10" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].DateText != "" {
		t.Errorf("row 1 date text = %q", rows[1].DateText)
	}
}

func TestReadWorkbookMissingFile(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.xlsx"), Options{}); err == nil {
		t.Error("expected an error for a missing workbook")
	}
}

func TestReadCSVTwoColumnSource(t *testing.T) {
	src := "Filename,Date\nCAS 2020 A 1 award,2020-01-01\n"
	rows, err := ReadCSV(strings.NewReader(src), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// No third column and no configured name: rows carry no date text.
	if rows[0].DateText != "" {
		t.Errorf("date text = %q", rows[0].DateText)
	}
}
