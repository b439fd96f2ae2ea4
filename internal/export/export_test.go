package export

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"casereg/internal/registry"
)

func groupedRecords(t *testing.T) []registry.Record {
	t.Helper()
	rows := []registry.Row{
		{Title: "CAS 2019 ABC 1 decision", DateText: "2019-01-10"},
		{Title: "CAS 2019 ABC 1 supplement", DateText: "2019-01-11"},
		{Title: "Unrelated filing", DateText: "2020-05-05"},
	}
	sorted := registry.Sort(registry.NormalizeAll(rows), registry.SortSpec{Mode: registry.SortByCluster})
	return registry.AssignGroups(sorted)
}

func TestSpans(t *testing.T) {
	records := groupedRecords(t)
	got := spans(records, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(got))
	}
	if got[0].first != 2 || got[0].last != 3 {
		t.Errorf("first span = %+v", got[0])
	}
	if got[1].first != 4 || got[1].last != 4 {
		t.Errorf("second span = %+v", got[1])
	}
}

func TestBuildRows(t *testing.T) {
	records := groupedRecords(t)
	rows := buildRows(records, "2006-01-02")
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "1" || rows[0][2] != "2019-01-10" {
		t.Errorf("row 0 = %v", rows[0])
	}
	if rows[2][0] != "2" || rows[2][3] != "" {
		t.Errorf("row 2 = %v", rows[2])
	}

	undated := buildRows([]registry.Record{{Title: "x", Group: 1}}, "2006-01-02")
	if undated[0][2] != "" {
		t.Errorf("undated record rendered date %q", undated[0][2])
	}
}

func TestColumnWidths(t *testing.T) {
	w := columnWidths([]string{"A", "Filename"}, [][]string{
		{"1", "a very long filename indeed"},
	})
	if w[0] != 3 { // len("1") < len("A"), plus padding
		t.Errorf("w[0] = %v", w[0])
	}
	if w[1] != float64(len("a very long filename indeed"))+2 {
		t.Errorf("w[1] = %v", w[1])
	}
}

func TestSheetName(t *testing.T) {
	long := "a partition name well beyond the thirty-one character sheet limit"
	if got := sheetName(long); len(got) != 31 {
		t.Errorf("len = %d", len(got))
	}
	if got := sheetName("Other"); got != "Other" {
		t.Errorf("got %q", got)
	}
}

func TestWriteWorkbookRoundTrip(t *testing.T) {
	records := groupedRecords(t)
	tables := registry.Partition(records, []registry.Rule{
		{Name: "CAS Bull", Contains: "CAS Bull"},
	})
	all := append([]registry.Table{{Name: "Cases", Records: records}}, tables...)

	path := filepath.Join(t.TempDir(), "out.xlsx")
	if err := WriteWorkbook(path, all, DefaultOptions()); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{"Cases", "CAS Bull", "Other"}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v", sheets)
	}
	for i, name := range want {
		if sheets[i] != name {
			t.Errorf("sheet[%d] = %q, want %q", i, sheets[i], name)
		}
	}

	got, err := f.GetCellValue("Cases", "B2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if got != "CAS 2019 ABC 1 decision" {
		t.Errorf("B2 = %q", got)
	}

	merged, err := f.GetMergeCells("Cases")
	if err != nil {
		t.Fatalf("merge cells: %v", err)
	}
	if len(merged) != 1 {
		t.Fatalf("expected 1 merged range, got %d", len(merged))
	}
	if merged[0].GetStartAxis() != "A2" || merged[0].GetEndAxis() != "A3" {
		t.Errorf("merged range = %s:%s", merged[0].GetStartAxis(), merged[0].GetEndAxis())
	}
}

func TestWriteWorkbookNoTables(t *testing.T) {
	if err := WriteWorkbook(filepath.Join(t.TempDir(), "x.xlsx"), nil, DefaultOptions()); err == nil {
		t.Error("expected an error for an empty export")
	}
}

func TestWriteWorkbookEmptyPartition(t *testing.T) {
	tables := []registry.Table{
		{Name: "Cases", Records: groupedRecords(t)},
		{Name: "Empty"},
	}
	path := filepath.Join(t.TempDir(), "out.xlsx")
	if err := WriteWorkbook(path, tables, DefaultOptions()); err != nil {
		t.Fatalf("empty partitions must still export: %v", err)
	}
}
