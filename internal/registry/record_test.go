package registry

import (
	"testing"
	"time"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeDateFromColumn(t *testing.T) {
	rec := Normalize(Row{Title: "CAS 2019 ABC 1 decision", DateText: "2019-01-10"})
	if !rec.HasDate() {
		t.Fatal("expected a resolved date")
	}
	if !rec.Date.Equal(date(2019, 1, 10)) {
		t.Errorf("date = %v", rec.Date)
	}
}

func TestNormalizeDateFromLeadingToken(t *testing.T) {
	rec := Normalize(Row{Title: "2021 03 05 Award CAS 2021 A 7 final"})
	if !rec.Date.Equal(date(2021, 3, 5)) {
		t.Errorf("date = %v", rec.Date)
	}
}

func TestNormalizeColumnWinsOverTitleToken(t *testing.T) {
	rec := Normalize(Row{Title: "2021 03 05 Award", DateText: "2020-12-31"})
	if !rec.Date.Equal(date(2020, 12, 31)) {
		t.Errorf("date = %v, want the column value", rec.Date)
	}
}

func TestNormalizeMissingDateIsNotFatal(t *testing.T) {
	rec := Normalize(Row{Title: "CAS 2019 ABC 1 decision", DateText: "not a date"})
	if rec.HasDate() {
		t.Error("unparsable date text should leave the date unresolved")
	}
	if rec.Canonical != "CAS 2019 ABC 1" {
		t.Errorf("canonical = %q", rec.Canonical)
	}
}

func TestNormalizeClusterKey(t *testing.T) {
	rec := Normalize(Row{Title: "Decision CAS 2020 ABC 123 award"})
	if rec.ClusterKey != "BC 123" {
		t.Errorf("cluster key = %q", rec.ClusterKey)
	}
}

func TestNormalizeBracketedFallback(t *testing.T) {
	rec := Normalize(Row{Title: "Award of 12 May (2011 A 2384) final"})
	if rec.Canonical != "" {
		t.Fatalf("primary parse should miss, got canonical %q", rec.Canonical)
	}
	if rec.ClusterKey != "A 2384" {
		t.Errorf("cluster key = %q", rec.ClusterKey)
	}
}

func TestNormalizeParseMiss(t *testing.T) {
	rec := Normalize(Row{Title: "Unrelated filing"})
	if len(rec.IDs) != 0 || rec.Canonical != "" || rec.ClusterKey != "" {
		t.Errorf("parse miss should yield empty identifier state: %+v", rec)
	}
}

func TestNormalizeMultipleIdentifiers(t *testing.T) {
	rec := Normalize(Row{Title: "CAS 2020 ABC 123 + 456 joined award"})
	if rec.Canonical != "CAS 2020 ABC 123 & CAS 2020 ABC 456" {
		t.Errorf("canonical = %q", rec.Canonical)
	}
	// Cluster key comes from the joined string, so it fingerprints the last
	// identifier in the title.
	if rec.ClusterKey != "BC 456" {
		t.Errorf("cluster key = %q", rec.ClusterKey)
	}
}

func TestLowConfidence(t *testing.T) {
	rec := Normalize(Row{Title: "CAS 123"})
	if !rec.LowConfidence() {
		t.Error("sentinel identifier should mark the record low confidence")
	}
	rec = Normalize(Row{Title: "CAS 2020 ABC 123"})
	if rec.LowConfidence() {
		t.Error("full reference should not be low confidence")
	}
}

func TestNormalizeAllPreservesOrder(t *testing.T) {
	rows := []Row{
		{Title: "b CAS 2020 ABC 2"},
		{Title: "a CAS 2019 ABC 1"},
	}
	records := NormalizeAll(rows)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Title != rows[0].Title || records[1].Title != rows[1].Title {
		t.Error("normalization must not reorder rows")
	}
}
