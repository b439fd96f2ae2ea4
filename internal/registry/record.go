package registry

import (
	"regexp"
	"strings"
	"time"

	"casereg/internal/caseid"
)

// Row is one raw input row from the tabular source.
type Row struct {
	Title    string
	DateText string // raw date-column text, may be empty
}

// Record is a normalized decision row. ClusterKey is "" when no identifier
// could be extracted; such records never group with each other. Group is
// populated by AssignGroups and is a property of the record's position in
// the sorted sequence, not of the record itself.
type Record struct {
	Title      string
	Date       time.Time // zero when no date could be resolved
	IDs        []caseid.Identifier
	Canonical  string
	ClusterKey string
	Group      int
}

// HasDate reports whether a decision date was resolved for the record.
func (r Record) HasDate() bool {
	return !r.Date.IsZero()
}

// LowConfidence reports whether any extracted identifier carries sentinel
// year/series values.
func (r Record) LowConfidence() bool {
	for _, id := range r.IDs {
		if id.LowConfidence {
			return true
		}
	}
	return false
}

var leadingDate = regexp.MustCompile(`^(\d{4} \d{2} \d{2})`)

// dateLayouts are tried in order against the raw date column. The list
// covers ISO dates plus the formats spreadsheet readers hand back for
// date-styled cells.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01-02-06",
	"1/2/06 15:04",
	"01/02/2006",
	"2006/01/02",
	"02.01.2006",
	"2 January 2006",
}

// ParseDate parses a raw date-column value. Returns the zero time when the
// text is empty or matches none of the known layouts.
func ParseDate(text string) time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Normalize builds one Record from a raw row.
//
// The decision date comes from the date column when it parses; otherwise
// from a leading "YYYY MM DD" token at the start of the title; otherwise it
// stays unresolved, which keeps the record in the batch.
//
// The cluster key is the last six characters of the canonical identifier
// string, falling back to a bracketed case-number token when the primary
// format finds nothing.
func Normalize(row Row) Record {
	rec := Record{Title: row.Title}

	rec.Date = ParseDate(row.DateText)
	if !rec.HasDate() {
		if m := leadingDate.FindString(row.Title); m != "" {
			if t, err := time.Parse("2006 01 02", m); err == nil {
				rec.Date = t
			}
		}
	}

	rec.IDs = caseid.Parse(row.Title)
	rec.Canonical = caseid.CanonicalString(rec.IDs)

	switch {
	case rec.Canonical != "":
		rec.ClusterKey = caseid.ClusterKey(rec.Canonical)
	default:
		if token, ok := caseid.ParseBracketed(row.Title); ok {
			rec.ClusterKey = caseid.ClusterKey(token)
		}
	}

	return rec
}

// NormalizeAll normalizes every row, preserving input order.
func NormalizeAll(rows []Row) []Record {
	records := make([]Record, len(rows))
	for i, row := range rows {
		records[i] = Normalize(row)
	}
	return records
}
