package registry

import (
	"sort"
	"strings"
)

// Rule names a partition and its title-substring membership test.
type Rule struct {
	Name     string
	Contains string
}

// OtherPartition collects every record no rule claims.
const OtherPartition = "Other"

// Table is one named partition of the grouped registry. Record order and
// group indices are carried through from the input sequence unchanged.
type Table struct {
	Name    string
	Records []Record
}

// Partition splits a grouped sequence into named tables. Each record lands
// in the first rule whose substring its title contains, or in "Other".
// The membership test is case-insensitive: archive titles carry the marker
// substrings in inconsistent casing. Every input record appears in exactly
// one table.
func Partition(records []Record, rules []Rule) []Table {
	tables := make([]Table, len(rules)+1)
	for i, r := range rules {
		tables[i].Name = r.Name
	}
	tables[len(rules)].Name = OtherPartition

	for _, rec := range records {
		idx := len(rules)
		title := strings.ToLower(rec.Title)
		for i, r := range rules {
			if r.Contains != "" && strings.Contains(title, strings.ToLower(r.Contains)) {
				idx = i
				break
			}
		}
		tables[idx].Records = append(tables[idx].Records, rec)
	}
	return tables
}

// YearCount is one bar of the per-partition frequency chart.
type YearCount struct {
	Year  int
	Count int
}

// YearCounts tallies records per decision year, ascending. Records without
// a resolved date are left out of the tally.
func YearCounts(records []Record) []YearCount {
	byYear := make(map[int]int)
	for _, rec := range records {
		if rec.HasDate() {
			byYear[rec.Date.Year()]++
		}
	}

	var counts []YearCount
	for year, n := range byYear {
		counts = append(counts, YearCount{Year: year, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Year < counts[j].Year })
	return counts
}
