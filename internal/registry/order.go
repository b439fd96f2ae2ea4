package registry

import (
	"fmt"
	"sort"
)

// SortMode selects the ordering the engine applies before grouping.
type SortMode string

const (
	// SortByCluster orders by (year, cluster key) ascending, which pulls
	// records of the same case next to each other. This is the mode that
	// makes run-length grouping meaningful.
	SortByCluster SortMode = "cluster"
	// SortByDate orders by decision date; direction is configurable.
	SortByDate SortMode = "date"
)

// Direction applies to SortByDate. SortByCluster is always ascending.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// SortSpec is the explicit ordering choice. Both date directions exist in
// the field data, so neither is silently assumed.
type SortSpec struct {
	Mode      SortMode
	Direction Direction
}

// ParseSortSpec validates textual mode/direction values from config or flags.
func ParseSortSpec(mode, direction string) (SortSpec, error) {
	spec := SortSpec{Mode: SortMode(mode), Direction: Direction(direction)}
	switch spec.Mode {
	case SortByCluster, SortByDate:
	default:
		return SortSpec{}, fmt.Errorf("unknown sort mode %q (valid: cluster, date)", mode)
	}
	switch spec.Direction {
	case Ascending, Descending:
	default:
		return SortSpec{}, fmt.Errorf("unknown sort direction %q (valid: asc, desc)", direction)
	}
	return spec, nil
}

// Sort returns a new sequence ordered per spec. The sort is stable: records
// with equal keys keep their input order, so a re-run over the same input
// always yields the same sequence.
//
// Records without a resolved date sort after all dated records in every
// mode and direction; among themselves they keep input order.
func Sort(records []Record, spec SortSpec) []Record {
	out := make([]Record, len(records))
	copy(out, records)

	less := dateLess(spec.Direction)
	if spec.Mode == SortByCluster {
		less = clusterLess
	}
	sort.SliceStable(out, less(out))
	return out
}

func dateLess(dir Direction) func([]Record) func(i, j int) bool {
	return func(out []Record) func(i, j int) bool {
		return func(i, j int) bool {
			a, b := out[i], out[j]
			if a.HasDate() != b.HasDate() {
				return a.HasDate() // undated last
			}
			if !a.HasDate() {
				return false
			}
			if dir == Descending {
				return b.Date.Before(a.Date)
			}
			return a.Date.Before(b.Date)
		}
	}
}

func clusterLess(out []Record) func(i, j int) bool {
	return func(i, j int) bool {
		a, b := out[i], out[j]
		if a.HasDate() != b.HasDate() {
			return a.HasDate() // undated last
		}
		ya, yb := a.Date.Year(), b.Date.Year()
		if ya != yb {
			return ya < yb
		}
		return a.ClusterKey < b.ClusterKey
	}
}

// AssignGroups returns a new sequence with the group counter populated.
// The counter starts at 1 and increments exactly when the cluster key
// changes between consecutive records; an empty cluster key never matches
// anything, so each keyless record forms a singleton group.
//
// This is a single forward scan over one sorted pass, not an equivalence
// partition: duplicates the sort did not bring together get distinct groups.
func AssignGroups(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)

	const noCluster = "\x00" // never equal to a real key
	current := noCluster
	counter := 0

	for i := range out {
		key := out[i].ClusterKey
		if key == "" || key != current {
			counter++
			current = key
			if key == "" {
				current = noCluster
			}
		}
		out[i].Group = counter
	}
	return out
}

// Run is one maximal stretch of consecutive records sharing a group index.
type Run struct {
	Group  int
	Start  int // offset into the sequence the runs were computed over
	Length int
}

// Runs computes run lengths over any record sequence. Downstream renderers
// use this to place cell-merge boundaries; partitions recompute runs locally
// because partitioning can break a group's contiguity.
func Runs(records []Record) []Run {
	var runs []Run
	for i := 0; i < len(records); {
		j := i + 1
		for j < len(records) && records[j].Group == records[i].Group {
			j++
		}
		runs = append(runs, Run{Group: records[i].Group, Start: i, Length: j - i})
		i = j
	}
	return runs
}
