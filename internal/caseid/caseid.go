package caseid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Sentinel values used when a bare case number appears with nothing to
// inherit a year or series from.
const (
	SentinelYear   = 0
	SentinelSeries = "X"
)

// Identifier is one structured case reference extracted from a title,
// in the form "<prefix> <year> <series> <number>".
type Identifier struct {
	Prefix string // "CAS" or "TAS"
	Year   int
	Series string // 1-3 uppercase letters
	Number string

	Inherited     bool // year and series carried over from a preceding full reference
	LowConfidence bool // bare number with no preceding full reference; sentinel year/series
}

// Canonical returns the identifier as "<prefix> <year> <series> <number>".
// The year is always rendered with four digits, so sentinel identifiers
// read "CAS 0000 X 123" and stay visibly suspect.
func (id Identifier) Canonical() string {
	return fmt.Sprintf("%s %04d %s %s", id.Prefix, id.Year, id.Series, id.Number)
}

var (
	// A decision reference: prefix, then one or more '+'-joined fragments.
	// Each fragment is a full "YYYY SER NNN" triple or a bare number.
	refPattern = regexp.MustCompile(`\b(CAS|TAS)\s((?:\d{4}\s[A-Z]{1,3}\s)?\d{1,9}(?:\s?\+\s?(?:\d{4}\s[A-Z]{1,3}\s)?\d{1,9})*)`)

	plusJoin = regexp.MustCompile(`\s?\+\s?`)
)

// Parse extracts every case identifier from a title, in order of appearance.
// Within one matched reference, bare-number fragments inherit year and series
// from the most recent full fragment; the carry-over resets at each new match.
// A title with no references yields nil, which is not an error.
func Parse(title string) []Identifier {
	var ids []Identifier

	for _, m := range refPattern.FindAllStringSubmatch(title, -1) {
		prefix := m[1]
		body := plusJoin.ReplaceAllString(m[2], " + ")

		year := SentinelYear
		series := SentinelSeries
		seenFull := false

		for _, frag := range strings.Split(body, " + ") {
			parts := strings.Fields(frag)
			switch len(parts) {
			case 3:
				y, err := strconv.Atoi(parts[0])
				if err != nil {
					continue
				}
				year = y
				series = parts[1]
				seenFull = true
				ids = append(ids, Identifier{
					Prefix: prefix,
					Year:   year,
					Series: series,
					Number: parts[2],
				})
			case 1:
				ids = append(ids, Identifier{
					Prefix:        prefix,
					Year:          year,
					Series:        series,
					Number:        parts[0],
					Inherited:     seenFull,
					LowConfidence: !seenFull,
				})
			}
		}
	}

	return ids
}

// CanonicalString joins the canonical forms of several identifiers with " & ".
// An empty sequence yields "".
func CanonicalString(ids []Identifier) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.Canonical()
	}
	return strings.Join(parts, " & ")
}

// ClusterKey returns the last six characters of s, the fingerprint used to
// detect related records. Shorter strings are returned whole; "" stays "".
func ClusterKey(s string) string {
	if len(s) <= 6 {
		return s
	}
	return s[len(s)-6:]
}
