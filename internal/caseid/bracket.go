package caseid

import (
	"regexp"
	"strings"
)

// Fallback extraction for titles that carry the case number in a bracketed
// token instead of the primary reference format. Tried with the decision
// prefix first, then without.
var (
	bracketWithPrefix = regexp.MustCompile(`\(\s*(CAS|TAS) (\d{2,4})? ?([A-Z ]+)(.*?)\)`)
	bracketBare       = regexp.MustCompile(`\(\s*(\d{2,4})? ?([A-Z ]+)(.*?)\)`)
)

// ParseBracketed returns the raw case-number token from a bracketed
// reference like "(CAS 2011 A 2384)" or "(2011 A 2384)", without the
// surrounding parentheses. The second return reports whether a token
// was found.
func ParseBracketed(title string) (string, bool) {
	m := bracketWithPrefix.FindString(title)
	if m == "" {
		m = bracketBare.FindString(title)
	}
	if m == "" {
		return "", false
	}
	return strings.Trim(m, "() \t"), true
}
