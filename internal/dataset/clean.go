package dataset

import (
	"regexp"
	"strings"
)

// unitPattern matches unit suffixes (optionally preceded by one whitespace),
// currency symbols, thousands separators and double quotes.
var unitPattern = regexp.MustCompile(`(?i)(\s?gb|\s?mp|\s?mah|\$|,|")`)

// nullMarkers are the cell spellings treated as missing, matching the default
// NA markers of common dataframe CSV readers.
var nullMarkers = map[string]struct{}{
	"":          {},
	"#N/A":      {},
	"#N/A N/A":  {},
	"#NA":       {},
	"-1.#IND":   {},
	"-1.#QNAN":  {},
	"-NaN":      {},
	"-nan":      {},
	"1.#IND":    {},
	"1.#QNAN":   {},
	"<NA>":      {},
	"N/A":       {},
	"NA":        {},
	"NULL":      {},
	"NaN":       {},
	"None":      {},
	"n/a":       {},
	"nan":       {},
	"null":      {},
}

// IsNull reports whether a raw cell value stands for a missing value.
func IsNull(v string) bool {
	_, ok := nullMarkers[v]
	return ok
}

// CleanValue strips unit suffixes, currency symbols, commas and quotes from a
// raw cell and trims the result. A missing cell yields "". Nothing else is
// validated, so malformed numbers pass through.
func CleanValue(v string, ok bool) string {
	if !ok || IsNull(v) {
		return ""
	}
	return strings.TrimSpace(unitPattern.ReplaceAllString(v, ""))
}

// RawValue returns a cell as-is, or "" when it is missing.
func RawValue(v string, ok bool) string {
	if !ok || IsNull(v) {
		return ""
	}
	return v
}

var columnReplacer = strings.NewReplacer(" ", "_", "(", "", ")", "", ".", "")

// NormalizeColumn turns a CSV header into a snake_case key:
// "Screen Size (inches)" becomes "screen_size_inches".
func NormalizeColumn(name string) string {
	return strings.ToLower(columnReplacer.Replace(strings.TrimSpace(name)))
}
