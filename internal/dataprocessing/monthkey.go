package dataprocessing

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrMonthKeyNotFound is returned when a name carries no "MONTH YEAR" token.
var ErrMonthKeyNotFound = errors.New("month/year not found in name")

// unrecognizedMonthPrefix sorts after every "YYYY-MM" key.
const unrecognizedMonthPrefix = "9999-"

// monthNumbers maps canonical Portuguese month names to their number.
var monthNumbers = map[string]string{
	"JANEIRO":   "01",
	"FEVEREIRO": "02",
	"MARÇO":     "03",
	"ABRIL":     "04",
	"MAIO":      "05",
	"JUNHO":     "06",
	"JULHO":     "07",
	"AGOSTO":    "08",
	"SETEMBRO":  "09",
	"OUTUBRO":   "10",
	"NOVEMBRO":  "11",
	"DEZEMBRO":  "12",
}

// canonicalMonths maps accent-free spellings back to the canonical name.
var canonicalMonths = func() map[string]string {
	m := make(map[string]string, len(monthNumbers))
	for name := range monthNumbers {
		m[foldAccents(name)] = name
	}
	return m
}()

// monthYearPattern matches a month name followed by a four-digit year,
// separated by any run of spaces, dashes, underscores, dots or slashes.
var monthYearPattern = regexp.MustCompile(
	`(?i)(JANEIRO|FEVEREIRO|MAR[ÇC]O|ABRIL|MAIO|JUNHO|JULHO|AGOSTO|SETEMBRO|OUTUBRO|NOVEMBRO|DEZEMBRO)[\s\-_./]*(\d{4})`,
)

// ExtractMonthYear finds the first "MONTH YEAR" token in name and returns it
// as "MONTH/YEAR" with the month in its canonical upper-case spelling, e.g.
// "vendas - março - 2025.xlsx" → "MARÇO/2025".
func ExtractMonthYear(name string) (string, error) {
	// Decomposed names (macOS file pickers) would not match MARÇO otherwise.
	match := monthYearPattern.FindStringSubmatch(norm.NFC.String(name))
	if match == nil {
		return "", fmt.Errorf("%w: %q", ErrMonthKeyNotFound, name)
	}

	month, ok := canonicalMonth(match[1])
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMonthKeyNotFound, name)
	}
	return month + "/" + match[2], nil
}

// SortableMonthKey turns "MONTH/YEAR" into "YEAR-MM" for lexical ordering.
// Unrecognized input maps to "9999-<input>" so it sorts after valid months.
func SortableMonthKey(monthYear string) string {
	parts := strings.Split(monthYear, "/")
	if len(parts) == 2 {
		if month, ok := canonicalMonth(parts[0]); ok {
			return strings.TrimSpace(parts[1]) + "-" + monthNumbers[month]
		}
	}
	return unrecognizedMonthPrefix + monthYear
}

// SortMonths orders month keys chronologically in place.
func SortMonths(months []string) {
	sort.SliceStable(months, func(i, j int) bool {
		ki, kj := SortableMonthKey(months[i]), SortableMonthKey(months[j])
		if ki != kj {
			return ki < kj
		}
		return months[i] < months[j]
	})
}

func canonicalMonth(token string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(norm.NFC.String(token)))
	if _, ok := monthNumbers[upper]; ok {
		return upper, true
	}
	month, ok := canonicalMonths[foldAccents(upper)]
	return month, ok
}

// foldAccents strips combining marks: "MARÇO" → "MARCO".
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}
