package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Date normalization: three recognized input shapes, canonical output
// YYYY-MM-DD. Unparseable input yields "" - the pipeline never emits a
// best-guess date.

var monthNumbers = map[string]int{
	"JANUARY": 1, "FEBRUARY": 2, "MARCH": 3, "APRIL": 4, "MAY": 5,
	"JUNE": 6, "JULY": 7, "AUGUST": 8, "SEPTEMBER": 9, "OCTOBER": 10,
	"NOVEMBER": 11, "DECEMBER": 12,
	"JAN": 1, "FEB": 2, "MAR": 3, "APR": 4, "JUN": 6, "JUL": 7,
	"AUG": 8, "SEP": 9, "SEPT": 9, "OCT": 10, "NOV": 11, "DEC": 12,
}

var (
	// "January 3 1999", "Jan. 3, 1999"
	monthNameDateRe = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sept|Sep|Oct|Nov|Dec)\.?\s+(\d{1,2})\s*,?\s*(\d{2,4})\b`)

	// "01/03/1999" read positionally as MM/DD/YYYY
	slashDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{2,4})\b`)

	// "03-01-1999" read positionally as DD-MM-YYYY
	hyphenDateRe = regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{4})\b`)
)

// NormalizeDate converts a recognized date string to canonical
// YYYY-MM-DD. Numeric forms are treated positionally as given
// (MM/DD/YYYY for slashes, DD-MM-YYYY for hyphens); two-digit years are
// expanded by prefixing "20". Returns "" when no recognized form matches.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if m := monthNameDateRe.FindStringSubmatch(s); m != nil {
		month, ok := monthNumbers[strings.ToUpper(m[1])]
		if ok {
			day, _ := strconv.Atoi(m[2])
			year := expandYear(m[3])
			return formatDate(year, month, day)
		}
	}

	if m := slashDateRe.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year := expandYear(m[3])
		return formatDate(year, month, day)
	}

	if m := hyphenDateRe.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year := expandYear(m[3])
		return formatDate(year, month, day)
	}

	return ""
}

// FindDate scans whole-card text for the first recognizable date.
func FindDate(text string) string {
	if m := monthNameDateRe.FindString(text); m != "" {
		if d := NormalizeDate(m); d != "" {
			return d
		}
	}
	if m := slashDateRe.FindString(text); m != "" {
		if d := NormalizeDate(m); d != "" {
			return d
		}
	}
	if m := hyphenDateRe.FindString(text); m != "" {
		if d := NormalizeDate(m); d != "" {
			return d
		}
	}
	return ""
}

// expandYear widens a two-digit year by prefixing "20".
func expandYear(s string) int {
	if len(s) == 2 {
		s = "20" + s
	}
	y, _ := strconv.Atoi(s)
	return y
}

// formatDate emits canonical YYYY-MM-DD, rejecting out-of-range parts.
func formatDate(year, month, day int) string {
	if year < 1000 || year > 9999 || month < 1 || month > 12 || day < 1 || day > 31 {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}
