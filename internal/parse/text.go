package parse

import (
	"regexp"
	"strings"
	"unicode"
)

// Shared text heuristics: label-anchored line lookup, name likelihood,
// generic ID-token detection, conservative name cleanup.

// labelWords flag a line as a field label rather than a value.
var labelWords = []string{
	"name", "birth", "sex", "date", "address", "nationality",
	"apelyido", "pangalan", "kapanganakan", "signature", "number",
	"expiry", "expiration", "issued", "agency", "blood",
}

// recognizedLabelRe matches a line that is itself a known field label, so
// label-anchored lookup never takes a label as a value.
var recognizedLabelRe = regexp.MustCompile(`(?i)^(last\s*name|first\s*name|middle\s*name|given\s*names?|surname|apelyido|gitnang\s*apelyido|mga\s*pangalan|date\s*of\s*birth|petsa\s*ng\s*kapanganakan|address|tirahan|sex|kasarian|nationality|blood\s*type)\s*:?\s*$`)

// leakedLabelRe strips label fragments that bleed into cropped field
// text. Deliberately conservative: exact known phrases only, so
// legitimate name text is never corrupted.
var leakedLabelRe = regexp.MustCompile(`(?i)\b(last\s*name|first\s*name|middle\s*name|given\s*names?|surname|apelyido|gitnang\s*apelyido|mga\s*pangalan|date\s*of\s*birth|petsa\s*ng\s*kapanganakan)\b:?`)

// Lines splits text into trimmed, non-empty lines.
func Lines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, ln := range raw {
		ln = strings.TrimSpace(ln)
		if ln != "" {
			out = append(out, ln)
		}
	}
	return out
}

// ValueAfterLabel finds a line matching labelRe and returns the next line
// as the value, unless that next line is itself a recognized label.
func ValueAfterLabel(lines []string, labelRe *regexp.Regexp) string {
	for i, ln := range lines {
		if !labelRe.MatchString(ln) {
			continue
		}
		if i+1 >= len(lines) {
			return ""
		}
		next := lines[i+1]
		if recognizedLabelRe.MatchString(next) {
			return ""
		}
		return next
	}
	return ""
}

// IsLikelyName reports whether a line looks like a person's name:
// length >= 5, at least two whitespace-separated tokens, at least 60% of
// characters letters or spaces, and no label words.
func IsLikelyName(line string) bool {
	line = strings.TrimSpace(line)
	if len(line) < 5 {
		return false
	}
	if len(strings.Fields(line)) < 2 {
		return false
	}

	letters := 0
	total := 0
	for _, r := range line {
		total++
		if unicode.IsLetter(r) || r == ' ' {
			letters++
		}
	}
	if total == 0 || float64(letters)/float64(total) < 0.6 {
		return false
	}

	lower := strings.ToLower(line)
	for _, w := range labelWords {
		if strings.Contains(lower, w) {
			return false
		}
	}
	return true
}

// FindLikelyName scans the lines for name candidates and returns the
// longest one, or "".
func FindLikelyName(lines []string) string {
	best := ""
	for _, ln := range lines {
		if IsLikelyName(ln) && len(ln) > len(best) {
			best = ln
		}
	}
	return best
}

// FindIDToken scans text for a generic ID-number candidate: a
// whitespace-delimited token of length >= 6 containing at least one digit
// with at least 70% alphanumeric-or-hyphen characters. The longest
// candidate wins; trailing punctuation is stripped.
func FindIDToken(text string) string {
	best := ""
	for _, tok := range strings.Fields(text) {
		tok = strings.TrimRight(tok, ".,:;")
		if len(tok) < 6 {
			continue
		}

		digits := 0
		clean := 0
		for _, r := range tok {
			if unicode.IsDigit(r) {
				digits++
			}
			if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
				clean++
			}
		}
		if digits == 0 {
			continue
		}
		if float64(clean)/float64(len(tok)) < 0.7 {
			continue
		}
		if len(tok) > len(best) {
			best = tok
		}
	}
	return best
}

// CleanNameField strips leaked label fragments and date fragments from a
// cropped name field, collapsing leftover whitespace.
func CleanNameField(s string) string {
	s = leakedLabelRe.ReplaceAllString(s, " ")
	s = monthNameDateRe.ReplaceAllString(s, " ")
	s = slashDateRe.ReplaceAllString(s, " ")
	s = hyphenDateRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
