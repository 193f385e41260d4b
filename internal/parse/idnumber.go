package parse

import (
	"regexp"
	"strings"
)

// National ID (PhilSys) number recovery. OCR routinely confuses O with 0
// and I/l with 1 inside the 16-digit PCN; the extractor accepts the noisy
// form, re-derives the digit sequence, and re-emits it canonically - but
// only when exactly 16 digits result. A wrong-length match is rejected
// rather than emitted as a plausible-looking but wrong ID.

var (
	// Four groups of four "digit-ish" characters, separators optional.
	noisyPCNGroupedRe = regexp.MustCompile(`[0-9OoIl]{4}[-\s]?[0-9OoIl]{4}[-\s]?[0-9OoIl]{4}[-\s]?[0-9OoIl]{3,5}`)

	// An unseparated run that could be the PCN plus one stray character.
	noisyPCNRunRe = regexp.MustCompile(`[0-9OoIl]{15,17}`)

	ocrDigitFixer = strings.NewReplacer("O", "0", "o", "0", "I", "1", "l", "1")
)

// ExtractNationalIDNumber recovers a 16-digit PhilSys card number from
// noisy whole-card text and returns it as ####-####-####-####, or ""
// when no exactly-16-digit sequence is present. A candidate flanked by a
// further digit-ish character is part of a longer sequence: the grouped
// pattern must not skip a stray leading digit and salvage a wrong ID out
// of a 17-digit run.
func ExtractNationalIDNumber(text string) string {
	for _, re := range []*regexp.Regexp{noisyPCNGroupedRe, noisyPCNRunRe} {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if isDigitish(text, loc[0]-1) || isDigitish(text, loc[1]) {
				continue
			}
			digits := cleanDigits(text[loc[0]:loc[1]])
			if len(digits) == 16 {
				return digits[0:4] + "-" + digits[4:8] + "-" + digits[8:12] + "-" + digits[12:16]
			}
		}
	}
	return ""
}

// isDigitish reports whether the byte at i could be part of the digit
// sequence (a digit or an OCR-confused stand-in).
func isDigitish(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	switch c := s[i]; {
	case c >= '0' && c <= '9':
		return true
	case c == 'O' || c == 'o' || c == 'I' || c == 'l':
		return true
	}
	return false
}

// cleanDigits maps OCR-confused characters back to digits and drops
// separators.
func cleanDigits(s string) string {
	s = ocrDigitFixer.Replace(s)
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Per-type ID number patterns used by the field parsers.
var (
	crnNumberRe        = regexp.MustCompile(`CRN-?\s*(\d{4}-\d{7}-\d)`)
	licenseNumberRe    = regexp.MustCompile(`\b[A-Z]?\d{2,3}-\d{2}-\d{6}\b`)
	philHealthNumberRe = regexp.MustCompile(`\b\d{2}-\d{9}-\d\b`)
	sssNumberRe        = regexp.MustCompile(`\b\d{2}-\d{7}-\d\b`)
)
