/**
 * ID-Type Classifier
 *
 * Scores whole-card OCR text against known ID-type signatures. The
 * signature table is an explicit, priority-ordered list: more specific
 * signatures sit first so a card carrying overlapping markers (UMID cards
 * also mention the Republic and social security) lands on the strongest
 * evidence. Reordering the table changes behavior; the order is part of
 * the contract and covered by tests.
 */

package classify

import (
	"regexp"
	"strings"
)

// DetectedIDType is the classifier verdict for one card text.
type DetectedIDType struct {
	IDType          string
	Confidence      float64
	MatchedPatterns []string
}

// Unknown is the fallback verdict.
const Unknown = "Other"

var (
	// 16-digit PhilSys card number, grouped by hyphens.
	nationalIDPattern = regexp.MustCompile(`\d{4}-\d{4}-\d{4}-\d{4}`)

	// UMID common reference number.
	crnPattern = regexp.MustCompile(`CRN-?\s*\d{4}-\d{7}-\d`)

	// LTO license number, e.g. N01-23-456789.
	licenseNumberPattern = regexp.MustCompile(`\b[A-Z]?\d{2,3}-\d{2}-\d{6}\b`)

	// PhilHealth identification number.
	philHealthNumberPattern = regexp.MustCompile(`\b\d{2}-\d{9}-\d\b`)

	// SSS number.
	sssNumberPattern = regexp.MustCompile(`\b\d{2}-\d{7}-\d\b`)

	// Standalone SSS token (not part of a longer word).
	sssTokenPattern = regexp.MustCompile(`\bSSS\b`)
)

// signature is one entry of the priority table.
type signature struct {
	idType     string
	confidence float64
	match      func(upper string) []string
}

// signatures is evaluated top to bottom; the first hit wins.
var signatures = []signature{
	{
		// 1. National ID: the PCN digit grouping is unambiguous.
		idType:     "National ID",
		confidence: 0.95,
		match: func(upper string) []string {
			if m := nationalIDPattern.FindString(upper); m != "" {
				return []string{m}
			}
			return nil
		},
	},
	{
		// 2. UMID: must precede SSS because UMID cards carry phrases
		// that would otherwise trip the SSS heuristics.
		idType:     "UMID",
		confidence: 0.95,
		match: func(upper string) []string {
			var matched []string
			if m := crnPattern.FindString(upper); m != "" {
				matched = append(matched, m)
			}
			if strings.Contains(upper, "UMID") {
				matched = append(matched, "UMID")
			}
			if strings.Contains(upper, "REPUBLIC OF THE PHILIPPINES") &&
				(strings.Contains(upper, "MULTI-PURPOSE") || strings.Contains(upper, "UNIFIED")) {
				matched = append(matched, "REPUBLIC OF THE PHILIPPINES", "MULTI-PURPOSE/UNIFIED")
			}
			return matched
		},
	},
	{
		// 3. Driver's License.
		idType:     "Driver's License",
		confidence: 0.9,
		match: func(upper string) []string {
			var matched []string
			for _, phrase := range []string{"LAND TRANSPORTATION OFFICE", "DRIVER'S LICENSE", "DRIVERS LICENSE", "PROFESSIONAL LICENSE", "NON-PROFESSIONAL"} {
				if strings.Contains(upper, phrase) {
					matched = append(matched, phrase)
				}
			}
			if m := licenseNumberPattern.FindString(upper); m != "" {
				matched = append(matched, m)
			}
			return matched
		},
	},
	{
		// 4. PhilHealth.
		idType:     "PhilHealth ID",
		confidence: 0.9,
		match: func(upper string) []string {
			var matched []string
			if strings.Contains(upper, "PHILHEALTH") {
				matched = append(matched, "PHILHEALTH")
			}
			if strings.Contains(upper, "PHILIPPINE HEALTH INSURANCE") {
				matched = append(matched, "PHILIPPINE HEALTH INSURANCE")
			}
			if m := philHealthNumberPattern.FindString(upper); m != "" {
				matched = append(matched, m)
			}
			return matched
		},
	},
	{
		// 5. SSS: a bare "SSS" token only counts alongside an SS number,
		// and never when stronger UMID/PhilSys markers are present.
		idType:     "SSS ID",
		confidence: 0.85,
		match: func(upper string) []string {
			if strings.Contains(upper, "SOCIAL SECURITY SYSTEM") {
				return []string{"SOCIAL SECURITY SYSTEM"}
			}
			if strings.Contains(upper, "UMID") || strings.Contains(upper, "PHILSYS") ||
				strings.Contains(upper, "MULTI-PURPOSE") {
				return nil
			}
			if sssTokenPattern.MatchString(upper) {
				if m := sssNumberPattern.FindString(upper); m != "" {
					return []string{"SSS", m}
				}
			}
			return nil
		},
	},
	{
		// 6. City / Barangay ID.
		idType:     "City ID",
		confidence: 0.8,
		match: func(upper string) []string {
			var matched []string
			for _, phrase := range []string{"CITY OF", "MUNICIPALITY", "CITY ID", "BARANGAY"} {
				if strings.Contains(upper, phrase) {
					matched = append(matched, phrase)
				}
			}
			return matched
		},
	},
	{
		// 7. School ID.
		idType:     "School ID",
		confidence: 0.7,
		match: func(upper string) []string {
			var matched []string
			for _, phrase := range []string{"UNIVERSITY", "COLLEGE", "STUDENT ID", "STUDENT NUMBER"} {
				if strings.Contains(upper, phrase) {
					matched = append(matched, phrase)
				}
			}
			return matched
		},
	},
}

// Classify inspects whole-card OCR text and guesses the document type.
// The default verdict is "Other" with confidence 0.3.
func Classify(text string) DetectedIDType {
	upper := strings.ToUpper(text)

	for _, sig := range signatures {
		if matched := sig.match(upper); len(matched) > 0 {
			return DetectedIDType{
				IDType:          sig.idType,
				Confidence:      sig.confidence,
				MatchedPatterns: matched,
			}
		}
	}

	return DetectedIDType{IDType: Unknown, Confidence: 0.3}
}
