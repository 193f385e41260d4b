/**
 * Per-ID-type field parsers.
 *
 * Each parser takes whole-card OCR text and returns an ExtractedInfo with
 * categorical per-field confidence. Layout knowledge (which labels a card
 * prints, which number pattern it carries) lives here; everything shared
 * (dates, name likelihood, token heuristics) lives in text.go/dates.go.
 */

package parse

import (
	"regexp"
	"strings"
)

var (
	lastNameLabelRe   = regexp.MustCompile(`(?i)^(last\s*name|surname|apelyido)\s*:?\s*$`)
	givenNameLabelRe  = regexp.MustCompile(`(?i)^(given\s*names?|first\s*name|mga\s*pangalan)\s*:?\s*$`)
	middleNameLabelRe = regexp.MustCompile(`(?i)^(middle\s*name|gitnang\s*apelyido)\s*:?\s*$`)
	dobLabelRe        = regexp.MustCompile(`(?i)^(date\s*of\s*birth|petsa\s*ng\s*kapanganakan|birthday)\s*:?\s*$`)
	addressLabelRe    = regexp.MustCompile(`(?i)^(address|tirahan)\s*:?\s*$`)
)

// parser is one text-to-fields extractor.
type parser func(text string) ExtractedInfo

var parsers = map[string]parser{
	"National ID":      parseNationalID,
	"UMID":             parseUMID,
	"Driver's License": parseDriversLicense,
	"PhilHealth ID":    parsePhilHealth,
	"SSS ID":           parseSSS,
}

// Parse extracts fields from whole-card text using the parser for the
// given ID type, falling back to the generic parser for unknown types.
func Parse(idType, text string) ExtractedInfo {
	p, ok := parsers[idType]
	if !ok {
		p = parseGeneric
	}

	info := p(text)
	info.IDType = idType
	info.Confidence = ScoreFields(info.FullName, info.DOB, info.IDNumber, info.Address)
	return info
}

// parseNationalID handles the PhilSys card: Filipino field labels with
// the value on the following line, and the 16-digit PCN.
func parseNationalID(text string) ExtractedInfo {
	lines := Lines(text)

	last := CleanNameField(ValueAfterLabel(lines, lastNameLabelRe))
	given := CleanNameField(ValueAfterLabel(lines, givenNameLabelRe))
	middle := CleanNameField(ValueAfterLabel(lines, middleNameLabelRe))

	// PhilSys prints given + middle + last reading order.
	parts := make([]string, 0, 3)
	for _, p := range []string{given, middle, last} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	fullName := strings.Join(parts, " ")
	if fullName == "" {
		fullName = FindLikelyName(lines)
	}

	dob := NormalizeDate(ValueAfterLabel(lines, dobLabelRe))
	if dob == "" {
		dob = FindDate(text)
	}

	return ExtractedInfo{
		FullName: fullName,
		DOB:      dob,
		IDNumber: ExtractNationalIDNumber(text),
		Address:  CleanNameField(ValueAfterLabel(lines, addressLabelRe)),
	}
}

// parseUMID handles the UMID card: uppercase English labels and the CRN.
func parseUMID(text string) ExtractedInfo {
	lines := Lines(text)

	last := CleanNameField(ValueAfterLabel(lines, lastNameLabelRe))
	given := CleanNameField(ValueAfterLabel(lines, givenNameLabelRe))
	middle := CleanNameField(ValueAfterLabel(lines, middleNameLabelRe))

	parts := make([]string, 0, 3)
	for _, p := range []string{given, middle, last} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	fullName := strings.Join(parts, " ")
	if fullName == "" {
		fullName = FindLikelyName(lines)
	}

	idNumber := ""
	if m := crnNumberRe.FindStringSubmatch(text); m != nil {
		idNumber = "CRN-" + m[1]
	}

	dob := NormalizeDate(ValueAfterLabel(lines, dobLabelRe))
	if dob == "" {
		dob = FindDate(text)
	}

	return ExtractedInfo{
		FullName: fullName,
		DOB:      dob,
		IDNumber: idNumber,
		Address:  CleanNameField(ValueAfterLabel(lines, addressLabelRe)),
	}
}

// parseDriversLicense handles the LTO license: a single
// "LASTNAME, FIRSTNAME MIDDLENAME" line and the license number pattern.
func parseDriversLicense(text string) ExtractedInfo {
	lines := Lines(text)

	// Prefer a comma-separated surname line; fall back to likelihood.
	fullName := ""
	for _, ln := range lines {
		if strings.Contains(ln, ",") && IsLikelyName(strings.ReplaceAll(ln, ",", " ")) {
			fullName = CleanNameField(strings.ReplaceAll(ln, ",", " "))
			break
		}
	}
	if fullName == "" {
		fullName = FindLikelyName(lines)
	}

	return ExtractedInfo{
		FullName: fullName,
		DOB:      FindDate(text),
		IDNumber: licenseNumberRe.FindString(text),
	}
}

// parsePhilHealth handles the PhilHealth card.
func parsePhilHealth(text string) ExtractedInfo {
	lines := Lines(text)
	return ExtractedInfo{
		FullName: FindLikelyName(lines),
		DOB:      FindDate(text),
		IDNumber: philHealthNumberRe.FindString(text),
	}
}

// parseSSS handles the SSS card.
func parseSSS(text string) ExtractedInfo {
	lines := Lines(text)
	return ExtractedInfo{
		FullName: FindLikelyName(lines),
		DOB:      FindDate(text),
		IDNumber: sssNumberRe.FindString(text),
	}
}

// parseGeneric is the fallback for unrecognized layouts: pure heuristics,
// no layout knowledge.
func parseGeneric(text string) ExtractedInfo {
	lines := Lines(text)
	return ExtractedInfo{
		FullName: FindLikelyName(lines),
		DOB:      FindDate(text),
		IDNumber: FindIDToken(text),
	}
}
