package pipeline

import (
	"github.com/ivisit/idscan-worker/internal/classify"
	"github.com/ivisit/idscan-worker/internal/parse"
)

// Merge resolution: deterministic precedence between ROI-derived fields
// and whole-card parsed fields.

// resolveIDType picks the final type: classifier verdict first, then the
// operator's expected type, then "Unknown".
func resolveIDType(detected classify.DetectedIDType, expectedIDType string) string {
	if detected.IDType != classify.Unknown {
		return detected.IDType
	}
	if expectedIDType != "" {
		return expectedIDType
	}
	return "Unknown"
}

// mergeFields reconciles the two extraction sources into one record.
//
// dob and idNumber prefer the ROI value: a targeted crop usually carries
// less background noise. fullName is the exception: on the National ID
// the whole-card parse is the more reliable source for the three-part
// name, so it wins; for every other type the ROI name is used only when
// it actually looks like a name.
func mergeFields(idType string, roi roiFields, parsed parse.ExtractedInfo) parse.ExtractedInfo {
	out := parse.ExtractedInfo{
		IDType:  idType,
		Address: parsed.Address,
	}

	out.DOB = firstNonEmpty(roi.DOB, parsed.DOB)
	out.IDNumber = firstNonEmpty(roi.IDNumber, parsed.IDNumber)

	if idType == "National ID" {
		out.FullName = firstNonEmpty(parsed.FullName, roi.FullName)
	} else if roi.FullName != "" && parse.IsLikelyName(roi.FullName) {
		out.FullName = roi.FullName
	} else {
		out.FullName = parsed.FullName
	}

	out.Confidence = parse.ScoreFields(out.FullName, out.DOB, out.IDNumber, out.Address)
	return out
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
