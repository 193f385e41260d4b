package pipeline

import (
	"testing"

	"github.com/ivisit/idscan-worker/internal/classify"
	"github.com/ivisit/idscan-worker/internal/parse"
)

func TestResolveIDType(t *testing.T) {
	testCases := []struct {
		name     string
		detected classify.DetectedIDType
		expected string
		want     string
	}{
		{
			name:     "Classifier verdict wins over operator selection",
			detected: classify.DetectedIDType{IDType: "UMID", Confidence: 0.9},
			expected: "Driver's License",
			want:     "UMID",
		},
		{
			name:     "Operator selection backs up an unknown verdict",
			detected: classify.DetectedIDType{IDType: classify.Unknown},
			expected: "PhilHealth ID",
			want:     "PhilHealth ID",
		},
		{
			name:     "Nothing known",
			detected: classify.DetectedIDType{IDType: classify.Unknown},
			expected: "",
			want:     "Unknown",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolveIDType(tc.detected, tc.expected); got != tc.want {
				t.Errorf("resolveIDType = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMergeFieldsRoiPrecedence(t *testing.T) {
	roi := roiFields{
		FullName: "SANT0S, MARIA",
		DOB:      "1990-03-09",
		IDNumber: "CRN-1234-5678901-2",
	}
	parsed := parse.ExtractedInfo{
		FullName: "MARIA REYES SANTOS",
		DOB:      "1990-03-08",
		IDNumber: "CRN-9999-0000000-1",
	}

	got := mergeFields("UMID", roi, parsed)

	// dob and idNumber always prefer the targeted crop.
	if got.DOB != "1990-03-09" {
		t.Errorf("DOB = %q, want ROI value", got.DOB)
	}
	if got.IDNumber != "CRN-1234-5678901-2" {
		t.Errorf("IDNumber = %q, want ROI value", got.IDNumber)
	}
	// The ROI name passes the likelihood gate despite the 0/O confusion,
	// so it wins on a non-PhilSys card.
	if got.FullName != "SANT0S, MARIA" {
		t.Errorf("FullName = %q, want ROI value", got.FullName)
	}
	if got.IDType != "UMID" {
		t.Errorf("IDType = %q, want UMID", got.IDType)
	}
}

func TestMergeFieldsNationalIDNameFromWholeCard(t *testing.T) {
	roi := roiFields{FullName: "JUAN CRUZ"}
	parsed := parse.ExtractedInfo{FullName: "JUAN PEDRO DELA CRUZ"}

	got := mergeFields("National ID", roi, parsed)
	if got.FullName != "JUAN PEDRO DELA CRUZ" {
		t.Errorf("FullName = %q, want whole-card value on National ID", got.FullName)
	}

	// ROI still backs up an empty whole-card parse.
	got = mergeFields("National ID", roi, parse.ExtractedInfo{})
	if got.FullName != "JUAN CRUZ" {
		t.Errorf("FullName = %q, want ROI fallback", got.FullName)
	}
}

func TestMergeFieldsRejectsUnlikelyRoiName(t *testing.T) {
	roi := roiFields{FullName: "|||###@@"}
	parsed := parse.ExtractedInfo{FullName: "MARIA REYES SANTOS"}

	got := mergeFields("SSS ID", roi, parsed)
	if got.FullName != "MARIA REYES SANTOS" {
		t.Errorf("FullName = %q, want whole-card value when ROI text is junk", got.FullName)
	}
}

func TestMergeFieldsFillsGapsFromWholeCard(t *testing.T) {
	roi := roiFields{IDNumber: "N03-12-123456"}
	parsed := parse.ExtractedInfo{
		FullName: "DELA CRUZ JUAN PEDRO",
		DOB:      "1985-06-15",
		Address:  "123 MABINI ST MANILA",
	}

	got := mergeFields("Driver's License", roi, parsed)
	if got.FullName != "DELA CRUZ JUAN PEDRO" || got.DOB != "1985-06-15" || got.IDNumber != "N03-12-123456" {
		t.Errorf("merged = %+v", got)
	}
	if got.Address != "123 MABINI ST MANILA" {
		t.Errorf("Address = %q, want whole-card address", got.Address)
	}
	if got.Confidence.IDNumber < got.Confidence.Address {
		t.Errorf("confidence ordering wrong: %+v", got.Confidence)
	}
}
