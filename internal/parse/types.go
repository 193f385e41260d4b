package parse

// FieldConfidence carries the per-field quality signal. Values are
// categorical presence confidence: a fixed high value when the field was
// found, a fixed low value when it was not. They carry no statistical
// meaning beyond present/absent.
type FieldConfidence struct {
	FullName float64 `json:"fullName"`
	DOB      float64 `json:"dob"`
	IDNumber float64 `json:"idNumber"`
	Address  float64 `json:"address,omitempty"`
}

// ExtractedInfo is the canonical output record of the extraction
// pipeline. Immutable once produced.
type ExtractedInfo struct {
	FullName   string          `json:"fullName"`
	DOB        string          `json:"dob"`
	IDNumber   string          `json:"idNumber"`
	IDType     string          `json:"idType"`
	Address    string          `json:"address,omitempty"`
	Confidence FieldConfidence `json:"confidence"`
}

// Presence confidence constants. Per-field "present" values differ because
// some fields are recovered from stricter patterns than others.
const (
	confNumberPresent = 0.95
	confNamePresent   = 0.9
	confDOBPresent    = 0.85
	confAddrPresent   = 0.8

	confFieldAbsent = 0.3
	confAddrAbsent  = 0.2
)

func presence(value string, present float64) float64 {
	if value != "" {
		return present
	}
	return confFieldAbsent
}

// ScoreFields assigns categorical presence confidence to a field set.
// Used both when a parser first produces a record and after merge
// resolution changes which source supplied each field.
func ScoreFields(fullName, dob, idNumber, address string) FieldConfidence {
	fc := FieldConfidence{
		FullName: presence(fullName, confNamePresent),
		DOB:      presence(dob, confDOBPresent),
		IDNumber: presence(idNumber, confNumberPresent),
	}
	if address != "" {
		fc.Address = confAddrPresent
	} else {
		fc.Address = confAddrAbsent
	}
	return fc
}
