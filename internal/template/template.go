/**
 * Card template catalog: static, versioned configuration mapping each
 * supported ID type to its region-of-interest layout on the rectified
 * card. Coordinates are fractions of the card's width/height with (0,0)
 * top-left and (1,1) bottom-right.
 */

package template

import "fmt"

// RoiKey names the field a region is expected to contain.
type RoiKey string

const (
	RoiFullName RoiKey = "fullName"
	RoiDOB      RoiKey = "dob"
	RoiIDNumber RoiKey = "idNumber"
)

// RoiSpec is one normalized region of interest on a rectified card.
// Invariant: 0 <= X,Y and X+Width <= 1, Y+Height <= 1.
type RoiSpec struct {
	Key    RoiKey
	Label  string
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// CardTemplate maps one ID type to its ROI layout.
type CardTemplate struct {
	IDType      string
	DisplayName string
	Rois        []RoiSpec
}

// The catalog is built once at package init and is read-only afterwards;
// concurrent scans share it without locking.
var catalog = map[string]*CardTemplate{
	"National ID": {
		IDType:      "National ID",
		DisplayName: "Philippine National ID (PhilSys)",
		Rois: []RoiSpec{
			{Key: RoiFullName, Label: "Full Name", X: 0.30, Y: 0.25, Width: 0.65, Height: 0.30},
			{Key: RoiDOB, Label: "Date of Birth", X: 0.30, Y: 0.55, Width: 0.45, Height: 0.14},
			{Key: RoiIDNumber, Label: "PCN", X: 0.25, Y: 0.08, Width: 0.70, Height: 0.14},
		},
	},
	"UMID": {
		IDType:      "UMID",
		DisplayName: "Unified Multi-Purpose ID",
		Rois: []RoiSpec{
			{Key: RoiFullName, Label: "Name", X: 0.32, Y: 0.28, Width: 0.63, Height: 0.28},
			{Key: RoiDOB, Label: "Date of Birth", X: 0.32, Y: 0.58, Width: 0.40, Height: 0.13},
			{Key: RoiIDNumber, Label: "CRN", X: 0.30, Y: 0.12, Width: 0.55, Height: 0.12},
		},
	},
	"Driver's License": {
		IDType:      "Driver's License",
		DisplayName: "LTO Driver's License",
		Rois: []RoiSpec{
			{Key: RoiFullName, Label: "Name", X: 0.28, Y: 0.20, Width: 0.68, Height: 0.16},
			{Key: RoiDOB, Label: "Date of Birth", X: 0.28, Y: 0.48, Width: 0.30, Height: 0.12},
			{Key: RoiIDNumber, Label: "License No", X: 0.28, Y: 0.72, Width: 0.40, Height: 0.13},
		},
	},
	"PhilHealth ID": {
		IDType:      "PhilHealth ID",
		DisplayName: "PhilHealth Identification Card",
		Rois: []RoiSpec{
			{Key: RoiIDNumber, Label: "PhilHealth No", X: 0.30, Y: 0.18, Width: 0.55, Height: 0.14},
			{Key: RoiFullName, Label: "Name", X: 0.30, Y: 0.34, Width: 0.65, Height: 0.22},
			{Key: RoiDOB, Label: "Date of Birth", X: 0.30, Y: 0.58, Width: 0.40, Height: 0.12},
		},
	},
	"SSS ID": {
		IDType:      "SSS ID",
		DisplayName: "Social Security System ID",
		Rois: []RoiSpec{
			{Key: RoiIDNumber, Label: "SS Number", X: 0.30, Y: 0.14, Width: 0.50, Height: 0.13},
			{Key: RoiFullName, Label: "Name", X: 0.30, Y: 0.30, Width: 0.65, Height: 0.26},
			{Key: RoiDOB, Label: "Date of Birth", X: 0.30, Y: 0.58, Width: 0.40, Height: 0.12},
		},
	},
}

// Lookup returns the template for an ID type, or nil when the type has no
// ROI layout. A nil template means whole-card extraction only.
func Lookup(idType string) *CardTemplate {
	return catalog[idType]
}

// SupportedTypes lists every ID type with an ROI layout.
func SupportedTypes() []string {
	types := make([]string, 0, len(catalog))
	for t := range catalog {
		types = append(types, t)
	}
	return types
}

// Validate checks the ROI invariants of a template.
func (t *CardTemplate) Validate() error {
	for _, roi := range t.Rois {
		if roi.X < 0 || roi.Y < 0 {
			return fmt.Errorf("roi %s: negative origin (%.3f, %.3f)", roi.Key, roi.X, roi.Y)
		}
		if roi.Width <= 0 || roi.Height <= 0 {
			return fmt.Errorf("roi %s: non-positive size (%.3f x %.3f)", roi.Key, roi.Width, roi.Height)
		}
		if roi.X+roi.Width > 1 || roi.Y+roi.Height > 1 {
			return fmt.Errorf("roi %s: extends past card edge", roi.Key)
		}
	}
	return nil
}
