package template

import (
	"image"
	"testing"
)

func TestCropRegionsPixelMath(t *testing.T) {
	card := image.NewRGBA(image.Rect(0, 0, 200, 120))
	rois := []RoiSpec{
		{Key: RoiFullName, X: 0.30, Y: 0.25, Width: 0.65, Height: 0.30},
		{Key: RoiIDNumber, X: 0.25, Y: 0.08, Width: 0.70, Height: 0.14},
	}

	crops := CropRegions(card, rois)
	if len(crops) != 2 {
		t.Fatalf("got %d crops, want 2", len(crops))
	}

	// fullName: x [60, 190), y [30, 66).
	name := crops[RoiFullName]
	if name.Bounds().Dx() != 130 || name.Bounds().Dy() != 36 {
		t.Errorf("fullName crop = %v, want 130x36", name.Bounds())
	}

	// idNumber: x [50, 190), y [9, 26).
	num := crops[RoiIDNumber]
	if num.Bounds().Dx() != 140 || num.Bounds().Dy() != 17 {
		t.Errorf("idNumber crop = %v, want 140x17", num.Bounds())
	}
}

// Regions that round to zero pixels on a small card are dropped rather
// than handed to the OCR engine as empty images.
func TestCropRegionsSkipsZeroArea(t *testing.T) {
	card := image.NewRGBA(image.Rect(0, 0, 10, 10))
	rois := []RoiSpec{
		{Key: RoiDOB, X: 0.30, Y: 0.30, Width: 0.05, Height: 0.05},
		{Key: RoiFullName, X: 0.10, Y: 0.10, Width: 0.80, Height: 0.50},
	}

	crops := CropRegions(card, rois)
	if _, ok := crops[RoiDOB]; ok {
		t.Error("zero-area region was not skipped")
	}
	if _, ok := crops[RoiFullName]; !ok {
		t.Error("viable region was skipped")
	}
}

func TestCropRegionsNilCard(t *testing.T) {
	crops := CropRegions(nil, Lookup("UMID").Rois)
	if len(crops) != 0 {
		t.Errorf("got %d crops from nil card, want 0", len(crops))
	}
}

// Crop offsets are relative to the image's own bounds, which do not
// always start at the origin after a sub-image crop upstream.
func TestCropRegionsNonZeroOrigin(t *testing.T) {
	card := image.NewRGBA(image.Rect(40, 30, 240, 150))
	crops := CropRegions(card, []RoiSpec{
		{Key: RoiDOB, X: 0.30, Y: 0.55, Width: 0.45, Height: 0.14},
	})

	dob, ok := crops[RoiDOB]
	if !ok {
		t.Fatal("dob region missing")
	}
	if dob.Bounds().Dx() != 90 || dob.Bounds().Dy() != 16 {
		t.Errorf("dob crop = %v, want 90x16", dob.Bounds())
	}
}
