package template

import (
	"image"

	"github.com/disintegration/imaging"
)

// CropRegions cuts each ROI out of the card image (rectified, or raw when
// rectification failed) into its own sub-image for targeted OCR. Pixel
// rectangles are computed against the image's actual dimensions; ROIs with
// zero crop area are skipped silently.
func CropRegions(card image.Image, rois []RoiSpec) map[RoiKey]image.Image {
	crops := make(map[RoiKey]image.Image, len(rois))
	if card == nil {
		return crops
	}

	b := card.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	for _, roi := range rois {
		x0 := int(roi.X * w)
		y0 := int(roi.Y * h)
		x1 := int((roi.X + roi.Width) * w)
		y1 := int((roi.Y + roi.Height) * h)

		if x1 <= x0 || y1 <= y0 {
			continue
		}

		crop := imaging.Crop(card, image.Rect(b.Min.X+x0, b.Min.Y+y0, b.Min.X+x1, b.Min.Y+y1))
		if crop.Bounds().Dx() == 0 || crop.Bounds().Dy() == 0 {
			continue
		}
		crops[roi.Key] = crop
	}
	return crops
}
