/**
 * Multi-pass enhancement variants for OCR.
 *
 * Five deterministic preprocessing renderings of the same card image.
 * Each pass targets a different card finish: standard print, faded text,
 * dark backgrounds, security-pattern-heavy backgrounds, uneven lighting.
 */

package raster

import (
	"image"

	"github.com/disintegration/imaging"
)

// Variant identifies one enhancement rendering.
type Variant string

const (
	VariantStandard      Variant = "standard"
	VariantHighContrast  Variant = "highContrast"
	VariantInverted      Variant = "inverted"
	VariantBinarized     Variant = "binarized"
	VariantAdaptiveLocal Variant = "adaptiveLocal"
)

// minOCRWidth is the minimum rendering width handed to the OCR engine.
const minOCRWidth = 1200

// adaptiveLocalWindow is the neighborhood size for local normalization.
const adaptiveLocalWindow = 15

// Variants returns the enumeration order. The pass selector resolves score
// ties to the earliest variant in this slice.
func Variants() []Variant {
	return []Variant{
		VariantStandard,
		VariantHighContrast,
		VariantInverted,
		VariantBinarized,
		VariantAdaptiveLocal,
	}
}

// Enhance produces the given preprocessing variant of the input image.
func Enhance(img image.Image, v Variant) image.Image {
	switch v {
	case VariantHighContrast:
		gray := ToGray(img)
		sharpened := SharpenLaplacian(gray)
		// Aggressive linear boost for faded or washed-out text.
		contrasted := Rescale(sharpened, 2.0, -50)
		return resizeMinWidth(contrasted)

	case VariantInverted:
		gray := ToGray(img)
		inverted := Invert(gray)
		contrasted := AdaptiveContrast(inverted)
		return resizeMinWidth(contrasted)

	case VariantBinarized:
		gray := ToGray(img)
		bin := Binarize(gray, uint8(OtsuThreshold(gray)))
		return resizeMinWidth(bin)

	case VariantAdaptiveLocal:
		gray := ToGray(img)
		normalized := AdaptiveLocalNormalize(gray, adaptiveLocalWindow)
		return resizeMinWidth(normalized)

	default: // VariantStandard
		gray := ToGray(img)
		sharpened := SharpenLaplacian(gray)
		contrasted := AdaptiveContrast(sharpened)
		return resizeMinWidth(contrasted)
	}
}

// AdaptiveContrast boosts contrast with an Otsu-derived scale factor.
// Dark images (low threshold) get more boost, bright images less.
func AdaptiveContrast(gray *image.Gray) *image.Gray {
	threshold := OtsuThreshold(gray)
	return Rescale(gray, AdaptiveContrastScale(threshold), 0)
}

// AdaptiveContrastScale derives the contrast scale from an Otsu threshold:
// 1.2 + (128-t)/256, clamped to [1.1, 2.0]. Extreme thresholds (<30 or
// >220) indicate atypical brightness, so a fixed 1.5 is used instead of
// over/under-correcting.
func AdaptiveContrastScale(threshold int) float64 {
	if threshold < 30 || threshold > 220 {
		return 1.5
	}

	scale := 1.2 + (128.0-float64(threshold))/256.0
	if scale < 1.1 {
		scale = 1.1
	}
	if scale > 2.0 {
		scale = 2.0
	}
	return scale
}

// resizeMinWidth upscales to minOCRWidth when narrower, preserving aspect.
func resizeMinWidth(img image.Image) image.Image {
	if img.Bounds().Dx() >= minOCRWidth {
		return img
	}
	return imaging.Resize(img, minOCRWidth, 0, imaging.Linear)
}
