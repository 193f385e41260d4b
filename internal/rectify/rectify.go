/**
 * Geometric Rectifier for ID card photos.
 *
 * Finds the card boundary in a raw photo and produces a deskewed, cropped
 * top-down image: downscale for detection speed, grayscale, Gaussian blur,
 * Sobel edges, external contours, largest 4-vertex polygon, corner
 * ordering, then a perspective warp of the original-resolution photo into
 * a fixed canonical rectangle.
 *
 * Failure here is local and non-fatal: callers fall back to the raw,
 * un-rectified image and continue the pipeline.
 */

package rectify

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/ivisit/idscan-worker/internal/logging"
	"github.com/ivisit/idscan-worker/internal/raster"
)

// Config holds rectifier tuning parameters.
type Config struct {
	// MaxDetectSize caps the longer side during boundary detection.
	MaxDetectSize int
	// CanonicalWidth/Height define the warped output rectangle.
	CanonicalWidth  int
	CanonicalHeight int
	// MinAreaRatio is the minimum quad area as a fraction of the
	// downscaled image area; smaller detections are rejected as noise.
	MinAreaRatio float64
	// EdgeThreshold is the Sobel gradient-magnitude cutoff.
	EdgeThreshold float64
	// BlurSigma is the Gaussian blur applied before edge detection.
	BlurSigma float64
}

// DefaultConfig returns the production rectifier tuning.
func DefaultConfig() Config {
	return Config{
		MaxDetectSize:   1000,
		CanonicalWidth:  1000,
		CanonicalHeight: 600,
		MinAreaRatio:    0.15,
		EdgeThreshold:   80,
		BlurSigma:       1.4,
	}
}

// Result reports a rectification attempt.
type Result struct {
	Success bool
	Image   image.Image
	Reason  string
}

// Rectifier detects card boundaries and perspective-corrects photos.
type Rectifier struct {
	cfg    Config
	logger *logging.Logger
}

// New creates a rectifier with the given config; zero values fall back to
// DefaultConfig equivalents.
func New(cfg Config) *Rectifier {
	def := DefaultConfig()
	if cfg.MaxDetectSize <= 0 {
		cfg.MaxDetectSize = def.MaxDetectSize
	}
	if cfg.CanonicalWidth <= 0 {
		cfg.CanonicalWidth = def.CanonicalWidth
	}
	if cfg.CanonicalHeight <= 0 {
		cfg.CanonicalHeight = def.CanonicalHeight
	}
	if cfg.MinAreaRatio <= 0 {
		cfg.MinAreaRatio = def.MinAreaRatio
	}
	if cfg.EdgeThreshold <= 0 {
		cfg.EdgeThreshold = def.EdgeThreshold
	}
	if cfg.BlurSigma <= 0 {
		cfg.BlurSigma = def.BlurSigma
	}
	return &Rectifier{cfg: cfg, logger: logging.NewLogger("Rectifier")}
}

// Rectify locates the card in photo and warps the original-resolution
// image into the canonical rectangle. On failure it returns Success=false
// with a reason; the caller must continue with the raw photo.
func (r *Rectifier) Rectify(photo image.Image) Result {
	if photo == nil {
		return Result{Success: false, Reason: "nil image"}
	}

	b := photo.Bounds()
	if b.Dx() < 4 || b.Dy() < 4 {
		return Result{Success: false, Reason: "image too small for boundary detection"}
	}

	// Downscale for detection; remember the factor so detected corners can
	// be mapped back to original-image coordinates.
	detect, scale := r.downscale(photo)

	gray := raster.ToGray(imaging.Blur(detect, r.cfg.BlurSigma))
	mask := sobelEdges(gray, r.cfg.EdgeThreshold)

	minPixels := (detect.Bounds().Dx() + detect.Bounds().Dy()) / 4
	components := findComponents(mask, minPixels)
	if len(components) == 0 {
		return Result{Success: false, Reason: "no edge contours found"}
	}

	minArea := r.cfg.MinAreaRatio * float64(detect.Bounds().Dx()*detect.Bounds().Dy())
	corners, ok := largestQuad(components, minArea)
	if !ok {
		return Result{Success: false, Reason: "no qualifying quadrilateral found"}
	}

	// Order in detection space, then map back to original coordinates.
	quad := OrderPoints(corners).Scale(1 / scale)

	warped := warpPerspective(photo, quad, r.cfg.CanonicalWidth, r.cfg.CanonicalHeight)
	if warped == nil {
		return Result{Success: false, Reason: "degenerate quadrilateral"}
	}

	r.logger.Debug("Card boundary rectified",
		"tl", quad.TL, "tr", quad.TR, "br", quad.BR, "bl", quad.BL,
		"scale", scale)

	return Result{Success: true, Image: warped}
}

// downscale fits the photo within MaxDetectSize on the longer side and
// returns the applied scale factor (detect = original * scale).
func (r *Rectifier) downscale(photo image.Image) (image.Image, float64) {
	b := photo.Bounds()
	longer := b.Dx()
	if b.Dy() > longer {
		longer = b.Dy()
	}
	if longer <= r.cfg.MaxDetectSize {
		return photo, 1.0
	}

	scale := float64(r.cfg.MaxDetectSize) / float64(longer)
	w := int(float64(b.Dx()) * scale)
	h := int(float64(b.Dy()) * scale)
	resized := imaging.Resize(photo, w, h, imaging.Linear)

	// Integer rounding can shift the effective factor slightly; derive it
	// from the actual output width so corner back-mapping stays exact.
	return resized, float64(resized.Bounds().Dx()) / float64(b.Dx())
}
