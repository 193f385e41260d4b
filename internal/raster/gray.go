/**
 * Grayscale raster primitives for OCR preprocessing.
 *
 * Pixel-level operations the imaging library has no primitive for live
 * here: histogram/Otsu threshold work, scale+offset rescale, inversion,
 * hard and locally-adaptive binarization.
 */

package raster

import (
	"image"
	"image/color"
)

// ToGray converts any image to a zero-origin 8-bit grayscale raster with
// stride == width. Callers downstream index Pix row-major on that
// assumption, so a cropped sub-image (offset origin, parent stride) is
// copied into a fresh raster instead of passed through.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) && g.Stride == g.Rect.Dx() {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)))
		}
	}
	return gray
}

// Histogram builds a 256-bin intensity histogram.
func Histogram(g *image.Gray) [256]int {
	var hist [256]int
	b := g.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := g.Pix[(y-b.Min.Y)*g.Stride : (y-b.Min.Y)*g.Stride+b.Dx()]
		for _, v := range row {
			hist[v]++
		}
	}
	return hist
}

// OtsuThreshold computes the binarization threshold minimizing intra-class
// variance over the intensity histogram. Returns 128 for degenerate inputs.
func OtsuThreshold(g *image.Gray) int {
	hist := Histogram(g)

	total := 0
	var sum float64
	for i := 0; i < 256; i++ {
		total += hist[i]
		sum += float64(i) * float64(hist[i])
	}
	if total == 0 {
		return 128
	}

	var sumB float64
	wB := 0
	maxVariance := 0.0
	threshold := 128

	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}

		sumB += float64(t) * float64(hist[t])
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)

		variance := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if variance > maxVariance {
			maxVariance = variance
			threshold = t
		}
	}

	return threshold
}

// Rescale applies a linear transform v' = v*scale + offset, clamped to [0,255].
func Rescale(g *image.Gray, scale float64, offset float64) *image.Gray {
	out := image.NewGray(g.Bounds())
	for i, v := range g.Pix {
		out.Pix[i] = clampByte(float64(v)*scale + offset)
	}
	return out
}

// Invert flips every pixel (255-v), for dark-background cards.
func Invert(g *image.Gray) *image.Gray {
	out := image.NewGray(g.Bounds())
	for i, v := range g.Pix {
		out.Pix[i] = 255 - v
	}
	return out
}

// Binarize applies a hard black/white threshold.
func Binarize(g *image.Gray, threshold uint8) *image.Gray {
	out := image.NewGray(g.Bounds())
	for i, v := range g.Pix {
		if v >= threshold {
			out.Pix[i] = 255
		} else {
			out.Pix[i] = 0
		}
	}
	return out
}

// SharpenLaplacian applies the 3x3 Laplacian sharpening kernel
// (0,-1,0 / -1,5,-1 / 0,-1,0) with edge pixels passed through unchanged.
func SharpenLaplacian(g *image.Gray) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	copy(out.Pix, g.Pix)

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			center := int(g.Pix[y*g.Stride+x])
			up := int(g.Pix[(y-1)*g.Stride+x])
			down := int(g.Pix[(y+1)*g.Stride+x])
			left := int(g.Pix[y*g.Stride+x-1])
			right := int(g.Pix[y*g.Stride+x+1])

			v := 5*center - up - down - left - right
			out.Pix[y*out.Stride+x] = clampByte(float64(v))
		}
	}
	return out
}

// AdaptiveLocalNormalize stretches each pixel against the mean of its local
// window, recentring local contrast around mid-gray. Window must be odd.
func AdaptiveLocalNormalize(g *image.Gray, window int) *image.Gray {
	if window < 3 {
		window = 15
	}
	if window%2 == 0 {
		window++
	}

	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	// Integral image for O(1) window means.
	integral := make([]int64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var rowSum int64
		for x := 0; x < w; x++ {
			rowSum += int64(g.Pix[y*g.Stride+x])
			integral[(y+1)*(w+1)+x+1] = integral[y*(w+1)+x+1] + rowSum
		}
	}

	half := window / 2
	for y := 0; y < h; y++ {
		y0, y1 := maxInt(0, y-half), minInt(h-1, y+half)
		for x := 0; x < w; x++ {
			x0, x1 := maxInt(0, x-half), minInt(w-1, x+half)
			area := int64((y1 - y0 + 1) * (x1 - x0 + 1))
			sum := integral[(y1+1)*(w+1)+x1+1] - integral[y0*(w+1)+x1+1] -
				integral[(y1+1)*(w+1)+x0] + integral[y0*(w+1)+x0]
			mean := float64(sum) / float64(area)

			v := float64(g.Pix[y*g.Stride+x])
			out.Pix[y*out.Stride+x] = clampByte(128 + (v-mean)*1.5)
		}
	}
	return out
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
