package rectify

import (
	"image"
	"image/color"
	"math"
)

// Point is a 2D point in image coordinates.
type Point struct {
	X float64
	Y float64
}

// Quad holds the four corners of a card boundary in a fixed order.
type Quad struct {
	TL Point
	TR Point
	BR Point
	BL Point
}

// OrderPoints assigns the four corners of a quadrilateral to
// {top-left, top-right, bottom-right, bottom-left}:
// top-left minimizes x+y, bottom-right maximizes x+y,
// top-right minimizes x-y, bottom-left maximizes x-y.
// The assignment is invariant under permutation of the input points.
func OrderPoints(pts [4]Point) Quad {
	q := Quad{TL: pts[0], TR: pts[0], BR: pts[0], BL: pts[0]}

	for _, p := range pts[1:] {
		if p.X+p.Y < q.TL.X+q.TL.Y {
			q.TL = p
		}
		if p.X+p.Y > q.BR.X+q.BR.Y {
			q.BR = p
		}
		if p.X-p.Y < q.TR.X-q.TR.Y {
			q.TR = p
		}
		if p.X-p.Y > q.BL.X-q.BL.Y {
			q.BL = p
		}
	}

	return q
}

// Scale rescales every corner by the given factor.
func (q Quad) Scale(factor float64) Quad {
	s := func(p Point) Point { return Point{X: p.X * factor, Y: p.Y * factor} }
	return Quad{TL: s(q.TL), TR: s(q.TR), BR: s(q.BR), BL: s(q.BL)}
}

// polygonArea returns the absolute shoelace area of a closed polygon.
func polygonArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	area := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		area += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(area) / 2
}

// perimeter returns the closed-polygon perimeter.
func perimeter(pts []Point) float64 {
	sum := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += math.Hypot(pts[j].X-pts[i].X, pts[j].Y-pts[i].Y)
	}
	return sum
}

// pointLineDistance returns the perpendicular distance from p to line ab.
func pointLineDistance(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	return math.Abs(dy*p.X-dx*p.Y+b.X*a.Y-b.Y*a.X) / length
}

// approxPolygon simplifies a closed contour with the Douglas-Peucker
// algorithm at tolerance epsilon. The contour is split at its two most
// distant points so both open halves can be simplified independently.
func approxPolygon(contour []Point, epsilon float64) []Point {
	if len(contour) < 3 {
		return contour
	}

	// Split at the diameter endpoints.
	iA, iB := 0, 0
	maxDist := -1.0
	for i := range contour {
		for j := i + 1; j < len(contour); j++ {
			d := math.Hypot(contour[j].X-contour[i].X, contour[j].Y-contour[i].Y)
			if d > maxDist {
				maxDist = d
				iA, iB = i, j
			}
		}
	}

	half1 := contour[iA : iB+1]
	half2 := append(append([]Point{}, contour[iB:]...), contour[:iA+1]...)

	simplified1 := douglasPeucker(half1, epsilon)
	simplified2 := douglasPeucker(half2, epsilon)

	// Join, dropping the duplicated endpoints.
	out := append([]Point{}, simplified1...)
	if len(simplified2) > 2 {
		out = append(out, simplified2[1:len(simplified2)-1]...)
	}
	return out
}

// douglasPeucker simplifies an open polyline at tolerance epsilon.
func douglasPeucker(pts []Point, epsilon float64) []Point {
	if len(pts) < 3 {
		return pts
	}

	maxDist := 0.0
	index := 0
	last := len(pts) - 1
	for i := 1; i < last; i++ {
		d := pointLineDistance(pts[i], pts[0], pts[last])
		if d > maxDist {
			maxDist = d
			index = i
		}
	}

	if maxDist <= epsilon {
		return []Point{pts[0], pts[last]}
	}

	left := douglasPeucker(pts[:index+1], epsilon)
	right := douglasPeucker(pts[index:], epsilon)
	return append(left[:len(left)-1], right...)
}

// computeHomography computes the 3x3 matrix H mapping p[i] -> q[i]
// with h22 fixed to 1, via an 8x8 linear system.
func computeHomography(p, q [4]Point) ([9]float64, bool) {
	A := [8][8]float64{}
	b := [8]float64{}
	for i := 0; i < 4; i++ {
		X, Y := p[i].X, p[i].Y
		x, y := q[i].X, q[i].Y
		r := 2 * i
		// x' = (h00 X + h01 Y + h02)/(h20 X + h21 Y + 1)
		A[r][0] = X
		A[r][1] = Y
		A[r][2] = 1
		A[r][6] = -X * x
		A[r][7] = -Y * x
		b[r] = x

		// y' = (h10 X + h11 Y + h12)/(h20 X + h21 Y + 1)
		A[r+1][3] = X
		A[r+1][4] = Y
		A[r+1][5] = 1
		A[r+1][6] = -X * y
		A[r+1][7] = -Y * y
		b[r+1] = y
	}

	h, ok := solve8x8(A, b)
	if !ok {
		return [9]float64{}, false
	}
	return [9]float64{h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7], 1}, true
}

// solve8x8 solves A*x = b by Gaussian elimination with partial pivoting.
func solve8x8(a [8][8]float64, b [8]float64) ([8]float64, bool) {
	for col := 0; col < 8; col++ {
		// Find pivot row
		pivot := col
		maxAbs := math.Abs(a[col][col])
		for r := col + 1; r < 8; r++ {
			if math.Abs(a[r][col]) > maxAbs {
				maxAbs = math.Abs(a[r][col])
				pivot = r
			}
		}
		if maxAbs == 0 {
			return [8]float64{}, false
		}
		if pivot != col {
			a[col], a[pivot] = a[pivot], a[col]
			b[col], b[pivot] = b[pivot], b[col]
		}

		// Normalize pivot row
		div := a[col][col]
		for c := col; c < 8; c++ {
			a[col][c] /= div
		}
		b[col] /= div

		// Eliminate column
		for r := 0; r < 8; r++ {
			if r == col {
				continue
			}
			factor := a[r][col]
			if factor == 0 {
				continue
			}
			for c := col; c < 8; c++ {
				a[r][c] -= factor * a[col][c]
			}
			b[r] -= factor * b[col]
		}
	}
	return b, true
}

func applyHomography(h [9]float64, x, y float64) (float64, float64) {
	denom := h[6]*x + h[7]*y + h[8]
	if denom == 0 {
		return -1e9, -1e9
	}
	sx := (h[0]*x + h[1]*y + h[2]) / denom
	sy := (h[3]*x + h[4]*y + h[5]) / denom
	return sx, sy
}

// warpPerspective warps the quadrilateral region of src into a dstW x dstH
// rectangle using inverse homography with bilinear sampling.
func warpPerspective(src image.Image, quad Quad, dstW, dstH int) image.Image {
	if dstW <= 0 || dstH <= 0 {
		return nil
	}

	// Homography from dst rect corners to the source quad.
	d := [4]Point{
		{X: 0, Y: 0},
		{X: float64(dstW - 1), Y: 0},
		{X: float64(dstW - 1), Y: float64(dstH - 1)},
		{X: 0, Y: float64(dstH - 1)},
	}
	s := [4]Point{quad.TL, quad.TR, quad.BR, quad.BL}
	H, ok := computeHomography(d, s)
	if !ok {
		return nil
	}

	out := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	sb := src.Bounds()
	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			sx, sy := applyHomography(H, float64(x), float64(y))
			out.Set(x, y, bilinearSample(src, sx+float64(sb.Min.X), sy+float64(sb.Min.Y)))
		}
	}
	return out
}

func bilinearSample(src image.Image, x, y float64) color.Color {
	b := src.Bounds()
	if x < float64(b.Min.X) || y < float64(b.Min.Y) || x > float64(b.Max.X-1) || y > float64(b.Max.Y-1) {
		return color.RGBA{0, 0, 0, 255}
	}
	x0, y0 := int(x), int(y)
	x1, y1 := x0+1, y0+1
	if x1 >= b.Max.X {
		x1 = b.Max.X - 1
	}
	if y1 >= b.Max.Y {
		y1 = b.Max.Y - 1
	}
	fx, fy := x-float64(x0), y-float64(y0)

	c00 := toFloatRGBA(src.At(x0, y0))
	c10 := toFloatRGBA(src.At(x1, y0))
	c01 := toFloatRGBA(src.At(x0, y1))
	c11 := toFloatRGBA(src.At(x1, y1))

	r := lerp(lerp(c00.r, c10.r, fx), lerp(c01.r, c11.r, fx), fy)
	g := lerp(lerp(c00.g, c10.g, fx), lerp(c01.g, c11.g, fx), fy)
	bl := lerp(lerp(c00.b, c10.b, fx), lerp(c01.b, c11.b, fx), fy)
	a := lerp(lerp(c00.a, c10.a, fx), lerp(c01.a, c11.a, fx), fy)
	return color.RGBA{uint8(r + 0.5), uint8(g + 0.5), uint8(bl + 0.5), uint8(a + 0.5)}
}

type floatRGBA struct{ r, g, b, a float64 }

func toFloatRGBA(c color.Color) floatRGBA {
	r, g, b, a := c.RGBA()
	return floatRGBA{r: float64(r >> 8), g: float64(g >> 8), b: float64(b >> 8), a: float64(a >> 8)}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
