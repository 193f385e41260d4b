package rectify

import (
	"image"
	"math"
	"sort"
)

// sobelEdges computes a binary edge mask from a grayscale image using the
// Sobel operator with the given gradient-magnitude threshold.
func sobelEdges(g *image.Gray, threshold float64) [][]bool {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	mask := make([][]bool, h)
	for y := range mask {
		mask[y] = make([]bool, w)
	}

	at := func(x, y int) int { return int(g.Pix[y*g.Stride+x]) }

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) +
				-2*at(x-1, y) + 2*at(x+1, y) +
				-at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)

			if math.Hypot(float64(gx), float64(gy)) >= threshold {
				mask[y][x] = true
			}
		}
	}
	return mask
}

// findComponents groups edge pixels into 8-connected components, discarding
// components below minPixels.
func findComponents(mask [][]bool, minPixels int) [][]Point {
	h := len(mask)
	if h == 0 {
		return nil
	}
	w := len(mask[0])

	visited := make([][]bool, h)
	for y := range visited {
		visited[y] = make([]bool, w)
	}

	var components [][]Point
	stack := make([]image.Point, 0, 1024)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !mask[y][x] || visited[y][x] {
				continue
			}

			stack = stack[:0]
			stack = append(stack, image.Pt(x, y))
			visited[y][x] = true
			var comp []Point

			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				comp = append(comp, Point{X: float64(p.X), Y: float64(p.Y)})

				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := p.X+dx, p.Y+dy
						if nx < 0 || ny < 0 || nx >= w || ny >= h {
							continue
						}
						if mask[ny][nx] && !visited[ny][nx] {
							visited[ny][nx] = true
							stack = append(stack, image.Pt(nx, ny))
						}
					}
				}
			}

			if len(comp) >= minPixels {
				components = append(components, comp)
			}
		}
	}
	return components
}

// convexHull computes the convex hull of a point set with Andrew's monotone
// chain, returned in counter-clockwise order.
func convexHull(pts []Point) []Point {
	if len(pts) < 3 {
		return pts
	}

	sorted := append([]Point{}, pts...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})

	cross := func(o, a, b Point) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	var lower []Point
	for _, p := range sorted {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	var upper []Point
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

// largestQuad scans the components for the largest-area 4-vertex polygon
// whose area exceeds minArea. Each component's convex hull is simplified at
// progressively coarser tolerances until it collapses to four vertices.
func largestQuad(components [][]Point, minArea float64) ([4]Point, bool) {
	var best [4]Point
	bestArea := minArea
	found := false

	for _, comp := range components {
		hull := convexHull(comp)
		if len(hull) < 4 {
			continue
		}

		quad, ok := simplifyToQuad(hull)
		if !ok {
			continue
		}

		area := polygonArea(quad[:])
		if area > bestArea {
			bestArea = area
			best = quad
			found = true
		}
	}
	return best, found
}

// simplifyToQuad reduces a convex hull to exactly four vertices, widening
// the Douglas-Peucker tolerance up to 8% of the perimeter before giving up.
func simplifyToQuad(hull []Point) ([4]Point, bool) {
	per := perimeter(hull)
	for _, frac := range []float64{0.02, 0.04, 0.06, 0.08} {
		approx := approxPolygon(hull, frac*per)
		if len(approx) == 4 {
			return [4]Point{approx[0], approx[1], approx[2], approx[3]}, true
		}
		if len(approx) < 4 {
			break
		}
	}
	return [4]Point{}, false
}
