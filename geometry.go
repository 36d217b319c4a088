package rscoco

// Polygon to bounding box reduction.

import (
	"errors"
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/floats"
)

var errNoPoints = errors.New("polygon has no points")

// Point is a 2D point, in pixels or in geographic coordinates depending on its source.
type Point struct {
	X, Y float64
}

// BBox is an axis-aligned bounding box [x_min, y_min, width, height].
type BBox [4]float64

// X is the left edge.
func (b BBox) X() float64 { return b[0] }

// Y is the top edge.
func (b BBox) Y() float64 { return b[1] }

// Width is the box width.
func (b BBox) Width() float64 { return b[2] }

// Height is the box height.
func (b BBox) Height() float64 { return b[3] }

// Area is width times height.
func (b BBox) Area() float64 {
	return b[2] * b[3]
}

// PixelBBox reduces a (possibly rotated) polygon in pixel coordinates to its axis-aligned bounding
// box. The coordinates are truncated to integers first, so the box has integer values.
//
// The points are not checked to form a simple polygon. Collinear or repeated points yield a box
// with zero width or height.
func PixelBBox(points []Point) (BBox, error) {
	if len(points) == 0 {
		return BBox{}, errNoPoints
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = math.Trunc(p.X)
		ys[i] = math.Trunc(p.Y)
	}

	xMin, yMin := floats.Min(xs), floats.Min(ys)
	return BBox{xMin, yMin, floats.Max(xs) - xMin, floats.Max(ys) - yMin}, nil
}

// GeoBBox reduces a coordinate ring to its bounding box without any rounding. The first coordinate
// of each point maps to the box x axis and the second to the y axis.
func GeoBBox(ring []Point) (BBox, error) {
	if len(ring) == 0 {
		return BBox{}, errNoPoints
	}

	pts := make([]r2.Point, len(ring))
	for i, p := range ring {
		pts[i] = r2.Point{X: p.X, Y: p.Y}
	}
	rect := r2.RectFromPoints(pts...)
	lo, size := rect.Lo(), rect.Size()

	return BBox{lo.X, lo.Y, size.X, size.Y}, nil
}

// cornersBBox converts corner coordinates x1, y1, x2, y2 to a bbox. The corners are not reordered.
func cornersBBox(x1, y1, x2, y2 float64) BBox {
	return BBox{x1, y1, x2 - x1, y2 - y1}
}
