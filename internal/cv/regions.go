package cv

import (
	"fmt"
	"image"
)

// Region is a rectangle in screen pixels. X2/Y2 are exclusive.
type Region struct {
	X1, Y1, X2, Y2 int
}

// NewRegion creates a new region, normalizing swapped corners
func NewRegion(x1, y1, x2, y2 int) Region {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return Region{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Contains checks if a point is within the region
func (r Region) Contains(p image.Point) bool {
	return p.X >= r.X1 && p.X < r.X2 && p.Y >= r.Y1 && p.Y < r.Y2
}

// Width returns the width of the region
func (r Region) Width() int {
	return r.X2 - r.X1
}

// Height returns the height of the region
func (r Region) Height() int {
	return r.Y2 - r.Y1
}

// Empty reports whether the region has no area
func (r Region) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Rect converts the region to an image.Rectangle
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// Scale maps the region from a reference screen size to another one.
// A zero reference leaves the region unchanged.
func (r Region) Scale(from, to image.Point) Region {
	if from.X <= 0 || from.Y <= 0 || to.X <= 0 || to.Y <= 0 || from == to {
		return r
	}
	sx := float64(to.X) / float64(from.X)
	sy := float64(to.Y) / float64(from.Y)
	return Region{
		X1: int(float64(r.X1) * sx),
		Y1: int(float64(r.Y1) * sy),
		X2: int(float64(r.X2) * sx),
		Y2: int(float64(r.Y2) * sy),
	}
}

func (r Region) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.X1, r.Y1, r.X2, r.Y2)
}
