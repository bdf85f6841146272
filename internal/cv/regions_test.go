package cv

import (
	"image"
	"testing"
)

func TestNewRegionNormalizes(t *testing.T) {
	r := NewRegion(100, 80, 10, 20)
	if r != (Region{X1: 10, Y1: 20, X2: 100, Y2: 80}) {
		t.Errorf("NewRegion() = %v", r)
	}
	if r.Width() != 90 || r.Height() != 60 {
		t.Errorf("size = %dx%d, want 90x60", r.Width(), r.Height())
	}
}

func TestRegionContains(t *testing.T) {
	r := NewRegion(10, 10, 20, 20)
	tests := []struct {
		p    image.Point
		want bool
	}{
		{image.Pt(10, 10), true},
		{image.Pt(19, 19), true},
		{image.Pt(20, 15), false},
		{image.Pt(5, 15), false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.p); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestRegionScale(t *testing.T) {
	r := NewRegion(100, 50, 300, 150)

	tests := []struct {
		name     string
		from, to image.Point
		want     Region
	}{
		{"same size", image.Pt(860, 732), image.Pt(860, 732), r},
		{"double", image.Pt(860, 732), image.Pt(1720, 1464), NewRegion(200, 100, 600, 300)},
		{"half", image.Pt(860, 732), image.Pt(430, 366), NewRegion(50, 25, 150, 75)},
		{"unknown reference", image.Point{}, image.Pt(1280, 720), r},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Scale(tt.from, tt.to); got != tt.want {
				t.Errorf("Scale() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegionEmpty(t *testing.T) {
	if !(Region{X1: 5, Y1: 5, X2: 5, Y2: 10}).Empty() {
		t.Error("zero-width region should be empty")
	}
	if NewRegion(0, 0, 1, 1).Empty() {
		t.Error("1x1 region should not be empty")
	}
}
