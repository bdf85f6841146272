package touch

import "testing"

func TestMapperScreenCenter(t *testing.T) {
	m := NewMapper(860, 732, 32767, 32767)

	tx, ty := m.ToTouch(430, 366)
	if tx != 16383 || ty != 16383 {
		t.Errorf("ToTouch(430, 366) = (%d, %d), want (16383, 16383)", tx, ty)
	}
}

func TestMapperBoundsAndMonotonic(t *testing.T) {
	m := NewMapper(860, 732, 32767, 32767)

	prevX := -1
	for x := 0; x <= m.ScreenW; x++ {
		tx, _ := m.ToTouch(x, 0)
		if tx < 0 || tx > m.MaxX {
			t.Fatalf("x=%d mapped to %d, outside [0, %d]", x, tx, m.MaxX)
		}
		if tx < prevX {
			t.Fatalf("mapping not monotonic at x=%d: %d < %d", x, tx, prevX)
		}
		prevX = tx
	}

	prevY := -1
	for y := 0; y <= m.ScreenH; y++ {
		_, ty := m.ToTouch(0, y)
		if ty < 0 || ty > m.MaxY {
			t.Fatalf("y=%d mapped to %d, outside [0, %d]", y, ty, m.MaxY)
		}
		if ty < prevY {
			t.Fatalf("mapping not monotonic at y=%d: %d < %d", y, ty, prevY)
		}
		prevY = ty
	}
}

func TestNewMapperFallbacks(t *testing.T) {
	tests := []struct {
		name             string
		w, h, maxX, maxY int
		want             Mapper
	}{
		{"all valid", 1280, 720, 4095, 4095, Mapper{1280, 720, 4095, 4095}},
		{"no screen size", 0, 0, 4095, 4095, Mapper{860, 732, 4095, 4095}},
		{"no bounds", 1280, 720, 0, 0, Mapper{1280, 720, 32767, 32767}},
		{"nothing", -1, 0, 0, -5, Mapper{860, 732, 32767, 32767}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewMapper(tt.w, tt.h, tt.maxX, tt.maxY)
			if got != tt.want {
				t.Errorf("NewMapper() = %v, want %v", got, tt.want)
			}
		})
	}
}
