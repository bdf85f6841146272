package touch

import "fmt"

const (
	// DefaultScreenWidth and DefaultScreenHeight are used when `wm size`
	// returns nothing parseable.
	DefaultScreenWidth  = 860
	DefaultScreenHeight = 732

	// DefaultMaxCoord is used when the helper handshake has no bounds line.
	DefaultMaxCoord = 32767
)

// Mapper converts logical screen pixels into the touch device's native
// coordinate range. Build a fresh one for every gesture: the emulator's
// resolution can be changed at runtime.
type Mapper struct {
	ScreenW int
	ScreenH int
	MaxX    int
	MaxY    int
}

// NewMapper returns a mapper, substituting fallbacks for non-positive values.
func NewMapper(screenW, screenH, maxX, maxY int) Mapper {
	if screenW <= 0 || screenH <= 0 {
		screenW, screenH = DefaultScreenWidth, DefaultScreenHeight
	}
	if maxX <= 0 || maxY <= 0 {
		maxX, maxY = DefaultMaxCoord, DefaultMaxCoord
	}
	return Mapper{ScreenW: screenW, ScreenH: screenH, MaxX: maxX, MaxY: maxY}
}

// ToTouch scales a logical point. Out-of-range input is a caller error and
// is not rejected.
func (m Mapper) ToTouch(x, y int) (int, int) {
	tx := int(float64(x) / float64(m.ScreenW) * float64(m.MaxX))
	ty := int(float64(y) / float64(m.ScreenH) * float64(m.MaxY))
	return tx, ty
}

// String returns a human-readable description
func (m Mapper) String() string {
	return fmt.Sprintf("Mapper{screen=%dx%d, native=%dx%d}", m.ScreenW, m.ScreenH, m.MaxX, m.MaxY)
}
