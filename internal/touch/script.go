package touch

import (
	"fmt"
	"strings"
	"time"
)

// DefaultPressure is sent with every down/move primitive.
const DefaultPressure = 50

// tapHold is the pause between press and release of a tap.
const tapHold = 30 * time.Millisecond

// Op is a minitouch primitive
type Op byte

const (
	OpReset  Op = 'r'
	OpDown   Op = 'd'
	OpMove   Op = 'm'
	OpUp     Op = 'u'
	OpCommit Op = 'c'
	OpWait   Op = 'w'
)

// Primitive is one line of a gesture script. X and Y are native touch
// coordinates.
type Primitive struct {
	Op       Op
	Contact  int
	X, Y     int
	Pressure int
	WaitMs   int
}

// String renders the primitive in minitouch line format (without newline)
func (p Primitive) String() string {
	switch p.Op {
	case OpDown, OpMove:
		return fmt.Sprintf("%c %d %d %d %d", p.Op, p.Contact, p.X, p.Y, p.Pressure)
	case OpUp:
		return fmt.Sprintf("u %d", p.Contact)
	case OpWait:
		return fmt.Sprintf("w %d", p.WaitMs)
	default:
		return string(p.Op)
	}
}

// Script accumulates primitives for one gesture. Coordinates passed to its
// methods are logical screen pixels and go through the mapper.
type Script struct {
	mapper     Mapper
	primitives []Primitive
}

// NewScript starts a script with a reset
func NewScript(m Mapper) *Script {
	return &Script{
		mapper:     m,
		primitives: []Primitive{{Op: OpReset}},
	}
}

// Down presses contact id at the logical point
func (s *Script) Down(id, x, y int) *Script {
	tx, ty := s.mapper.ToTouch(x, y)
	s.primitives = append(s.primitives, Primitive{Op: OpDown, Contact: id, X: tx, Y: ty, Pressure: DefaultPressure})
	return s
}

// Move moves a pressed contact
func (s *Script) Move(id, x, y int) *Script {
	tx, ty := s.mapper.ToTouch(x, y)
	s.primitives = append(s.primitives, Primitive{Op: OpMove, Contact: id, X: tx, Y: ty, Pressure: DefaultPressure})
	return s
}

// Up releases a contact
func (s *Script) Up(id int) *Script {
	s.primitives = append(s.primitives, Primitive{Op: OpUp, Contact: id})
	return s
}

// Commit flushes the pending frame to the touch driver
func (s *Script) Commit() *Script {
	s.primitives = append(s.primitives, Primitive{Op: OpCommit})
	return s
}

// Wait pauses the helper. Sub-millisecond durations are truncated.
func (s *Script) Wait(d time.Duration) *Script {
	s.primitives = append(s.primitives, Primitive{Op: OpWait, WaitMs: int(d / time.Millisecond)})
	return s
}

// Primitives returns a copy of the built sequence
func (s *Script) Primitives() []Primitive {
	out := make([]Primitive, len(s.primitives))
	copy(out, s.primitives)
	return out
}

// Count returns how many primitives of the given op the script holds
func (s *Script) Count(op Op) int {
	n := 0
	for _, p := range s.primitives {
		if p.Op == op {
			n++
		}
	}
	return n
}

// String serializes the script, one newline-terminated primitive per line
func (s *Script) String() string {
	var b strings.Builder
	for _, p := range s.primitives {
		b.WriteString(p.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// TapScript builds down → commit → wait → up → commit
func TapScript(m Mapper, x, y int) *Script {
	return NewScript(m).
		Down(0, x, y).Commit().
		Wait(tapHold).
		Up(0).Commit()
}

// DragScript presses at (x1,y1), holds, moves to (x2,y2), holds, releases
func DragScript(m Mapper, x1, y1, x2, y2 int, hold time.Duration) *Script {
	return NewScript(m).
		Down(0, x1, y1).Commit().
		Wait(hold).
		Move(0, x2, y2).Commit().
		Wait(hold).
		Up(0).Commit()
}

// PinchDirection selects converging or diverging contacts
type PinchDirection int

const (
	// PinchIn converges both contacts on the center (zoom out)
	PinchIn PinchDirection = iota
	// PinchOut spreads both contacts away from the center (zoom in)
	PinchOut
)

// pinchStartGap is the initial half distance between contacts for PinchOut
const pinchStartGap = 10

func (d PinchDirection) String() string {
	if d == PinchOut {
		return "pinch-out"
	}
	return "pinch-in"
}

// PinchScript builds a horizontal two-finger pinch around the screen center
// in the given number of steps spread evenly over duration.
func PinchScript(m Mapper, dir PinchDirection, steps int, duration time.Duration) *Script {
	if steps < 1 {
		steps = 1
	}
	cx, cy := m.ScreenW/2, m.ScreenH/2
	offset := min(m.ScreenW, m.ScreenH) / 3
	step := duration / time.Duration(steps)

	// left/right x at progress i/steps
	position := func(i int) (int, int) {
		progress := float64(i) / float64(steps)
		if dir == PinchOut {
			d := int(float64(offset) * progress)
			return cx - d, cx + d
		}
		left := cx - offset
		right := cx + offset
		return left + int(float64(cx-left)*progress), right - int(float64(right-cx)*progress)
	}

	s := NewScript(m)
	if dir == PinchOut {
		s.Down(0, cx-pinchStartGap, cy).Down(1, cx+pinchStartGap, cy)
	} else {
		l, r := position(0)
		s.Down(0, l, cy).Down(1, r, cy)
	}
	s.Commit().Wait(step)

	for i := 1; i <= steps; i++ {
		l, r := position(i)
		s.Move(0, l, cy).Move(1, r, cy).Commit().Wait(step)
	}

	return s.Up(0).Up(1).Commit()
}
