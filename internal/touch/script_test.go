package touch

import (
	"strings"
	"testing"
	"time"
)

var testMapper = NewMapper(860, 732, 32767, 32767)

func TestTapScript(t *testing.T) {
	got := TapScript(testMapper, 430, 366).String()
	want := "r\nd 0 16383 16383 50\nc\nw 30\nu 0\nc\n"
	if got != want {
		t.Errorf("TapScript() =\n%q\nwant\n%q", got, want)
	}
}

func TestDragScript(t *testing.T) {
	got := DragScript(testMapper, 0, 0, 430, 366, 200*time.Millisecond).String()
	want := "r\nd 0 0 0 50\nc\nw 200\nm 0 16383 16383 50\nc\nw 200\nu 0\nc\n"
	if got != want {
		t.Errorf("DragScript() =\n%q\nwant\n%q", got, want)
	}
}

func TestPinchScriptCounts(t *testing.T) {
	for _, dir := range []PinchDirection{PinchIn, PinchOut} {
		for _, steps := range []int{1, 5, 15} {
			s := PinchScript(testMapper, dir, steps, 500*time.Millisecond)

			if got := s.Count(OpDown); got != 2 {
				t.Errorf("%v steps=%d: %d downs, want 2", dir, steps, got)
			}
			if got := s.Count(OpMove); got != 2*steps {
				t.Errorf("%v steps=%d: %d moves, want %d", dir, steps, got, 2*steps)
			}
			if got := s.Count(OpUp); got != 2 {
				t.Errorf("%v steps=%d: %d ups, want 2", dir, steps, got)
			}
			if got := s.Count(OpCommit); got != steps+2 {
				t.Errorf("%v steps=%d: %d commits, want %d", dir, steps, got, steps+2)
			}
		}
	}
}

func TestPinchScriptOrdering(t *testing.T) {
	s := PinchScript(testMapper, PinchIn, 10, 300*time.Millisecond)
	prims := s.Primitives()

	if prims[0].Op != OpReset {
		t.Fatalf("first primitive = %c, want r", prims[0].Op)
	}

	down := map[int]bool{}
	released := map[int]bool{}
	for i, p := range prims {
		switch p.Op {
		case OpDown:
			down[p.Contact] = true
		case OpMove:
			if !down[p.Contact] {
				t.Fatalf("primitive %d moves contact %d before its down", i, p.Contact)
			}
			if released[p.Contact] {
				t.Fatalf("primitive %d moves contact %d after its up", i, p.Contact)
			}
		case OpUp:
			released[p.Contact] = true
		}
	}

	// a move must follow a commit of the preceding frame
	for i, p := range prims {
		if p.Op != OpMove || prims[i-1].Op == OpMove {
			continue
		}
		if prims[i-1].Op != OpWait || prims[i-2].Op != OpCommit {
			t.Errorf("move at %d is not preceded by commit+wait", i)
		}
	}

	if last := prims[len(prims)-1]; last.Op != OpCommit {
		t.Errorf("last primitive = %c, want c", last.Op)
	}
}

func TestPinchGeometry(t *testing.T) {
	m := NewMapper(860, 732, 32767, 32767)
	offset := 732 / 3
	nx := func(x int) int {
		tx, _ := m.ToTouch(x, 0)
		return tx
	}
	_, centerY := m.ToTouch(0, 366)

	in := PinchScript(m, PinchIn, 4, 400*time.Millisecond).Primitives()
	if in[1].X != nx(430-offset) || in[2].X != nx(430+offset) {
		t.Errorf("pinch-in starts at %d/%d, want %d/%d", in[1].X, in[2].X, nx(430-offset), nx(430+offset))
	}
	lastMoves := lastTwoMoves(in)
	if lastMoves[0].X != nx(430) || lastMoves[1].X != nx(430) {
		t.Errorf("pinch-in ends at %d/%d, want center %d", lastMoves[0].X, lastMoves[1].X, nx(430))
	}

	out := PinchScript(m, PinchOut, 4, 400*time.Millisecond).Primitives()
	if out[1].X != nx(420) || out[2].X != nx(440) {
		t.Errorf("pinch-out starts at %d/%d, want %d/%d", out[1].X, out[2].X, nx(420), nx(440))
	}
	lastMoves = lastTwoMoves(out)
	if lastMoves[0].X != nx(430-offset) || lastMoves[1].X != nx(430+offset) {
		t.Errorf("pinch-out ends at %d/%d, want %d/%d", lastMoves[0].X, lastMoves[1].X, nx(430-offset), nx(430+offset))
	}

	for _, p := range out {
		if p.Op == OpWait && p.WaitMs != 100 {
			t.Errorf("wait = %d ms, want 100", p.WaitMs)
		}
		if (p.Op == OpDown || p.Op == OpMove) && p.Y != centerY {
			t.Errorf("contact left the horizontal axis: y=%d", p.Y)
		}
	}
}

func TestScriptLinesAreNewlineTerminated(t *testing.T) {
	out := PinchScript(testMapper, PinchOut, 3, 90*time.Millisecond).String()
	if !strings.HasSuffix(out, "c\n") {
		t.Errorf("script does not end with commit line: %q", out)
	}
	for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
		if line == "" {
			t.Errorf("empty line in script %q", out)
		}
	}
}

func lastTwoMoves(prims []Primitive) [2]Primitive {
	var out [2]Primitive
	n := 0
	for i := len(prims) - 1; i >= 0 && n < 2; i-- {
		if prims[i].Op == OpMove {
			out[1-n] = prims[i]
			n++
		}
	}
	return out
}
