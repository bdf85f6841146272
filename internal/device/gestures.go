package device

import (
	"context"
	"fmt"
	"image"
	"time"

	"jordanella.com/clan-bot-go/internal/events"
	"jordanella.com/clan-bot-go/internal/touch"
)

const (
	scrollHold     = 50 * time.Millisecond
	centerViewHold = 200 * time.Millisecond
	edgeMargin     = 100
)

// Tap taps a logical screen point through the touch helper
func (s *Session) Tap(ctx context.Context, x, y int) error {
	return s.gesture("tap", s.touch.Tap(ctx, x, y))
}

// Drag presses at (x1,y1), moves to (x2,y2) and releases
func (s *Session) Drag(ctx context.Context, x1, y1, x2, y2 int, hold time.Duration) error {
	return s.gesture("drag", s.touch.Drag(ctx, x1, y1, x2, y2, hold))
}

// ZoomOut pinches in
func (s *Session) ZoomOut(ctx context.Context, steps int, duration time.Duration) error {
	return s.gesture("zoom_out", s.touch.Pinch(ctx, touch.PinchIn, steps, duration))
}

// ZoomIn pinches out
func (s *Session) ZoomIn(ctx context.Context, steps int, duration time.Duration) error {
	return s.gesture("zoom_in", s.touch.Pinch(ctx, touch.PinchOut, steps, duration))
}

// ScrollHorizontal drags pixels to the left from anchor (screen center when
// nil). Negative pixels scroll the other way.
func (s *Session) ScrollHorizontal(ctx context.Context, pixels int, anchor *image.Point) error {
	p := s.anchor(ctx, anchor)
	return s.Drag(ctx, p.X, p.Y, p.X-pixels, p.Y, scrollHold)
}

// ScrollVertical drags pixels upward from anchor, which scrolls content down
func (s *Session) ScrollVertical(ctx context.Context, pixels int, anchor *image.Point) error {
	p := s.anchor(ctx, anchor)
	return s.Drag(ctx, p.X, p.Y, p.X, p.Y-pixels, scrollHold)
}

// CenterView pans the village to its top-left corner, then nudges it by
// moveRight and moveDown
func (s *Session) CenterView(ctx context.Context, moveRight, moveDown int) error {
	w, h, _ := s.ScreenSize(ctx)
	cx, cy := w/2, h/2

	if err := s.Drag(ctx, edgeMargin, cy, w-edgeMargin, cy, centerViewHold); err != nil {
		return err
	}
	if err := s.clock.Sleep(ctx, 200*time.Millisecond); err != nil {
		return err
	}
	if err := s.Drag(ctx, cx, edgeMargin, cx, h-edgeMargin, centerViewHold); err != nil {
		return err
	}
	if err := s.clock.Sleep(ctx, 200*time.Millisecond); err != nil {
		return err
	}

	if moveRight > 0 {
		if err := s.Drag(ctx, cx, cy, cx-moveRight, cy, centerViewHold); err != nil {
			return err
		}
		if err := s.clock.Sleep(ctx, 100*time.Millisecond); err != nil {
			return err
		}
	}
	if moveDown > 0 {
		if err := s.Drag(ctx, cx, cy, cx, cy+moveDown, centerViewHold); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) anchor(ctx context.Context, anchor *image.Point) image.Point {
	if anchor != nil {
		return *anchor
	}
	w, h, _ := s.ScreenSize(ctx)
	return image.Pt(w/2, h/2)
}

func (s *Session) gesture(name string, err error) error {
	events.Publish(s.events, events.NewGestureEvent(name, err))
	if err != nil {
		return fmt.Errorf("%s gesture failed: %w", name, err)
	}
	return nil
}
