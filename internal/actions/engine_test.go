package actions

import (
	"context"
	"errors"
	"image"
	"math/rand"
	"testing"
	"time"

	"jordanella.com/clan-bot-go/internal/cv"
	"jordanella.com/clan-bot-go/internal/events"
)

type dragCall struct {
	x1, y1, x2, y2 int
	hold           time.Duration
}

type fakeDevice struct {
	captures   int
	taps       []image.Point
	drags      []dragCall
	w, h       int
	captureErr error
}

func (d *fakeDevice) Capture(ctx context.Context) (*image.Gray, error) {
	if d.captureErr != nil {
		return nil, d.captureErr
	}
	d.captures++
	return image.NewGray(image.Rect(0, 0, 100, 80)), nil
}

func (d *fakeDevice) Tap(ctx context.Context, x, y int) error {
	d.taps = append(d.taps, image.Pt(x, y))
	return nil
}

func (d *fakeDevice) Drag(ctx context.Context, x1, y1, x2, y2 int, hold time.Duration) error {
	d.drags = append(d.drags, dragCall{x1, y1, x2, y2, hold})
	return nil
}

func (d *fakeDevice) ScreenSize(ctx context.Context) (int, int, error) {
	return d.w, d.h, nil
}

type fakeLocator struct {
	hint    *cv.Region
	err     error
	lookups int
}

func (l *fakeLocator) Resolve(name string, frameSize image.Point) (*image.Gray, *cv.Region, error) {
	l.lookups++
	if l.err != nil {
		return nil, nil, l.err
	}
	return image.NewGray(image.Rect(0, 0, 4, 4)), l.hint, nil
}

// fakeMatcher reports a hit on the foundOn-th call (0 = never)
type fakeMatcher struct {
	calls      int
	foundOn    int
	thresholds []float64
	regions    []*cv.Region
}

func (m *fakeMatcher) Match(frame, tmpl *image.Gray, threshold float64, region *cv.Region) (cv.MatchResult, error) {
	m.calls++
	m.thresholds = append(m.thresholds, threshold)
	m.regions = append(m.regions, region)
	if m.foundOn > 0 && m.calls >= m.foundOn {
		return cv.MatchResult{Found: true, Center: image.Pt(42, 24), Confidence: 0.9}, nil
	}
	return cv.MatchResult{Confidence: 0.3}, nil
}

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(e events.Event) {
	p.events = append(p.events, e)
}

func newTestEngine(foundOn int) (*Engine, *fakeDevice, *fakeMatcher, *fakeClock) {
	dev := &fakeDevice{w: 860, h: 732}
	m := &fakeMatcher{foundOn: foundOn}
	clock := newFakeClock()
	e := NewEngine(Config{
		Device:  dev,
		Locator: &fakeLocator{},
		Matcher: m,
		Clock:   clock,
	})
	return e, dev, m, clock
}

func TestTapImageRetryBudget(t *testing.T) {
	for _, retries := range []int{1, 3, 5} {
		e, dev, m, clock := newTestEngine(0)

		_, err := e.TapImage(context.Background(), "menu/bt_ok.png", WithRetries(retries), WithDelay(2*time.Second))
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("retries=%d: expected ErrNotFound, got %v", retries, err)
		}
		if dev.captures != retries || m.calls != retries {
			t.Errorf("retries=%d: captured %d times, matched %d times", retries, dev.captures, m.calls)
		}
		if len(dev.taps) != 0 {
			t.Errorf("retries=%d: tapped on a miss", retries)
		}
		if len(clock.sleeps) != retries-1 {
			t.Errorf("retries=%d: slept %d times", retries, len(clock.sleeps))
		}
	}
}

func TestTapImageHit(t *testing.T) {
	e, dev, m, clock := newTestEngine(3)

	res, err := e.TapImage(context.Background(), "menu/bt_ok.png", WithThreshold(0.7))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found || m.calls != 3 {
		t.Errorf("expected a hit on the 3rd attempt, got %+v after %d calls", res, m.calls)
	}
	if len(dev.taps) != 1 || dev.taps[0] != image.Pt(42, 24) {
		t.Errorf("unexpected taps %v", dev.taps)
	}
	for _, th := range m.thresholds {
		if th != 0.7 {
			t.Errorf("threshold not forwarded: %v", th)
		}
	}
	if len(clock.sleeps) != 2 || clock.sleeps[0] != DefaultDelay {
		t.Errorf("unexpected sleeps %v", clock.sleeps)
	}
}

func TestFindAndTapWithScroll(t *testing.T) {
	tests := []struct {
		name        string
		foundOn     int
		maxScrolls  int
		wantScrolls int
		wantErr     bool
	}{
		{"first attempt", 1, 5, 0, false},
		{"third attempt", 3, 5, 2, false},
		{"last attempt", 6, 5, 5, false},
		{"never", 0, 5, 5, true},
		{"beyond budget", 7, 5, 5, true},
		{"no scrolls", 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, dev, m, clock := newTestEngine(tt.foundOn)

			_, err := e.FindAndTapWithScroll(context.Background(), "troops/giant.png", WithMaxScrolls(tt.maxScrolls))
			if tt.wantErr != (err != nil) {
				t.Fatalf("unexpected error state: %v", err)
			}
			if tt.wantErr && !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
			if len(dev.drags) != tt.wantScrolls {
				t.Errorf("expected %d scrolls, got %d", tt.wantScrolls, len(dev.drags))
			}
			if len(clock.sleeps) != tt.wantScrolls {
				t.Errorf("expected %d settle sleeps, got %d", tt.wantScrolls, len(clock.sleeps))
			}
			if tt.wantErr && m.calls != tt.maxScrolls+1 {
				t.Errorf("expected %d attempts, got %d", tt.maxScrolls+1, m.calls)
			}
			if !tt.wantErr && len(dev.taps) != 1 {
				t.Errorf("expected one tap, got %d", len(dev.taps))
			}
		})
	}
}

func TestScrollGeometry(t *testing.T) {
	e, dev, _, _ := newTestEngine(2)
	if _, err := e.FindAndTapWithScroll(context.Background(), "x.png"); err != nil {
		t.Fatal(err)
	}
	want := dragCall{430, 366, 280, 366, DefaultScrollHold}
	if len(dev.drags) != 1 || dev.drags[0] != want {
		t.Errorf("expected drag %+v from screen center, got %+v", want, dev.drags)
	}

	e, dev, _, _ = newTestEngine(2)
	if _, err := e.FindAndTapWithScroll(context.Background(), "x.png",
		WithAnchor(750, 617), WithScroll(-100), WithHold(80*time.Millisecond)); err != nil {
		t.Fatal(err)
	}
	want = dragCall{750, 617, 850, 617, 80 * time.Millisecond}
	if len(dev.drags) != 1 || dev.drags[0] != want {
		t.Errorf("expected drag %+v, got %+v", want, dev.drags)
	}
}

func TestWaitImage(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		e, _, m, clock := newTestEngine(4)
		res, err := e.WaitImage(context.Background(), "bt_army.png", 10*time.Second)
		if err != nil || !res.Found {
			t.Fatalf("expected a hit, got %+v, %v", res, err)
		}
		if m.calls != 4 || len(clock.sleeps) != 3 {
			t.Errorf("expected 4 polls and 3 sleeps, got %d and %d", m.calls, len(clock.sleeps))
		}
		for _, s := range clock.sleeps {
			if s != PollInterval {
				t.Errorf("unexpected poll interval %v", s)
			}
		}
	})

	t.Run("timeout", func(t *testing.T) {
		e, _, m, _ := newTestEngine(0)
		_, err := e.WaitImage(context.Background(), "bt_army.png", 3*time.Second)
		if !errors.Is(err, ErrTimeout) {
			t.Fatalf("expected ErrTimeout, got %v", err)
		}
		if errors.Is(err, ErrNotFound) {
			t.Error("timeout must not be reported as not-found")
		}
		if m.calls != 4 {
			t.Errorf("expected 4 polls within 3s, got %d", m.calls)
		}
	})
}

func TestDragFromImage(t *testing.T) {
	e, dev, _, _ := newTestEngine(1)
	if _, err := e.DragFromImage(context.Background(), "layout/pin.png", image.Pt(300, 200), 0); err != nil {
		t.Fatal(err)
	}
	want := dragCall{42, 24, 300, 200, DefaultDragHold}
	if len(dev.drags) != 1 || dev.drags[0] != want {
		t.Errorf("expected %+v, got %+v", want, dev.drags)
	}

	e, dev, _, _ = newTestEngine(0)
	_, err := e.DragFromImage(context.Background(), "layout/pin.png", image.Pt(300, 200), time.Second, WithRetries(2))
	if !errors.Is(err, ErrNotFound) || len(dev.drags) != 0 {
		t.Errorf("expected not found without drag, got %v and %d drags", err, len(dev.drags))
	}
}

func TestRegionSelection(t *testing.T) {
	hint := cv.NewRegion(0, 0, 50, 50)
	explicit := cv.NewRegion(10, 10, 20, 20)

	tests := []struct {
		name string
		opts []Option
		want *cv.Region
	}{
		{"hint applies", nil, &hint},
		{"explicit wins", []Option{WithRegion(explicit)}, &explicit},
		{"hint disabled", []Option{WithoutRegionHint()}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMatcher{}
			e := NewEngine(Config{
				Device:  &fakeDevice{w: 860, h: 732},
				Locator: &fakeLocator{hint: &hint},
				Matcher: m,
				Clock:   newFakeClock(),
			})
			if _, err := e.Locate(context.Background(), "x.png", tt.opts...); err != nil {
				t.Fatal(err)
			}
			got := m.regions[0]
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Errorf("expected region %v, got %v", tt.want, got)
			}
		})
	}
}

func TestScrollSearchIgnoresRegionHint(t *testing.T) {
	hint := cv.NewRegion(0, 0, 50, 50)
	explicit := cv.NewRegion(10, 10, 20, 20)

	tests := []struct {
		name string
		opts []Option
		want *cv.Region
	}{
		{"hint ignored", nil, nil},
		{"explicit kept", []Option{WithRegion(explicit)}, &explicit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMatcher{foundOn: 2}
			e := NewEngine(Config{
				Device:  &fakeDevice{w: 860, h: 732},
				Locator: &fakeLocator{hint: &hint},
				Matcher: m,
				Clock:   newFakeClock(),
			})
			if _, err := e.FindAndTapWithScroll(context.Background(), "troops/giant.png", tt.opts...); err != nil {
				t.Fatal(err)
			}
			for i, got := range m.regions {
				if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
					t.Errorf("attempt %d: expected region %v, got %v", i+1, tt.want, got)
				}
			}
		})
	}
}

func TestMissingTemplateIsNotRetried(t *testing.T) {
	loc := &fakeLocator{err: errors.New("template image not found")}
	dev := &fakeDevice{w: 860, h: 732}
	e := NewEngine(Config{Device: dev, Locator: loc, Matcher: &fakeMatcher{}, Clock: newFakeClock()})

	_, err := e.TapImage(context.Background(), "nope.png")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected a descriptive load error, got %v", err)
	}
	if loc.lookups != 1 {
		t.Errorf("expected a single lookup, got %d", loc.lookups)
	}
}

func TestCaptureErrorPropagates(t *testing.T) {
	boom := errors.New("device offline")
	dev := &fakeDevice{captureErr: boom}
	e := NewEngine(Config{Device: dev, Locator: &fakeLocator{}, Matcher: &fakeMatcher{}, Clock: newFakeClock()})

	if _, err := e.TapImage(context.Background(), "x.png"); !errors.Is(err, boom) {
		t.Errorf("expected transport error, got %v", err)
	}
}

func TestImageExistsPublishesEvents(t *testing.T) {
	pub := &recordingPublisher{}
	e := NewEngine(Config{
		Device:  &fakeDevice{w: 860, h: 732},
		Locator: &fakeLocator{},
		Matcher: &fakeMatcher{foundOn: 1},
		Clock:   newFakeClock(),
		Events:  pub,
	})

	ok, err := e.ImageExists(context.Background(), "bt_atk.png")
	if err != nil || !ok {
		t.Fatalf("expected true, got %v, %v", ok, err)
	}
	if len(pub.events) != 1 || pub.events[0].Type != events.EventTypeTemplateFound {
		t.Errorf("unexpected events %+v", pub.events)
	}
}

func TestRealMatcherEndToEnd(t *testing.T) {
	frame := image.NewGray(image.Rect(0, 0, 100, 80))
	rng := rand.New(rand.NewSource(7))
	for i := range frame.Pix {
		frame.Pix[i] = uint8(rng.Intn(256))
	}
	tmpl := cv.Crop(frame, image.Rect(30, 20, 46, 32))

	dev := &grayDevice{frame: frame}
	e := NewEngine(Config{
		Device:  dev,
		Locator: staticLocator{tmpl: tmpl},
		Matcher: cv.NewNCCMatcher(),
		Clock:   newFakeClock(),
	})

	res, err := e.TapImage(context.Background(), "patch.png", WithRetries(1))
	if err != nil {
		t.Fatal(err)
	}
	if res.Center != image.Pt(38, 26) {
		t.Errorf("expected center (38,26), got %v", res.Center)
	}
	if len(dev.taps) != 1 || dev.taps[0] != image.Pt(38, 26) {
		t.Errorf("unexpected taps %v", dev.taps)
	}
}

type grayDevice struct {
	fakeDevice
	frame *image.Gray
}

func (d *grayDevice) Capture(ctx context.Context) (*image.Gray, error) {
	return d.frame, nil
}

type staticLocator struct {
	tmpl *image.Gray
}

func (l staticLocator) Resolve(name string, frameSize image.Point) (*image.Gray, *cv.Region, error) {
	return l.tmpl, nil, nil
}
