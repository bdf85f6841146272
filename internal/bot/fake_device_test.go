package bot

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"jordanella.com/clan-bot-go/internal/actions"
	"jordanella.com/clan-bot-go/internal/adb"
	"jordanella.com/clan-bot-go/internal/cv"
	"jordanella.com/clan-bot-go/internal/events"
	"jordanella.com/clan-bot-go/pkg/templates"
)

// fakeDevice is a screen made of named templates that are either visible
// or not. Hooks change what is visible after taps, drags and key presses.
type fakeDevice struct {
	visible map[string]bool
	missing map[string]bool
	texts   map[string]bool
	fail    error

	onTap    map[string]func(d *fakeDevice)
	onKey    func(d *fakeDevice, presses int)
	onScroll func(d *fakeDevice, scrolls int)

	taps     []string
	drags    []string
	textTaps []string
	opened   []string
	keys     int
	scrolls  int
	zooms    int
	centers  []image.Point
	slept    time.Duration
	size     image.Point
	density  int
}

func newFakeDevice(visible ...string) *fakeDevice {
	d := &fakeDevice{
		visible: make(map[string]bool),
		missing: make(map[string]bool),
		texts:   make(map[string]bool),
		onTap:   make(map[string]func(d *fakeDevice)),
	}
	for _, name := range visible {
		d.visible[name] = true
	}
	return d
}

// hideAfter makes name disappear after it was tapped n times
func (d *fakeDevice) hideAfter(name string, n int) {
	count := 0
	d.onTap[name] = func(d *fakeDevice) {
		count++
		if count >= n {
			d.visible[name] = false
		}
	}
}

func (d *fakeDevice) count(name string) int {
	n := 0
	for _, t := range d.taps {
		if t == name {
			n++
		}
	}
	return n
}

func (d *fakeDevice) lookup(name string) (cv.MatchResult, error) {
	if d.fail != nil {
		return cv.MatchResult{}, d.fail
	}
	if d.missing[name] {
		return cv.MatchResult{}, fmt.Errorf("failed to load template %s: %w", name, templates.ErrTemplateMissing)
	}
	if d.visible[name] {
		return cv.MatchResult{Found: true, Center: image.Pt(10, 10), Confidence: 0.99}, nil
	}
	return cv.MatchResult{}, nil
}

func (d *fakeDevice) act(name string, record *[]string, notFound error) (cv.MatchResult, error) {
	res, err := d.lookup(name)
	if err != nil {
		return res, err
	}
	if !res.Found {
		return res, fmt.Errorf("%w: %s", notFound, name)
	}
	*record = append(*record, name)
	if hook := d.onTap[name]; hook != nil {
		hook(d)
	}
	return res, nil
}

func (d *fakeDevice) Sleep(ctx context.Context, dur time.Duration) error {
	d.slept += dur
	return ctx.Err()
}

func (d *fakeDevice) KeyEvent(ctx context.Context, code int) error {
	if code == keycodeBack {
		d.keys++
		if d.onKey != nil {
			d.onKey(d, d.keys)
		}
	}
	return nil
}

func (d *fakeDevice) OpenApp(ctx context.Context, pkg string) error {
	d.opened = append(d.opened, pkg)
	return nil
}

func (d *fakeDevice) SetScreenSize(ctx context.Context, width, height int) error {
	d.size = image.Pt(width, height)
	return nil
}

func (d *fakeDevice) SetDensity(ctx context.Context, dpi int) error {
	d.density = dpi
	return nil
}

func (d *fakeDevice) ZoomOut(ctx context.Context, steps int, duration time.Duration) error {
	d.zooms++
	return nil
}

func (d *fakeDevice) CenterView(ctx context.Context, moveRight, moveDown int) error {
	d.centers = append(d.centers, image.Pt(moveRight, moveDown))
	return nil
}

func (d *fakeDevice) ScrollVertical(ctx context.Context, pixels int, anchor *image.Point) error {
	d.scrolls++
	if d.onScroll != nil {
		d.onScroll(d, d.scrolls)
	}
	return nil
}

func (d *fakeDevice) TapText(ctx context.Context, text string) error {
	if !d.texts[text] {
		return fmt.Errorf("text %q: %w", text, adb.ErrNodeNotFound)
	}
	d.textTaps = append(d.textTaps, text)
	return nil
}

func (d *fakeDevice) FindTemplate(ctx context.Context, name string, threshold float64) (cv.MatchResult, error) {
	return d.lookup(name)
}

func (d *fakeDevice) ImageExists(ctx context.Context, name string, opts ...actions.Option) (bool, error) {
	res, err := d.lookup(name)
	return res.Found, err
}

func (d *fakeDevice) TapImage(ctx context.Context, name string, opts ...actions.Option) (cv.MatchResult, error) {
	return d.act(name, &d.taps, actions.ErrNotFound)
}

func (d *fakeDevice) FindAndTapWithScroll(ctx context.Context, name string, opts ...actions.Option) (cv.MatchResult, error) {
	return d.act(name, &d.taps, actions.ErrNotFound)
}

func (d *fakeDevice) WaitImage(ctx context.Context, name string, timeout time.Duration, opts ...actions.Option) (cv.MatchResult, error) {
	res, err := d.lookup(name)
	if err == nil && !res.Found {
		err = fmt.Errorf("%w: %s", actions.ErrTimeout, name)
	}
	return res, err
}

func (d *fakeDevice) DragFromImage(ctx context.Context, name string, target image.Point, hold time.Duration, opts ...actions.Option) (cv.MatchResult, error) {
	return d.act(name, &d.drags, actions.ErrNotFound)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.EventType
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
