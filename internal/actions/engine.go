package actions

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"jordanella.com/clan-bot-go/internal/cv"
	"jordanella.com/clan-bot-go/internal/events"
	"jordanella.com/clan-bot-go/internal/logging"
)

var (
	// ErrNotFound means the template was not seen within the attempt budget
	ErrNotFound = errors.New("template not found")
	// ErrTimeout means WaitImage ran out of time
	ErrTimeout = errors.New("timed out waiting for template")
)

// Device is the part of a device session the engine drives
type Device interface {
	Capture(ctx context.Context) (*image.Gray, error)
	Tap(ctx context.Context, x, y int) error
	Drag(ctx context.Context, x1, y1, x2, y2 int, hold time.Duration) error
	ScreenSize(ctx context.Context) (int, int, error)
}

// Locator turns a template name into an image and its hinted search
// region for a frame of the given size
type Locator interface {
	Resolve(name string, frameSize image.Point) (*image.Gray, *cv.Region, error)
}

// Config wires an Engine. Matcher, Clock and Logger fall back to defaults
// when nil.
type Config struct {
	Device  Device
	Locator Locator
	Matcher cv.Matcher
	Clock   Clock
	Events  events.Publisher
	Logger  *logging.Logger
}

// Engine finds templates on screen and acts on them
type Engine struct {
	device  Device
	locator Locator
	matcher cv.Matcher
	clock   Clock
	events  events.Publisher
	logger  *logging.Logger
}

// NewEngine creates an engine from cfg
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		device:  cfg.Device,
		locator: cfg.Locator,
		matcher: cfg.Matcher,
		clock:   cfg.Clock,
		events:  cfg.Events,
		logger:  cfg.Logger,
	}
	if e.matcher == nil {
		e.matcher = cv.DefaultMatcher()
	}
	if e.clock == nil {
		e.clock = RealClock{}
	}
	if e.logger == nil {
		e.logger = logging.NewLogger("Actions")
	}
	return e
}

// Locate captures one frame and matches name against it
func (e *Engine) Locate(ctx context.Context, name string, opts ...Option) (cv.MatchResult, error) {
	o := applyOptions(opts)
	return e.locate(ctx, name, &o, 1)
}

// ImageExists reports whether name is visible in a single capture
func (e *Engine) ImageExists(ctx context.Context, name string, opts ...Option) (bool, error) {
	res, err := e.Locate(ctx, name, opts...)
	if err != nil {
		return false, err
	}
	return res.Found, nil
}

// TapImage taps the center of name, retrying up to the retry budget with a
// delay between misses
func (e *Engine) TapImage(ctx context.Context, name string, opts ...Option) (cv.MatchResult, error) {
	o := applyOptions(opts)

	res, err := e.retry(ctx, name, &o)
	if err != nil {
		return res, err
	}
	if err := e.device.Tap(ctx, res.Center.X, res.Center.Y); err != nil {
		return res, fmt.Errorf("failed to tap %s: %w", name, err)
	}
	e.logger.DebugWithContext("Tapped template", map[string]interface{}{
		"template":   name,
		"x":          res.Center.X,
		"y":          res.Center.Y,
		"confidence": res.Confidence,
	})
	return res, nil
}

// DragFromImage presses on name and drags it to target
func (e *Engine) DragFromImage(ctx context.Context, name string, target image.Point, hold time.Duration, opts ...Option) (cv.MatchResult, error) {
	o := applyOptions(opts)
	if hold <= 0 {
		hold = DefaultDragHold
	}

	res, err := e.retry(ctx, name, &o)
	if err != nil {
		return res, err
	}
	if err := e.device.Drag(ctx, res.Center.X, res.Center.Y, target.X, target.Y, hold); err != nil {
		return res, fmt.Errorf("failed to drag %s: %w", name, err)
	}
	return res, nil
}

// FindAndTapWithScroll looks for name, scrolling the list horizontally
// between misses. It makes at most maxScrolls+1 attempts. The item moves
// while scrolling, so templates.json region hints are ignored; an explicit
// WithRegion still applies.
func (e *Engine) FindAndTapWithScroll(ctx context.Context, name string, opts ...Option) (cv.MatchResult, error) {
	o := applyOptions(append([]Option{WithoutRegionHint()}, opts...))

	for attempt := 0; attempt <= o.maxScrolls; attempt++ {
		res, err := e.locate(ctx, name, &o, attempt+1)
		if err != nil {
			return res, err
		}
		if res.Found {
			if err := e.device.Tap(ctx, res.Center.X, res.Center.Y); err != nil {
				return res, fmt.Errorf("failed to tap %s: %w", name, err)
			}
			return res, nil
		}

		if attempt < o.maxScrolls {
			e.logger.Warn(fmt.Sprintf("%s not found, scrolling... (%d/%d)", name, attempt+1, o.maxScrolls))
			if err := e.scroll(ctx, &o); err != nil {
				return res, err
			}
			if err := e.clock.Sleep(ctx, o.settle); err != nil {
				return res, err
			}
		}
	}

	e.logger.Warn(fmt.Sprintf("%s not found after %d scrolls", name, o.maxScrolls))
	return cv.MatchResult{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// WaitImage polls for name once per PollInterval until it shows up or
// timeout elapses
func (e *Engine) WaitImage(ctx context.Context, name string, timeout time.Duration, opts ...Option) (cv.MatchResult, error) {
	o := applyOptions(opts)
	deadline := e.clock.Now().Add(timeout)

	for attempt := 1; ; attempt++ {
		res, err := e.locate(ctx, name, &o, attempt)
		if err != nil {
			return res, err
		}
		if res.Found {
			return res, nil
		}
		if !e.clock.Now().Before(deadline) {
			return cv.MatchResult{}, fmt.Errorf("%w: %s after %s", ErrTimeout, name, timeout)
		}
		if err := e.clock.Sleep(ctx, PollInterval); err != nil {
			return cv.MatchResult{}, err
		}
	}
}

func (e *Engine) retry(ctx context.Context, name string, o *options) (cv.MatchResult, error) {
	for attempt := 1; attempt <= o.retries; attempt++ {
		res, err := e.locate(ctx, name, o, attempt)
		if err != nil {
			return res, err
		}
		if res.Found {
			return res, nil
		}
		if attempt < o.retries {
			if err := e.clock.Sleep(ctx, o.delay); err != nil {
				return res, err
			}
		}
	}
	return cv.MatchResult{}, fmt.Errorf("%w: %s after %d attempts", ErrNotFound, name, o.retries)
}

func (e *Engine) locate(ctx context.Context, name string, o *options, attempt int) (cv.MatchResult, error) {
	frame, err := e.device.Capture(ctx)
	if err != nil {
		return cv.MatchResult{}, fmt.Errorf("failed to capture screen: %w", err)
	}

	tmpl, hint, err := e.locator.Resolve(name, frame.Bounds().Size())
	if err != nil {
		return cv.MatchResult{}, fmt.Errorf("failed to load template %s: %w", name, err)
	}

	region := o.region
	if region == nil && o.useHint {
		region = hint
	}

	res, err := e.matcher.Match(frame, tmpl, o.threshold, region)
	if err != nil {
		return res, fmt.Errorf("failed to match %s: %w", name, err)
	}

	events.Publish(e.events, events.NewTemplateEvent(name, res.Found, res.Confidence, attempt))
	return res, nil
}

func (e *Engine) scroll(ctx context.Context, o *options) error {
	anchor, err := e.anchor(ctx, o)
	if err != nil {
		return err
	}
	if err := e.device.Drag(ctx, anchor.X, anchor.Y, anchor.X-o.scrollPixels, anchor.Y, o.hold); err != nil {
		return fmt.Errorf("failed to scroll: %w", err)
	}
	return nil
}

func (e *Engine) anchor(ctx context.Context, o *options) (image.Point, error) {
	if o.anchor != nil {
		return *o.anchor, nil
	}
	w, h, err := e.device.ScreenSize(ctx)
	if err != nil {
		return image.Point{}, fmt.Errorf("failed to read screen size: %w", err)
	}
	return image.Pt(w/2, h/2), nil
}
