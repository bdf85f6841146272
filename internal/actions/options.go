package actions

import (
	"image"
	"time"

	"jordanella.com/clan-bot-go/internal/cv"
)

// Defaults for locate-and-act calls
const (
	DefaultThreshold    = 0.8
	DefaultRetries      = 5
	DefaultDelay        = time.Second
	DefaultScrollPixels = 150
	DefaultMaxScrolls   = 5
	DefaultScrollHold   = 50 * time.Millisecond
	DefaultSettle       = 500 * time.Millisecond
	DefaultDragHold     = 200 * time.Millisecond
	PollInterval        = time.Second
)

// Option configures a single engine call
type Option func(*options)

type options struct {
	threshold    float64
	region       *cv.Region
	useHint      bool
	retries      int
	delay        time.Duration
	scrollPixels int
	maxScrolls   int
	anchor       *image.Point
	hold         time.Duration
	settle       time.Duration
}

func defaultOptions() options {
	return options{
		threshold:    DefaultThreshold,
		useHint:      true,
		retries:      DefaultRetries,
		delay:        DefaultDelay,
		scrollPixels: DefaultScrollPixels,
		maxScrolls:   DefaultMaxScrolls,
		hold:         DefaultScrollHold,
		settle:       DefaultSettle,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithThreshold sets the minimum match confidence
func WithThreshold(t float64) Option {
	return func(o *options) {
		o.threshold = t
	}
}

// WithRegion restricts the search to r. It takes precedence over any
// region hint.
func WithRegion(r cv.Region) Option {
	return func(o *options) {
		o.region = &r
	}
}

// WithoutRegionHint ignores the templates.json region for this call
func WithoutRegionHint() Option {
	return func(o *options) {
		o.useHint = false
	}
}

// WithRetries sets how many capture+match attempts TapImage and
// DragFromImage make
func WithRetries(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.retries = n
	}
}

// WithDelay sets the sleep between attempts
func WithDelay(d time.Duration) Option {
	return func(o *options) {
		o.delay = d
	}
}

// WithScroll sets the horizontal scroll distance. Positive values drag
// leftward.
func WithScroll(pixels int) Option {
	return func(o *options) {
		o.scrollPixels = pixels
	}
}

// WithMaxScrolls caps the number of scrolls in FindAndTapWithScroll
func WithMaxScrolls(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = 0
		}
		o.maxScrolls = n
	}
}

// WithAnchor sets where scroll drags start. Defaults to the screen center.
func WithAnchor(x, y int) Option {
	return func(o *options) {
		o.anchor = &image.Point{X: x, Y: y}
	}
}

// WithHold sets how long a drag holds at each end
func WithHold(d time.Duration) Option {
	return func(o *options) {
		o.hold = d
	}
}

// WithSettle sets the wait after a scroll before the next capture
func WithSettle(d time.Duration) Option {
	return func(o *options) {
		o.settle = d
	}
}
