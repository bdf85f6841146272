package device

import (
	"context"
	"fmt"
	"image"
	"time"

	"jordanella.com/clan-bot-go/internal/actions"
	"jordanella.com/clan-bot-go/internal/adb"
	"jordanella.com/clan-bot-go/internal/cv"
	"jordanella.com/clan-bot-go/internal/events"
	"jordanella.com/clan-bot-go/internal/logging"
	"jordanella.com/clan-bot-go/internal/touch"
	"jordanella.com/clan-bot-go/pkg/templates"
)

// Config describes how to reach the device and where its assets live
type Config struct {
	ADBPath        string
	Host           string
	Port           int
	Package        string // game package opened by OpenApp
	TemplatesDir   string
	Touch          touch.Config
	Runner         adb.Runner       // nil uses adb.ExecRunner
	Matcher        cv.Matcher       // nil uses cv.DefaultMatcher
	Clock          actions.Clock    // nil uses the wall clock
	Events         events.Publisher // optional
	WatchTemplates bool
}

// Session is a connected device with the touch helper installed
type Session struct {
	config    Config
	adb       *adb.Controller
	touch     *touch.Transport
	templates *templates.Registry
	engine    *actions.Engine
	clock     actions.Clock
	events    events.Publisher
	logger    *logging.Logger
	watcher   *templates.Watcher
}

// New connects to the device, installs the touch helper and loads template
// hints. A missing helper aborts construction.
func New(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.TemplatesDir == "" {
		cfg.TemplatesDir = "templates"
	}
	if cfg.Clock == nil {
		cfg.Clock = actions.RealClock{}
	}

	s := &Session{
		config: cfg,
		clock:  cfg.Clock,
		events: cfg.Events,
		logger: logging.NewLogger("Device"),
	}
	s.adb = adb.NewController(cfg.ADBPath, cfg.Host, cfg.Port, cfg.Runner)

	if err := s.Connect(ctx); err != nil {
		return nil, err
	}

	s.touch = touch.NewTransport(s.adb, cfg.Touch)
	if err := s.touch.Bootstrap(ctx); err != nil {
		return nil, fmt.Errorf("touch helper bootstrap failed: %w", err)
	}

	s.templates = templates.NewRegistry(cfg.TemplatesDir)
	if err := s.templates.Load(); err != nil {
		return nil, err
	}
	if cfg.WatchTemplates {
		w, err := s.templates.Watch(ctx)
		if err != nil {
			s.logger.Warn(fmt.Sprintf("Template hot reload disabled: %v", err))
		} else {
			s.watcher = w
		}
	}

	s.engine = actions.NewEngine(actions.Config{
		Device:  s,
		Locator: s.templates,
		Matcher: cfg.Matcher,
		Clock:   cfg.Clock,
		Events:  cfg.Events,
	})

	s.logger.InfoWithContext("Device session ready", map[string]interface{}{
		"serial": s.adb.Serial(),
	})
	return s, nil
}

// Close stops background work. The adb connection is left up.
func (s *Session) Close() {
	if s.watcher != nil {
		s.watcher.Stop()
	}
}

// Serial returns the device identity
func (s *Session) Serial() string {
	return s.adb.Serial()
}

// ADB exposes the underlying controller
func (s *Session) ADB() *adb.Controller {
	return s.adb
}

// Templates exposes the template registry
func (s *Session) Templates() *templates.Registry {
	return s.templates
}

// Engine exposes the locate-and-act engine
func (s *Session) Engine() *actions.Engine {
	return s.engine
}

// Connect connects over adb. Safe to call repeatedly.
func (s *Session) Connect(ctx context.Context) error {
	wasConnected := s.adb.IsConnected()
	if err := s.adb.Connect(ctx); err != nil {
		return err
	}
	if !wasConnected {
		events.Publish(s.events, events.Event{
			Type:      events.EventTypeSessionConnected,
			Source:    "device",
			Timestamp: time.Now(),
			Data:      map[string]interface{}{"serial": s.adb.Serial()},
		})
	}
	return nil
}

// Sleep waits on the session clock
func (s *Session) Sleep(ctx context.Context, d time.Duration) error {
	return s.clock.Sleep(ctx, d)
}

// ScreenSize returns the live resolution, falling back to the default
// target resolution when the query fails
func (s *Session) ScreenSize(ctx context.Context) (int, int, error) {
	w, h, err := s.adb.ScreenSize(ctx)
	if err != nil {
		s.logger.Debug(fmt.Sprintf("Screen size query failed, using %dx%d: %v", w, h, err))
	}
	return w, h, nil
}

// SetScreenSize overrides the device resolution
func (s *Session) SetScreenSize(ctx context.Context, width, height int) error {
	return s.adb.SetScreenSize(ctx, width, height)
}

// SetDensity overrides the device dpi
func (s *Session) SetDensity(ctx context.Context, dpi int) error {
	return s.adb.SetDensity(ctx, dpi)
}

// ResetScreen clears size and density overrides
func (s *Session) ResetScreen(ctx context.Context) error {
	return s.adb.ResetScreen(ctx)
}

// OpenApp launches the configured game package, or pkg when given
func (s *Session) OpenApp(ctx context.Context, pkg string) error {
	if pkg == "" {
		pkg = s.config.Package
	}
	return s.adb.StartApp(ctx, pkg)
}

// ForceStop kills the configured game package, or pkg when given
func (s *Session) ForceStop(ctx context.Context, pkg string) error {
	if pkg == "" {
		pkg = s.config.Package
	}
	return s.adb.ForceStop(ctx, pkg)
}

// Swipe uses `input swipe`, which is enough for plain scrolling
func (s *Session) Swipe(ctx context.Context, x1, y1, x2, y2 int, duration time.Duration) error {
	return s.adb.Swipe(ctx, x1, y1, x2, y2, duration)
}

// KeyEvent sends an Android key code
func (s *Session) KeyEvent(ctx context.Context, code int) error {
	return s.adb.KeyEvent(ctx, code)
}

// Text types text into the focused field
func (s *Session) Text(ctx context.Context, text string) error {
	return s.adb.Text(ctx, text)
}

// DumpUI returns the current uiautomator tree
func (s *Session) DumpUI(ctx context.Context) (*adb.UINode, error) {
	return s.adb.DumpUI(ctx)
}

// TapText taps the first UI node whose text equals text. Returns
// adb.ErrNodeNotFound when nothing matches.
func (s *Session) TapText(ctx context.Context, text string) error {
	node, err := s.adb.FindNode(ctx, adb.Query{Text: text})
	if err != nil {
		return fmt.Errorf("text %q: %w", text, err)
	}
	center, ok := node.Center()
	if !ok {
		return fmt.Errorf("text %q has no bounds: %w", text, adb.ErrNodeNotFound)
	}
	return s.Tap(ctx, center.X, center.Y)
}

// FindTemplate runs a single match of name against a fresh capture
func (s *Session) FindTemplate(ctx context.Context, name string, threshold float64) (cv.MatchResult, error) {
	return s.engine.Locate(ctx, name, actions.WithThreshold(threshold))
}

// ImageExists reports whether name is on screen right now
func (s *Session) ImageExists(ctx context.Context, name string, opts ...actions.Option) (bool, error) {
	return s.engine.ImageExists(ctx, name, opts...)
}

// TapImage finds and taps name with retries
func (s *Session) TapImage(ctx context.Context, name string, opts ...actions.Option) (cv.MatchResult, error) {
	return s.engine.TapImage(ctx, name, opts...)
}

// FindAndTapWithScroll finds and taps name, scrolling between misses
func (s *Session) FindAndTapWithScroll(ctx context.Context, name string, opts ...actions.Option) (cv.MatchResult, error) {
	return s.engine.FindAndTapWithScroll(ctx, name, opts...)
}

// WaitImage waits up to timeout for name
func (s *Session) WaitImage(ctx context.Context, name string, timeout time.Duration, opts ...actions.Option) (cv.MatchResult, error) {
	return s.engine.WaitImage(ctx, name, timeout, opts...)
}

// DragFromImage drags name to target
func (s *Session) DragFromImage(ctx context.Context, name string, target image.Point, hold time.Duration, opts ...actions.Option) (cv.MatchResult, error) {
	return s.engine.DragFromImage(ctx, name, target, hold, opts...)
}
