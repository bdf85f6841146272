package gui

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"jordanella.com/clan-bot-go/internal/adb"
	"jordanella.com/clan-bot-go/internal/bot"
	"jordanella.com/clan-bot-go/internal/config"
	"jordanella.com/clan-bot-go/internal/database"
	"jordanella.com/clan-bot-go/internal/device"
	"jordanella.com/clan-bot-go/internal/emulator"
	"jordanella.com/clan-bot-go/internal/events"
	"jordanella.com/clan-bot-go/internal/i18n"
	"jordanella.com/clan-bot-go/internal/logging"
	"jordanella.com/clan-bot-go/internal/touch"
	"jordanella.com/clan-bot-go/pkg/templates"
)

// ErrNotConnected is returned by device operations before Connect succeeds
var ErrNotConnected = errors.New("device not connected")

var (
	_ bot.Device   = (*device.Session)(nil)
	_ bot.Emulator = (*emulator.Manager)(nil)
)

// Services is the non-visual state behind the window
type Services struct {
	Settings     *config.Settings
	SettingsPath string
	Bus          *events.DefaultEventBus
	Runner       *bot.Runner
	DB           *database.DB // nil when history is unavailable
	Translator   *i18n.Translator
	Templates    *templates.Registry

	mu      sync.Mutex
	session *device.Session
	chores  *bot.Chores
	logger  *logging.Logger
}

// NewServices wires the runner to bus. db may be nil.
func NewServices(settings *config.Settings, settingsPath string, bus *events.DefaultEventBus, db *database.DB, tr *i18n.Translator) *Services {
	return &Services{
		Settings:     settings,
		SettingsPath: settingsPath,
		Bus:          bus,
		Runner:       bot.NewRunner(bus),
		DB:           db,
		Translator:   tr,
		Templates:    templates.NewRegistry(settings.Game.TemplatesDir),
		logger:       logging.NewLogger("GUI"),
	}
}

func (s *Services) adbPath() string {
	path, err := adb.FindADB(s.Settings.ADB.Path)
	if err != nil {
		if s.Settings.ADB.Path != "" {
			return s.Settings.ADB.Path
		}
		return "adb"
	}
	return path
}

// DeviceConfig maps the settings onto a device session config
func (s *Services) DeviceConfig() device.Config {
	tc := touch.DefaultConfig()
	if s.Settings.Touch.HelperLocal != "" {
		tc.HelperLocal = s.Settings.Touch.HelperLocal
	}
	if s.Settings.Touch.HelperRemote != "" {
		tc.HelperRemote = s.Settings.Touch.HelperRemote
	}

	return device.Config{
		ADBPath:        s.adbPath(),
		Host:           s.Settings.ADB.Host,
		Port:           s.Settings.ADB.Port,
		Package:        s.Settings.Game.Package,
		TemplatesDir:   s.Settings.Game.TemplatesDir,
		Touch:          tc,
		Events:         s.Bus,
		WatchTemplates: true,
	}
}

// EmulatorConfig maps the settings onto a BlueStacks manager config
func (s *Services) EmulatorConfig() emulator.Config {
	return emulator.Config{
		ConfPath:    s.Settings.Emulator.ConfPath,
		PlayerPath:  s.Settings.Emulator.PlayerPath,
		Instance:    s.Settings.Emulator.Instance,
		ADBPath:     s.adbPath(),
		Host:        s.Settings.ADB.Host,
		Port:        s.Settings.ADB.Port,
		StartupWait: s.Settings.Emulator.StartupWait,
		Resolution: emulator.Resolution{
			Width:  s.Settings.Screen.Width,
			Height: s.Settings.Screen.Height,
			DPI:    s.Settings.Screen.DPI,
		},
		Events: s.Bus,
	}
}

// Emulator returns a manager for the configured BlueStacks install
func (s *Services) Emulator() *emulator.Manager {
	return emulator.NewManager(s.EmulatorConfig())
}

func (s *Services) choreConfig(dev bot.Device) bot.Config {
	return bot.Config{
		Device:    dev,
		Package:   s.Settings.Game.Package,
		Army:      s.Army,
		MoveRight: s.Settings.UI.MoveRight,
		MoveDown:  s.Settings.UI.MoveDown,
	}
}

// Connect opens a device session, replacing any previous one
func (s *Services) Connect(ctx context.Context) error {
	_, err := s.connect(ctx)
	return err
}

func (s *Services) connect(ctx context.Context) (bot.Device, error) {
	session, err := device.New(ctx, s.DeviceConfig())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	old := s.session
	s.session = session
	s.chores = bot.New(s.choreConfig(session))
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return session, nil
}

// Connected reports whether a device session is open
func (s *Services) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

// Session returns the open device session
func (s *Services) Session() (*device.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, ErrNotConnected
	}
	return s.session, nil
}

// Chores returns the chores bound to the open session
func (s *Services) Chores() (*bot.Chores, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chores == nil {
		return nil, ErrNotConnected
	}
	return s.chores, nil
}

// SetupEmulator runs the full emulator setup and keeps the new session
func (s *Services) SetupEmulator(ctx context.Context) (bool, error) {
	_, loaded, err := bot.SetupEmulator(ctx, s.Emulator(), s.connect, s.choreConfig(nil), s.Settings.Screen)
	return loaded, err
}

// Army reads the army file named in the settings
func (s *Services) Army() *config.Army {
	return config.LoadArmy(s.Settings.Game.ArmyFile)
}

// SaveSettings writes the settings back to disk
func (s *Services) SaveSettings() error {
	if err := config.Save(s.Settings, s.SettingsPath); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Close releases the device session
func (s *Services) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		s.session.Close()
		s.session = nil
		s.chores = nil
	}
}
