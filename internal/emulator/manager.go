package emulator

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"jordanella.com/clan-bot-go/internal/adb"
	"jordanella.com/clan-bot-go/internal/events"
	"jordanella.com/clan-bot-go/internal/logging"
)

// BlueStacks processes killed by Kill
var playerProcesses = []string{"HD-Player.exe", "HD-Service.exe", "HD-Frontend.exe"}

// Launcher starts and stops local processes
type Launcher interface {
	adb.Runner
	Start(name string, args ...string) error
}

// ExecLauncher uses os/exec
type ExecLauncher struct {
	adb.ExecRunner
}

// Start launches a detached process
func (ExecLauncher) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

// Config locates the emulator and its adb endpoint
type Config struct {
	ConfPath    string
	PlayerPath  string
	Instance    string // empty: detect from the adb port
	ADBPath     string
	Host        string
	Port        int
	StartupWait time.Duration
	Resolution  Resolution
	Launcher    Launcher         // nil uses ExecLauncher
	Events      events.Publisher // optional
	Sleep       func(ctx context.Context, d time.Duration) error
}

// ScreenInfo is what ValidateADB reads back from the device
type ScreenInfo struct {
	Width   int
	Height  int
	Density int
}

// Manager controls one BlueStacks installation
type Manager struct {
	config   Config
	launcher Launcher
	logger   *logging.Logger
}

// NewManager creates a manager from cfg
func NewManager(cfg Config) *Manager {
	if cfg.Launcher == nil {
		cfg.Launcher = ExecLauncher{}
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleep
	}
	return &Manager{
		config:   cfg,
		launcher: cfg.Launcher,
		logger:   logging.NewLogger("BlueStacks"),
	}
}

// Configure writes the target resolution into bluestacks.conf and returns
// the instance that was edited
func (m *Manager) Configure() (string, error) {
	conf, err := LoadConf(m.config.ConfPath)
	if err != nil {
		return "", err
	}

	instance := m.config.Instance
	if instance == "" {
		instance, err = conf.DetectInstance(m.config.Port)
		if err != nil {
			return "", err
		}
	}
	m.logger.InfoWithContext("Detected instance", map[string]interface{}{"instance": instance})

	if err := conf.ApplyResolution(instance, m.config.Resolution); err != nil {
		return "", err
	}
	if err := conf.Save(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", conf.Path(), err)
	}
	m.logger.Info("Config applied successfully")
	return instance, nil
}

// Kill terminates every BlueStacks process. Missing processes are not an
// error.
func (m *Manager) Kill(ctx context.Context) {
	m.logger.Info("Killing BlueStacks...")
	for _, proc := range playerProcesses {
		var err error
		if runtime.GOOS == "windows" {
			_, err = m.launcher.Run(ctx, "taskkill", "/F", "/IM", proc)
		} else {
			_, err = m.launcher.Run(ctx, "pkill", "-f", proc)
		}
		if err != nil {
			m.logger.Debug(fmt.Sprintf("%s was not running: %v", proc, err))
		}
	}
	events.Publish(m.config.Events, events.NewEmulatorEvent(events.EventTypeEmulatorStopped, m.config.Instance))
}

// Start launches the player and waits StartupWait for it to boot
func (m *Manager) Start(ctx context.Context) error {
	if _, err := os.Stat(m.config.PlayerPath); err != nil {
		return fmt.Errorf("player not found at %s: %w", m.config.PlayerPath, err)
	}

	m.logger.Info("Starting BlueStacks...")
	var args []string
	if m.config.Instance != "" {
		args = []string{"--instance", m.config.Instance}
	}
	if err := m.launcher.Start(m.config.PlayerPath, args...); err != nil {
		return fmt.Errorf("failed to start player: %w", err)
	}
	if err := m.config.Sleep(ctx, m.config.StartupWait); err != nil {
		return err
	}

	events.Publish(m.config.Events, events.NewEmulatorEvent(events.EventTypeEmulatorStarted, m.config.Instance))
	m.logger.Info("BlueStacks started")
	return nil
}

// ValidateADB connects and reads back the screen size and density
func (m *Manager) ValidateADB(ctx context.Context) (ScreenInfo, error) {
	ctrl := adb.NewController(m.config.ADBPath, m.config.Host, m.config.Port, m.launcher)
	if err := ctrl.Connect(ctx); err != nil {
		return ScreenInfo{}, err
	}

	out, err := ctrl.Shell(ctx, "wm size")
	if err != nil {
		return ScreenInfo{}, err
	}
	w, h, ok := adb.ParseWindowSize(out)
	if !ok {
		return ScreenInfo{}, fmt.Errorf("unexpected wm size output: %s", strings.TrimSpace(out))
	}

	dpi, err := ctrl.Density(ctx)
	if err != nil {
		return ScreenInfo{}, err
	}

	info := ScreenInfo{Width: w, Height: h, Density: dpi}
	m.logger.InfoWithContext("ADB validated", map[string]interface{}{
		"serial":  ctrl.Serial(),
		"screen":  fmt.Sprintf("%dx%d", w, h),
		"density": dpi,
	})
	return info, nil
}

// Setup stops the player, writes the resolution, starts it again and
// validates the adb connection
func (m *Manager) Setup(ctx context.Context) (ScreenInfo, error) {
	m.Kill(ctx)

	instance, err := m.Configure()
	if err != nil {
		return ScreenInfo{}, err
	}
	if m.config.Instance == "" {
		m.config.Instance = instance
	}

	if err := m.Start(ctx); err != nil {
		return ScreenInfo{}, err
	}
	return m.ValidateADB(ctx)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
