package touch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"jordanella.com/clan-bot-go/internal/logging"
)

// ErrHelperMissing is returned by Bootstrap when the helper is neither on the
// device nor available locally to push.
var ErrHelperMissing = errors.New("touch helper binary not found")

// ErrHelperBroken is returned when the pushed helper does not print usage.
var ErrHelperBroken = errors.New("touch helper installed but not runnable")

// Bridge is the subset of the device bridge the transport needs
type Bridge interface {
	Shell(ctx context.Context, args ...string) (string, error)
	Push(ctx context.Context, localPath, remotePath string) error
	ScreenSize(ctx context.Context) (int, int, error)
}

// Config locates the helper binary and the script staging directories
type Config struct {
	HelperLocal  string // local copy pushed when the device has none
	HelperRemote string // e.g. /data/local/tmp/minitouch
	RemoteDir    string // where scripts are pushed
	LocalTempDir string // "" uses os.TempDir
}

// DefaultConfig returns the standard on-device layout
func DefaultConfig() Config {
	return Config{
		HelperLocal:  "resources/adb_scripts/minitouch",
		HelperRemote: "/data/local/tmp/minitouch",
		RemoteDir:    "/data/local/tmp",
	}
}

// Transport writes gesture scripts to the device and runs them through the
// helper
type Transport struct {
	bridge Bridge
	config Config
	logger *logging.Logger

	mu           sync.Mutex
	bootstrapped bool

	newName func() string
}

// NewTransport creates a transport. Call Bootstrap before the first gesture.
func NewTransport(bridge Bridge, config Config) *Transport {
	if config.HelperRemote == "" {
		config.HelperRemote = DefaultConfig().HelperRemote
	}
	if config.RemoteDir == "" {
		config.RemoteDir = DefaultConfig().RemoteDir
	}
	return &Transport{
		bridge:  bridge,
		config:  config,
		logger:  logging.NewLogger("Touch"),
		newName: func() string { return "gesture-" + uuid.NewString() + ".txt" },
	}
}

// Bootstrap verifies the helper is installed and executable, installing it
// if needed. Only the first successful call does any work.
func (t *Transport) Bootstrap(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bootstrapped {
		return nil
	}

	helper := t.config.HelperRemote
	out, err := t.bridge.Shell(ctx, fmt.Sprintf("test -x %s && echo OK", helper))
	if err == nil && strings.Contains(out, "OK") {
		t.logger.Debug("Touch helper already installed")
		t.bootstrapped = true
		return nil
	}

	if t.config.HelperLocal == "" {
		return ErrHelperMissing
	}
	if _, err := os.Stat(t.config.HelperLocal); err != nil {
		return fmt.Errorf("%w: %s", ErrHelperMissing, t.config.HelperLocal)
	}

	t.logger.InfoWithContext("Installing touch helper", map[string]interface{}{
		"local":  t.config.HelperLocal,
		"remote": helper,
	})

	if err := t.bridge.Push(ctx, t.config.HelperLocal, helper); err != nil {
		return fmt.Errorf("failed to push touch helper: %w", err)
	}
	if _, err := t.bridge.Shell(ctx, "chmod", "755", helper); err != nil {
		return fmt.Errorf("failed to chmod touch helper: %w", err)
	}

	// -h exits non-zero on some builds, so only the output is checked
	usage, _ := t.bridge.Shell(ctx, helper, "-h")
	if !strings.Contains(usage, "Usage") {
		return ErrHelperBroken
	}

	t.logger.Info("Touch helper installed")
	t.bootstrapped = true
	return nil
}

// Bounds reads max_x/max_y from the helper handshake. Falls back to
// DefaultMaxCoord when no `^` line is found.
func (t *Transport) Bounds(ctx context.Context) (int, int) {
	out, err := t.bridge.Shell(ctx, fmt.Sprintf("echo '' | %s -i", t.config.HelperRemote))
	if err != nil {
		t.logger.Debug(fmt.Sprintf("Handshake failed, using default bounds: %v", err))
		return DefaultMaxCoord, DefaultMaxCoord
	}
	if maxX, maxY, ok := ParseHandshake(out); ok {
		return maxX, maxY
	}
	return DefaultMaxCoord, DefaultMaxCoord
}

// ParseHandshake extracts max_x and max_y from the `^ <contacts> <max_x> <max_y> <max_pressure>` line
func ParseHandshake(output string) (int, int, bool) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "^") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 4 {
			continue
		}
		maxX, errX := strconv.Atoi(parts[2])
		maxY, errY := strconv.Atoi(parts[3])
		if errX != nil || errY != nil || maxX <= 0 || maxY <= 0 {
			continue
		}
		return maxX, maxY, true
	}
	return 0, 0, false
}

// Mapper queries the current screen size and helper bounds
func (t *Transport) Mapper(ctx context.Context) Mapper {
	w, h, err := t.bridge.ScreenSize(ctx)
	if err != nil {
		w, h = 0, 0
	}
	maxX, maxY := t.Bounds(ctx)
	return NewMapper(w, h, maxX, maxY)
}

// Execute delivers the script under a unique name and runs it. The remote
// and local copies are removed afterwards.
func (t *Transport) Execute(ctx context.Context, s *Script) error {
	name := t.newName()

	local, err := os.CreateTemp(t.config.LocalTempDir, "gesture-*.txt")
	if err != nil {
		return fmt.Errorf("failed to create script file: %w", err)
	}
	defer os.Remove(local.Name())

	if _, err := local.WriteString(s.String()); err != nil {
		local.Close()
		return fmt.Errorf("failed to write script file: %w", err)
	}
	if err := local.Close(); err != nil {
		return fmt.Errorf("failed to write script file: %w", err)
	}

	remote := path.Join(t.config.RemoteDir, name)
	if err := t.bridge.Push(ctx, local.Name(), remote); err != nil {
		return fmt.Errorf("failed to push gesture script: %w", err)
	}
	defer func() {
		if _, err := t.bridge.Shell(context.WithoutCancel(ctx), "rm", "-f", remote); err != nil {
			t.logger.Warn(fmt.Sprintf("Failed to remove %s: %v", remote, err))
		}
	}()

	if _, err := t.bridge.Shell(ctx, t.config.HelperRemote, "-f", remote); err != nil {
		return fmt.Errorf("failed to run gesture script: %w", err)
	}
	return nil
}

// Tap taps a logical point
func (t *Transport) Tap(ctx context.Context, x, y int) error {
	return t.Execute(ctx, TapScript(t.Mapper(ctx), x, y))
}

// Drag presses, moves and releases between two logical points
func (t *Transport) Drag(ctx context.Context, x1, y1, x2, y2 int, hold time.Duration) error {
	return t.Execute(ctx, DragScript(t.Mapper(ctx), x1, y1, x2, y2, hold))
}

// Pinch runs a two-finger pinch around the screen center
func (t *Transport) Pinch(ctx context.Context, dir PinchDirection, steps int, duration time.Duration) error {
	return t.Execute(ctx, PinchScript(t.Mapper(ctx), dir, steps, duration))
}
