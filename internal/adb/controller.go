package adb

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"jordanella.com/clan-bot-go/internal/logging"
)

// Runner executes a local program and returns its combined output
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

// Run implements Runner
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Controller drives one device through the adb binary
type Controller struct {
	path      string
	serial    string // "host:port"
	runner    Runner
	logger    *logging.Logger
	mu        sync.Mutex
	connected bool
}

// NewController creates a controller for host:port. A nil runner uses
// ExecRunner.
func NewController(adbPath, host string, port int, runner Runner) *Controller {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Controller{
		path:   adbPath,
		serial: fmt.Sprintf("%s:%d", host, port),
		runner: runner,
		logger: logging.NewLogger("ADB"),
	}
}

// Serial returns the device identity used with -s
func (c *Controller) Serial() string {
	return c.serial
}

// Connect runs `adb connect`. Calling it again on a connected device is a
// no-op on the adb side as well.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	output, err := c.runner.Run(ctx, c.path, "connect", c.serial)
	if err != nil {
		return fmt.Errorf("failed to connect to device %s: %w, output: %s", c.serial, err, output)
	}

	out := string(output)
	if !strings.Contains(out, "connected") || strings.Contains(out, "cannot") || strings.Contains(out, "failed") {
		return fmt.Errorf("unexpected connect output: %s", strings.TrimSpace(out))
	}

	if !c.connected {
		c.logger.InfoWithContext("Connected", map[string]interface{}{"serial": c.serial})
	}
	c.connected = true
	return nil
}

// Disconnect runs `adb disconnect`
func (c *Controller) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}
	if output, err := c.runner.Run(ctx, c.path, "disconnect", c.serial); err != nil {
		return fmt.Errorf("disconnect failed: %w, output: %s", err, output)
	}
	c.connected = false
	return nil
}

// IsConnected returns whether the controller is connected
func (c *Controller) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// run executes an adb subcommand against this device
func (c *Controller) run(ctx context.Context, args ...string) ([]byte, error) {
	return c.runner.Run(ctx, c.path, append([]string{"-s", c.serial}, args...)...)
}
