package adb

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
)

const (
	// DefaultScreenWidth and DefaultScreenHeight are returned when `wm size`
	// cannot be parsed
	DefaultScreenWidth  = 860
	DefaultScreenHeight = 732

	screenshotRemote = "/sdcard/screenshot.png"
)

// Android key codes used by the bot
const (
	KeyCodeHome = 3
	KeyCodeBack = 4
)

// Shell executes a remote shell command and returns its output
func (c *Controller) Shell(ctx context.Context, args ...string) (string, error) {
	output, err := c.run(ctx, append([]string{"shell"}, args...)...)
	if err != nil {
		return "", fmt.Errorf("shell command failed: %w, output: %s", err, output)
	}
	return string(output), nil
}

// Push copies a file from local to device
func (c *Controller) Push(ctx context.Context, localPath, remotePath string) error {
	output, err := c.run(ctx, "push", localPath, remotePath)
	if err != nil {
		return fmt.Errorf("push failed: %w, output: %s", err, output)
	}
	return nil
}

// Pull copies a file from device to local
func (c *Controller) Pull(ctx context.Context, remotePath, localPath string) error {
	output, err := c.run(ctx, "pull", remotePath, localPath)
	if err != nil {
		return fmt.Errorf("pull failed: %w, output: %s", err, output)
	}
	return nil
}

// Tap performs `input tap`
func (c *Controller) Tap(ctx context.Context, x, y int) error {
	_, err := c.Shell(ctx, fmt.Sprintf("input tap %d %d", x, y))
	return err
}

// Swipe performs `input swipe` over the given duration
func (c *Controller) Swipe(ctx context.Context, x1, y1, x2, y2 int, duration time.Duration) error {
	_, err := c.Shell(ctx, fmt.Sprintf("input swipe %d %d %d %d %d", x1, y1, x2, y2, duration.Milliseconds()))
	return err
}

// KeyEvent sends a key code (e.g. KeyCodeBack)
func (c *Controller) KeyEvent(ctx context.Context, code int) error {
	_, err := c.Shell(ctx, fmt.Sprintf("input keyevent %d", code))
	return err
}

// Text types text. Spaces are sent as %s, which `input text` expands.
func (c *Controller) Text(ctx context.Context, text string) error {
	escaped := strings.ReplaceAll(text, " ", "%s")
	_, err := c.Shell(ctx, "input text "+escaped)
	return err
}

// Screenshot captures the screen into localPath as PNG
func (c *Controller) Screenshot(ctx context.Context, localPath string) error {
	if _, err := c.Shell(ctx, "screencap -p "+screenshotRemote); err != nil {
		return fmt.Errorf("screencap failed: %w", err)
	}
	if err := c.Pull(ctx, screenshotRemote, localPath); err != nil {
		return err
	}
	if _, err := c.Shell(ctx, "rm "+screenshotRemote); err != nil {
		c.logger.Warn(fmt.Sprintf("Failed to remove %s: %v", screenshotRemote, err))
	}
	return nil
}

// ScreenSize returns the current resolution from `wm size`, preferring the
// override. Unparseable output yields the default size without error.
func (c *Controller) ScreenSize(ctx context.Context) (int, int, error) {
	output, err := c.Shell(ctx, "wm size")
	if err != nil {
		return DefaultScreenWidth, DefaultScreenHeight, err
	}
	if w, h, ok := ParseWindowSize(output); ok {
		return w, h, nil
	}
	return DefaultScreenWidth, DefaultScreenHeight, nil
}

// ParseWindowSize reads `wm size` output. An "Override size" line wins over
// "Physical size".
func ParseWindowSize(output string) (int, int, bool) {
	var physW, physH int
	found := false
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		var w, h int
		if _, err := fmt.Sscanf(line, "Override size: %dx%d", &w, &h); err == nil && w > 0 && h > 0 {
			return w, h, true
		}
		if _, err := fmt.Sscanf(line, "Physical size: %dx%d", &w, &h); err == nil && w > 0 && h > 0 {
			physW, physH, found = w, h, true
		}
	}
	return physW, physH, found
}

// Density returns the effective dpi from `wm density`, 0 if unknown
func (c *Controller) Density(ctx context.Context) (int, error) {
	output, err := c.Shell(ctx, "wm density")
	if err != nil {
		return 0, err
	}
	dpi := 0
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		var d int
		if _, err := fmt.Sscanf(line, "Override density: %d", &d); err == nil {
			return d, nil
		}
		if _, err := fmt.Sscanf(line, "Physical density: %d", &d); err == nil {
			dpi = d
		}
	}
	return dpi, nil
}

// SetScreenSize overrides the resolution
func (c *Controller) SetScreenSize(ctx context.Context, width, height int) error {
	_, err := c.Shell(ctx, fmt.Sprintf("wm size %dx%d", width, height))
	return err
}

// SetDensity overrides the dpi
func (c *Controller) SetDensity(ctx context.Context, dpi int) error {
	_, err := c.Shell(ctx, fmt.Sprintf("wm density %d", dpi))
	return err
}

// ResetScreen removes size and density overrides
func (c *Controller) ResetScreen(ctx context.Context) error {
	if _, err := c.Shell(ctx, "wm size reset"); err != nil {
		return err
	}
	_, err := c.Shell(ctx, "wm density reset")
	return err
}

// StartApp launches the package's launcher activity through monkey
func (c *Controller) StartApp(ctx context.Context, packageName string) error {
	output, err := c.Shell(ctx, fmt.Sprintf("monkey -p %s -c android.intent.category.LAUNCHER 1", packageName))
	if err != nil {
		return err
	}
	if strings.Contains(output, "No activities found") {
		return fmt.Errorf("package %s has no launcher activity", packageName)
	}
	return nil
}

// ForceStop stops an application
func (c *Controller) ForceStop(ctx context.Context, packageName string) error {
	_, err := c.Shell(ctx, "am force-stop "+packageName)
	return err
}

// IsAppRunning checks whether the package has a live process
func (c *Controller) IsAppRunning(ctx context.Context, packageName string) (bool, error) {
	output, err := c.Shell(ctx, "pidof "+packageName)
	if err != nil {
		// pidof exits 1 when nothing matches
		return false, nil
	}
	return strings.TrimSpace(output) != "", nil
}

// RemoveFile deletes a file on the device, ignoring a missing file
func (c *Controller) RemoveFile(ctx context.Context, remotePath string) error {
	_, err := c.Shell(ctx, "rm -f "+path.Clean(remotePath))
	return err
}
