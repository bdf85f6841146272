package bot

import (
	"context"
	"image"
	"time"

	"jordanella.com/clan-bot-go/internal/actions"
	"jordanella.com/clan-bot-go/internal/cv"
	"jordanella.com/clan-bot-go/internal/emulator"
)

// Device is everything the chores need from a device session
type Device interface {
	Sleep(ctx context.Context, d time.Duration) error
	KeyEvent(ctx context.Context, code int) error
	OpenApp(ctx context.Context, pkg string) error
	SetScreenSize(ctx context.Context, width, height int) error
	SetDensity(ctx context.Context, dpi int) error

	ZoomOut(ctx context.Context, steps int, duration time.Duration) error
	CenterView(ctx context.Context, moveRight, moveDown int) error
	ScrollVertical(ctx context.Context, pixels int, anchor *image.Point) error
	TapText(ctx context.Context, text string) error

	FindTemplate(ctx context.Context, name string, threshold float64) (cv.MatchResult, error)
	ImageExists(ctx context.Context, name string, opts ...actions.Option) (bool, error)
	TapImage(ctx context.Context, name string, opts ...actions.Option) (cv.MatchResult, error)
	FindAndTapWithScroll(ctx context.Context, name string, opts ...actions.Option) (cv.MatchResult, error)
	WaitImage(ctx context.Context, name string, timeout time.Duration, opts ...actions.Option) (cv.MatchResult, error)
	DragFromImage(ctx context.Context, name string, target image.Point, hold time.Duration, opts ...actions.Option) (cv.MatchResult, error)
}

// Emulator restarts the emulator with the target resolution applied
type Emulator interface {
	Setup(ctx context.Context) (emulator.ScreenInfo, error)
}

// Connector opens a device session once the emulator is reachable
type Connector func(ctx context.Context) (Device, error)
