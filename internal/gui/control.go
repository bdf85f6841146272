package gui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"jordanella.com/clan-bot-go/internal/bot"
	"jordanella.com/clan-bot-go/internal/logging"
)

// Operation names that are not chores
const (
	opKillBlueStacks      = "kill_bluestacks"
	opConfigureBlueStacks = "configure_bluestacks"
	opStartBlueStacks     = "start_bluestacks"
	opSetupEmulator       = "setup_emulator"
	opValidateADB         = "validate_adb"
	opConnectDevice       = "connect_device"
	opScreenshot          = "screenshot"
)

const screenshotDir = "screenshots"

// ControlTab holds the emulator, device and chore buttons
type ControlTab struct {
	controller *Controller
	logger     *logging.Logger

	moveRightEntry *widget.Entry
	moveDownEntry  *widget.Entry
}

// NewControlTab creates the control tab
func NewControlTab(ctrl *Controller) *ControlTab {
	return &ControlTab{
		controller: ctrl,
		logger:     logging.NewLogger("Control"),
	}
}

// Build constructs the control tab
func (t *ControlTab) Build() fyne.CanvasObject {
	tr := t.controller.tr
	settings := t.controller.services.Settings

	blueStacks := widget.NewCard(tr.T("gui.labels.blue_stacks_control"), "", container.NewGridWithColumns(3,
		t.button(opKillBlueStacks, t.killBlueStacks),
		t.button(opConfigureBlueStacks, t.configureBlueStacks),
		t.button(opStartBlueStacks, t.startBlueStacks),
		t.button(opSetupEmulator, t.setupEmulator),
		t.button(opValidateADB, t.validateADB),
	))

	deviceCard := widget.NewCard(tr.T("gui.labels.device_connection"), "", container.NewGridWithColumns(3,
		t.button(opConnectDevice, t.connectDevice),
		t.button(opScreenshot, t.screenshot),
	))

	t.moveRightEntry = widget.NewEntry()
	t.moveRightEntry.SetText(strconv.Itoa(settings.UI.MoveRight))
	t.moveDownEntry = widget.NewEntry()
	t.moveDownEntry.SetText(strconv.Itoa(settings.UI.MoveDown))

	view := container.NewGridWithColumns(4,
		widget.NewLabel(tr.T("gui.labels.move_right")), t.moveRightEntry,
		widget.NewLabel(tr.T("gui.labels.move_down")), t.moveDownEntry,
	)
	game := widget.NewCard(tr.T("gui.labels.game_actions"), "", container.NewVBox(
		container.NewGridWithColumns(3,
			t.choreButton(bot.ChoreInitGame),
			widget.NewButton(tr.T("gui.buttons.center_view"), t.centerView),
			t.choreButton(bot.ChoreGoHome),
		),
		view,
	))

	functions := widget.NewCard(tr.T("gui.labels.bot_functions"), "", container.NewGridWithColumns(3,
		t.choreButton(bot.ChoreDeleteArmy),
		t.choreButton(bot.ChoreCreateArmy),
		t.choreButton(bot.ChoreTrainArmy),
		t.choreButton(bot.ChoreDonateCastle),
		t.choreButton(bot.ChoreRequestCastle),
		t.choreButton(bot.ChoreConfigLanguage),
		t.choreButton(bot.ChoreConfigAttackLayout),
	))

	return container.NewVScroll(container.NewVBox(blueStacks, deviceCard, game, functions))
}

// button runs fn through the runner under name
func (t *ControlTab) button(name string, fn func(ctx context.Context) error) *widget.Button {
	return widget.NewButton(t.controller.choreLabel(name), func() {
		t.controller.RunChore(name, fn)
	})
}

// choreButton runs a chore from the catalog of the connected device
func (t *ControlTab) choreButton(name string) *widget.Button {
	return widget.NewButton(t.controller.choreLabel(name), func() {
		t.controller.RunDeviceChore(name, func(ctx context.Context, chores *bot.Chores) error {
			for _, chore := range chores.Catalog() {
				if chore.Name == name {
					return chore.Run(ctx)
				}
			}
			return fmt.Errorf("unknown chore %s", name)
		})
	})
}

func (t *ControlTab) killBlueStacks(ctx context.Context) error {
	t.logger.Info(t.controller.tr.T("logs.bs.killing"))
	t.controller.services.Emulator().Kill(ctx)
	return nil
}

func (t *ControlTab) configureBlueStacks(ctx context.Context) error {
	t.logger.Info(t.controller.tr.T("logs.bs.configuring"))
	_, err := t.controller.services.Emulator().Configure()
	return err
}

func (t *ControlTab) startBlueStacks(ctx context.Context) error {
	t.logger.Info(t.controller.tr.T("logs.bs.starting"))
	if err := t.controller.services.Emulator().Start(ctx); err != nil {
		return err
	}
	t.logger.Info(t.controller.tr.T("logs.bs.started"))
	return nil
}

func (t *ControlTab) setupEmulator(ctx context.Context) error {
	loaded, err := t.controller.services.SetupEmulator(ctx)
	if err != nil {
		return err
	}
	if !loaded {
		t.logger.Warn("Village not detected after setup")
	}
	return nil
}

func (t *ControlTab) validateADB(ctx context.Context) error {
	info, err := t.controller.services.Emulator().ValidateADB(ctx)
	if err != nil {
		return err
	}
	message := fmt.Sprintf("%dx%d @ %d dpi", info.Width, info.Height, info.Density)
	fyne.Do(func() { t.controller.info(message) })
	return nil
}

func (t *ControlTab) connectDevice(ctx context.Context) error {
	tr := t.controller.tr
	t.logger.Info(tr.T("logs.device.connecting"))
	if err := t.controller.services.Connect(ctx); err != nil {
		return err
	}
	session, err := t.controller.services.Session()
	if err != nil {
		return err
	}
	t.logger.Info(tr.T("logs.device.connected", map[string]interface{}{"Serial": session.Serial()}))
	return nil
}

func (t *ControlTab) screenshot(ctx context.Context) error {
	session, err := t.controller.services.Session()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(screenshotDir, 0755); err != nil {
		return fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	path := filepath.Join(screenshotDir, fmt.Sprintf("screen_%s.png", time.Now().Format("20060102_150405")))
	if err := session.CaptureToFile(ctx, path); err != nil {
		return err
	}
	t.logger.Info(t.controller.tr.T("logs.device.screenshot_saved", map[string]interface{}{"Path": path}))
	return nil
}

// centerView uses the offsets typed in the tab, not the saved ones
func (t *ControlTab) centerView() {
	right, errRight := strconv.Atoi(t.moveRightEntry.Text)
	down, errDown := strconv.Atoi(t.moveDownEntry.Text)
	if errRight != nil || errDown != nil {
		t.controller.warn(t.controller.tr.T("gui.messages.invalid_quantity"))
		return
	}

	session, err := t.controller.services.Session()
	if err != nil {
		t.controller.warn(t.controller.tr.T("gui.messages.please_connect_device"))
		return
	}
	t.controller.RunChore(bot.ChoreCenterView, func(ctx context.Context) error {
		return session.CenterView(ctx, right, down)
	})
}
