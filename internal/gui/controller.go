package gui

import (
	"context"
	"errors"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"jordanella.com/clan-bot-go/internal/bot"
	"jordanella.com/clan-bot-go/internal/events"
	"jordanella.com/clan-bot-go/internal/i18n"
	"jordanella.com/clan-bot-go/internal/logging"
)

// Controller owns the window and routes button presses to the runner
type Controller struct {
	services *Services
	tr       *i18n.Translator
	app      fyne.App
	window   fyne.Window

	controlTab *ControlTab
	configTab  *ConfigTab
	armyTab    *ArmyTab
	historyTab *HistoryTab
	logTab     *LogTab

	statusLabel *widget.Label
	contentArea *fyne.Container
	bridge      *uiBridge

	ctx    context.Context
	cancel context.CancelFunc
}

// NewController creates the controller and its tabs
func NewController(services *Services, app fyne.App, window fyne.Window) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	ctrl := &Controller{
		services: services,
		tr:       services.Translator,
		app:      app,
		window:   window,
		bridge:   newUIBridge(services.Bus),
		ctx:      ctx,
		cancel:   cancel,
	}

	ctrl.controlTab = NewControlTab(ctrl)
	ctrl.configTab = NewConfigTab(ctrl)
	ctrl.armyTab = NewArmyTab(ctrl)
	ctrl.historyTab = NewHistoryTab(ctrl)
	ctrl.logTab = NewLogTab(ctrl)

	return ctrl
}

// LogSink feeds log lines into the log tab
func (c *Controller) LogSink() logging.Sink {
	return c.logTab.AddLine
}

// BuildUI constructs the window content: tab buttons on top, the selected
// tab below and a status line at the bottom
func (c *Controller) BuildUI() fyne.CanvasObject {
	tr := c.tr
	tabButtons := container.NewHBox(
		widget.NewButton(tr.T("gui.tabs.control"), func() { c.showTab(0) }),
		widget.NewButton(tr.T("gui.tabs.settings"), func() { c.showTab(1) }),
		widget.NewButton(tr.T("gui.tabs.army"), func() { c.showTab(2) }),
		widget.NewButton(tr.T("gui.tabs.history"), func() { c.showTab(3) }),
		widget.NewButton(tr.T("gui.tabs.log"), func() { c.showTab(4) }),
	)

	c.contentArea = container.NewStack(
		c.controlTab.Build(),
		c.configTab.Build(),
		c.armyTab.Build(),
		c.historyTab.Build(),
		c.logTab.Build(),
	)
	c.showTab(0)

	c.statusLabel = widget.NewLabel(tr.T("gui.labels.status_idle"))
	c.setupEventHandlers()

	return container.NewBorder(tabButtons, c.statusLabel, nil, nil, c.contentArea)
}

func (c *Controller) showTab(index int) {
	if c.contentArea == nil {
		return
	}
	for i, obj := range c.contentArea.Objects {
		if i == index {
			obj.Show()
		} else {
			obj.Hide()
		}
	}
	if index == 3 {
		c.historyTab.Refresh()
	}
	c.contentArea.Refresh()
}

func (c *Controller) setupEventHandlers() {
	c.bridge.On(events.EventTypeChoreStarted, func(e events.Event) {
		chore, _ := e.Data["chore"].(string)
		c.statusLabel.SetText(c.tr.T("gui.labels.status_running", map[string]interface{}{
			"Chore": c.choreLabel(chore),
		}))
	})

	idle := func(events.Event) {
		c.statusLabel.SetText(c.tr.T("gui.labels.status_idle"))
		c.historyTab.Refresh()
	}
	c.bridge.On(events.EventTypeChoreCompleted, idle)
	c.bridge.On(events.EventTypeChoreFailed, idle)
}

// choreLabel translates a chore name when a button label exists for it
func (c *Controller) choreLabel(name string) string {
	key := "gui.buttons." + name
	if c.tr.Exists(key) {
		return c.tr.T(key)
	}
	return name
}

// RunChore hands fn to the runner. A second request while one runs only
// shows a warning.
func (c *Controller) RunChore(name string, fn func(ctx context.Context) error) {
	err := c.services.Runner.Go(c.ctx, name, fn, func(err error) {
		if err != nil && !errors.Is(err, context.Canceled) {
			fyne.Do(func() { c.showError(err) })
		}
	})
	if errors.Is(err, bot.ErrBusy) {
		c.warn(c.tr.T("gui.messages.another_operation_running"))
	}
}

// RunDeviceChore is RunChore for work that needs a connected device
func (c *Controller) RunDeviceChore(name string, fn func(ctx context.Context, chores *bot.Chores) error) {
	chores, err := c.services.Chores()
	if err != nil {
		c.warn(c.tr.T("gui.messages.please_connect_device"))
		return
	}
	c.RunChore(name, func(ctx context.Context) error {
		return fn(ctx, chores)
	})
}

func (c *Controller) warn(message string) {
	dialog.ShowInformation(c.tr.T("gui.messages.warning"), message, c.window)
}

func (c *Controller) info(message string) {
	dialog.ShowInformation(c.tr.T("gui.messages.success"), message, c.window)
}

func (c *Controller) showError(err error) {
	dialog.ShowError(err, c.window)
}

// Shutdown cancels running work and releases the device
func (c *Controller) Shutdown() {
	c.cancel()
	c.bridge.Close()
	c.services.Close()
}
