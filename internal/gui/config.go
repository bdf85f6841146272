package gui

import (
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"jordanella.com/clan-bot-go/internal/config"
	"jordanella.com/clan-bot-go/internal/logging"
)

// settingsForm holds the raw text of the settings tab
type settingsForm struct {
	ADBPath   string
	Host      string
	Port      string
	Package   string
	Language  string
	MoveRight string
	MoveDown  string
}

func formFromSettings(s *config.Settings) settingsForm {
	return settingsForm{
		ADBPath:   s.ADB.Path,
		Host:      s.ADB.Host,
		Port:      strconv.Itoa(s.ADB.Port),
		Package:   s.Game.Package,
		Language:  s.UI.Language,
		MoveRight: strconv.Itoa(s.UI.MoveRight),
		MoveDown:  strconv.Itoa(s.UI.MoveDown),
	}
}

// apply validates the form and copies it into s. s is untouched on error.
func (f settingsForm) apply(s *config.Settings) error {
	port, err := strconv.Atoi(strings.TrimSpace(f.Port))
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port %q", f.Port)
	}
	right, err := strconv.Atoi(strings.TrimSpace(f.MoveRight))
	if err != nil {
		return fmt.Errorf("invalid move right %q", f.MoveRight)
	}
	down, err := strconv.Atoi(strings.TrimSpace(f.MoveDown))
	if err != nil {
		return fmt.Errorf("invalid move down %q", f.MoveDown)
	}
	host := strings.TrimSpace(f.Host)
	if host == "" {
		return fmt.Errorf("host is required")
	}
	pkg := strings.TrimSpace(f.Package)
	if pkg == "" {
		return fmt.Errorf("game package is required")
	}

	s.ADB.Path = strings.TrimSpace(f.ADBPath)
	s.ADB.Host = host
	s.ADB.Port = port
	s.Game.Package = pkg
	if f.Language != "" {
		s.UI.Language = f.Language
	}
	s.UI.MoveRight = right
	s.UI.MoveDown = down
	return nil
}

// ConfigTab edits Settings.ini
type ConfigTab struct {
	controller *Controller
	logger     *logging.Logger

	adbPathEntry   *widget.Entry
	hostEntry      *widget.Entry
	portEntry      *widget.Entry
	packageEntry   *widget.Entry
	languageSelect *widget.Select
	moveRightEntry *widget.Entry
	moveDownEntry  *widget.Entry
}

// NewConfigTab creates the settings tab
func NewConfigTab(ctrl *Controller) *ConfigTab {
	return &ConfigTab{
		controller: ctrl,
		logger:     logging.NewLogger("Settings"),
	}
}

// Build constructs the settings form
func (c *ConfigTab) Build() fyne.CanvasObject {
	tr := c.controller.tr

	c.adbPathEntry = widget.NewEntry()
	c.hostEntry = widget.NewEntry()
	c.portEntry = widget.NewEntry()
	c.packageEntry = widget.NewEntry()
	c.languageSelect = widget.NewSelect(tr.Languages(), nil)
	c.moveRightEntry = widget.NewEntry()
	c.moveDownEntry = widget.NewEntry()
	c.load()

	browse := widget.NewButton("...", c.browseForADBPath)

	adb := widget.NewCard(tr.T("gui.labels.adb_settings"), "", widget.NewForm(
		widget.NewFormItem(tr.T("gui.labels.adb_path"), container.NewBorder(nil, nil, nil, browse, c.adbPathEntry)),
		widget.NewFormItem(tr.T("gui.labels.host"), c.hostEntry),
		widget.NewFormItem(tr.T("gui.labels.port"), c.portEntry),
	))
	game := widget.NewCard(tr.T("gui.labels.game_settings"), "", widget.NewForm(
		widget.NewFormItem(tr.T("gui.labels.game_package"), c.packageEntry),
		widget.NewFormItem(tr.T("gui.labels.language"), c.languageSelect),
	))
	view := widget.NewCard(tr.T("gui.labels.view_settings"), "", widget.NewForm(
		widget.NewFormItem(tr.T("gui.labels.move_right"), c.moveRightEntry),
		widget.NewFormItem(tr.T("gui.labels.move_down"), c.moveDownEntry),
	))

	save := widget.NewButton(tr.T("gui.buttons.save_settings"), c.save)
	save.Importance = widget.HighImportance

	return container.NewVScroll(container.NewVBox(adb, game, view, save))
}

func (c *ConfigTab) load() {
	form := formFromSettings(c.controller.services.Settings)
	c.adbPathEntry.SetText(form.ADBPath)
	c.hostEntry.SetText(form.Host)
	c.portEntry.SetText(form.Port)
	c.packageEntry.SetText(form.Package)
	c.languageSelect.SetSelected(c.controller.tr.Language())
	c.moveRightEntry.SetText(form.MoveRight)
	c.moveDownEntry.SetText(form.MoveDown)
}

func (c *ConfigTab) save() {
	form := settingsForm{
		ADBPath:   c.adbPathEntry.Text,
		Host:      c.hostEntry.Text,
		Port:      c.portEntry.Text,
		Package:   c.packageEntry.Text,
		Language:  c.languageSelect.Selected,
		MoveRight: c.moveRightEntry.Text,
		MoveDown:  c.moveDownEntry.Text,
	}

	services := c.controller.services
	if err := form.apply(services.Settings); err != nil {
		c.controller.showError(err)
		return
	}
	if err := services.SaveSettings(); err != nil {
		c.logger.Error("Failed to save settings", err)
		c.controller.showError(err)
		return
	}

	// Labels already built keep their text until restart
	c.controller.tr.SetLanguage(services.Settings.UI.Language)
	c.logger.Info(fmt.Sprintf("Settings saved to %s", services.SettingsPath))
	c.controller.info(c.controller.tr.T("gui.messages.settings_saved"))
}

func (c *ConfigTab) browseForADBPath() {
	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			c.controller.showError(err)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()
		c.adbPathEntry.SetText(reader.URI().Path())
	}, c.controller.window)
	fileDialog.Resize(c.controller.window.Canvas().Size())
	fileDialog.Show()
}
