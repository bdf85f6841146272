package gui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"jordanella.com/clan-bot-go/internal/bot"
	"jordanella.com/clan-bot-go/internal/config"
	"jordanella.com/clan-bot-go/internal/logging"
)

var (
	errInvalidQuantity = errors.New("invalid quantity")
	errDuplicateTroop  = errors.New("troop already in army")
)

// armyEditor is the army being edited, kept apart from the widgets
type armyEditor struct {
	troops []config.Unit
	spells []config.Unit
}

func newArmyEditor(army *config.Army) *armyEditor {
	e := &armyEditor{}
	if army != nil {
		e.troops = append(e.troops, army.Troops...)
		e.spells = append(e.spells, army.Spells...)
	}
	return e
}

// Add appends a troop. Quantities must be positive and names unique.
func (e *armyEditor) Add(name string, quantity string) error {
	qty, err := strconv.Atoi(strings.TrimSpace(quantity))
	if err != nil || qty <= 0 {
		return errInvalidQuantity
	}
	for _, u := range e.troops {
		if u.Name == name {
			return errDuplicateTroop
		}
	}
	e.troops = append(e.troops, config.Unit{Name: name, Quantity: qty})
	return nil
}

// Remove drops the troop at index i; out of range is a no-op
func (e *armyEditor) Remove(i int) {
	if i < 0 || i >= len(e.troops) {
		return
	}
	e.troops = append(e.troops[:i], e.troops[i+1:]...)
}

func (e *armyEditor) Units() []config.Unit {
	return e.troops
}

// Army returns the edited army. Spells loaded from disk are kept as they were.
func (e *armyEditor) Army() *config.Army {
	return &config.Army{
		Troops: append([]config.Unit(nil), e.troops...),
		Spells: append([]config.Unit(nil), e.spells...),
	}
}

func formatUnit(u config.Unit) string {
	return fmt.Sprintf("%dx %s", u.Quantity, u.Name)
}

// ArmyTab edits army.json
type ArmyTab struct {
	controller *Controller
	logger     *logging.Logger
	editor     *armyEditor

	available     []string
	selectedTroop int
	selectedUnit  int

	troopList     *widget.List
	armyList      *widget.List
	quantityEntry *widget.Entry
}

// NewArmyTab creates the army tab from the saved army file
func NewArmyTab(ctrl *Controller) *ArmyTab {
	return &ArmyTab{
		controller:    ctrl,
		logger:        logging.NewLogger("Army"),
		editor:        newArmyEditor(ctrl.services.Army()),
		selectedTroop: -1,
		selectedUnit:  -1,
	}
}

// Build constructs the two lists and their buttons
func (t *ArmyTab) Build() fyne.CanvasObject {
	tr := t.controller.tr

	t.troopList = widget.NewList(
		func() int { return len(t.available) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(t.available[id])
		},
	)
	t.troopList.OnSelected = func(id widget.ListItemID) { t.selectedTroop = id }
	t.troopList.OnUnselected = func(widget.ListItemID) { t.selectedTroop = -1 }

	t.armyList = widget.NewList(
		func() int { return len(t.editor.Units()) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(formatUnit(t.editor.Units()[id]))
		},
	)
	t.armyList.OnSelected = func(id widget.ListItemID) { t.selectedUnit = id }
	t.armyList.OnUnselected = func(widget.ListItemID) { t.selectedUnit = -1 }

	t.quantityEntry = widget.NewEntry()
	t.quantityEntry.SetText("1")

	left := container.NewBorder(
		widget.NewLabelWithStyle(tr.T("gui.labels.available_troops"), fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewVBox(
			widget.NewForm(widget.NewFormItem(tr.T("gui.labels.quantity"), t.quantityEntry)),
			container.NewGridWithColumns(2,
				widget.NewButton(tr.T("gui.buttons.refresh_list"), t.RefreshTroops),
				widget.NewButton(tr.T("gui.buttons.add_selected"), t.addSelected),
			),
		),
		nil, nil, t.troopList,
	)

	right := container.NewBorder(
		widget.NewLabelWithStyle(tr.T("gui.labels.army_configuration"), fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewGridWithColumns(3,
			widget.NewButton(tr.T("gui.buttons.remove_selected"), t.removeSelected),
			widget.NewButton(tr.T("gui.buttons.save_army_config"), t.save),
			widget.NewButton(tr.T("gui.buttons.load_army_config"), t.load),
		),
		nil, nil, t.armyList,
	)

	t.RefreshTroops()
	return container.NewGridWithColumns(2, left, right)
}

// RefreshTroops lists the troop templates on disk
func (t *ArmyTab) RefreshTroops() {
	names, err := t.controller.services.Templates.List(bot.TroopKind)
	if err != nil {
		t.logger.Warn(fmt.Sprintf("Cannot list troop templates: %v", err))
		names = nil
	}
	t.available = names
	t.selectedTroop = -1
	t.logger.Info(t.controller.tr.T("logs.army.loaded_troops", map[string]interface{}{"Count": len(names)}))
	if t.troopList != nil {
		t.troopList.UnselectAll()
		t.troopList.Refresh()
	}
}

func (t *ArmyTab) addSelected() {
	tr := t.controller.tr
	if t.selectedTroop < 0 || t.selectedTroop >= len(t.available) {
		t.controller.warn(tr.T("gui.messages.please_select_troop"))
		return
	}
	name := t.available[t.selectedTroop]

	switch err := t.editor.Add(name, t.quantityEntry.Text); {
	case errors.Is(err, errInvalidQuantity):
		t.controller.warn(tr.T("gui.messages.invalid_quantity"))
		return
	case errors.Is(err, errDuplicateTroop):
		t.controller.warn(tr.T("gui.messages.troop_already_in_army", map[string]interface{}{"Troop": name}))
		return
	}

	t.logger.Info(tr.T("logs.army.added_troop", map[string]interface{}{
		"Quantity": strings.TrimSpace(t.quantityEntry.Text),
		"Troop":    name,
	}))
	t.armyList.Refresh()
}

func (t *ArmyTab) removeSelected() {
	t.editor.Remove(t.selectedUnit)
	t.selectedUnit = -1
	t.armyList.UnselectAll()
	t.armyList.Refresh()
}

func (t *ArmyTab) save() {
	path := t.controller.services.Settings.Game.ArmyFile
	army := t.editor.Army()
	if err := config.SaveArmy(path, army); err != nil {
		t.logger.Error("Failed to save army", err)
		t.controller.showError(err)
		return
	}
	t.logger.Info(t.controller.tr.T("logs.army.saved_config", map[string]interface{}{"Count": len(army.Troops)}))
	t.controller.info(t.controller.tr.T("gui.messages.army_config_saved"))
}

func (t *ArmyTab) load() {
	t.editor = newArmyEditor(t.controller.services.Army())
	t.selectedUnit = -1
	t.armyList.UnselectAll()
	t.armyList.Refresh()
}
