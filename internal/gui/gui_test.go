package gui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jordanella.com/clan-bot-go/internal/config"
	"jordanella.com/clan-bot-go/internal/database"
	"jordanella.com/clan-bot-go/internal/events"
)

func TestLevelOf(t *testing.T) {
	tests := []struct {
		line string
		want LogLevel
	}{
		{"15:04:05 DBG tapping component=Bot", LogLevelDebug},
		{"15:04:05 INF connected component=ADB", LogLevelInfo},
		{"15:04:05 WRN template missing component=Engine", LogLevelWarn},
		{"15:04:05 ERR failed error=boom component=Bot", LogLevelError},
		{"15:04:05 FTL cannot start", LogLevelError},
		{"garbage", LogLevelInfo},
		{"", LogLevelInfo},
	}
	for _, tt := range tests {
		if got := levelOf(tt.line); got != tt.want {
			t.Errorf("levelOf(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestArmyEditor(t *testing.T) {
	e := newArmyEditor(&config.Army{
		Troops: []config.Unit{{Name: "barbarian", Quantity: 10}},
		Spells: []config.Unit{{Name: "rage", Quantity: 2}},
	})

	if err := e.Add("archer", "5"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := e.Add("archer", "3"); !errors.Is(err, errDuplicateTroop) {
		t.Errorf("duplicate Add() error = %v", err)
	}
	for _, qty := range []string{"0", "-2", "many", ""} {
		if err := e.Add("giant", qty); !errors.Is(err, errInvalidQuantity) {
			t.Errorf("Add(giant, %q) error = %v", qty, err)
		}
	}

	e.Remove(0)
	e.Remove(7)
	units := e.Units()
	if len(units) != 1 || units[0] != (config.Unit{Name: "archer", Quantity: 5}) {
		t.Fatalf("Units() = %v", units)
	}

	army := e.Army()
	if len(army.Spells) != 1 || army.Spells[0].Name != "rage" {
		t.Errorf("spells not kept: %v", army.Spells)
	}
	army.Troops[0].Quantity = 99
	if e.Units()[0].Quantity != 5 {
		t.Error("Army() shares storage with the editor")
	}
}

func TestArmyEditorNilArmy(t *testing.T) {
	e := newArmyEditor(nil)
	if len(e.Units()) != 0 {
		t.Errorf("Units() = %v", e.Units())
	}
	if err := e.Add("wizard", " 4 "); err != nil {
		t.Fatal(err)
	}
	if got := formatUnit(e.Units()[0]); got != "4x wizard" {
		t.Errorf("formatUnit() = %q", got)
	}
}

func TestSettingsFormApply(t *testing.T) {
	s := config.Default()
	form := formFromSettings(s)
	form.Port = "5555"
	form.MoveRight = "-20"
	form.Language = "en-US"
	form.ADBPath = " /opt/adb "

	if err := form.apply(s); err != nil {
		t.Fatalf("apply() error = %v", err)
	}
	if s.ADB.Port != 5555 || s.UI.MoveRight != -20 || s.UI.Language != "en-US" || s.ADB.Path != "/opt/adb" {
		t.Errorf("settings = %+v %+v", s.ADB, s.UI)
	}
}

func TestSettingsFormRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*settingsForm)
	}{
		{"port text", func(f *settingsForm) { f.Port = "abc" }},
		{"port range", func(f *settingsForm) { f.Port = "70000" }},
		{"move down", func(f *settingsForm) { f.MoveDown = "1.5" }},
		{"empty host", func(f *settingsForm) { f.Host = " " }},
		{"empty package", func(f *settingsForm) { f.Package = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := config.Default()
			form := formFromSettings(s)
			form.MoveRight = "1"
			tt.modify(&form)
			if err := form.apply(s); err == nil {
				t.Fatal("apply() succeeded")
			}
			if s.UI.MoveRight != 100 {
				t.Error("settings changed on error")
			}
		})
	}
}

func TestFormatRun(t *testing.T) {
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	finished := started.Add(1500 * time.Millisecond)

	running := formatRun(&database.ChoreRun{Chore: "train_army", Status: database.ChoreStatusRunning, StartedAt: started})
	if !strings.Contains(running, "train_army") || !strings.Contains(running, "running") || strings.Contains(running, "1.5s") {
		t.Errorf("running = %q", running)
	}

	failed := formatRun(&database.ChoreRun{
		Chore: "donate_castle", Status: database.ChoreStatusFailed,
		StartedAt: started, FinishedAt: &finished, Duration: 1500 * time.Millisecond, Error: "not home",
	})
	if !strings.Contains(failed, "03-01 10:00:00") || !strings.Contains(failed, "1.5s") || !strings.HasSuffix(failed, "not home") {
		t.Errorf("failed = %q", failed)
	}
}

func TestFormatStat(t *testing.T) {
	got := formatStat(&database.TemplateStat{Template: "menu/bt_army.png", Hits: 3, Misses: 1, BestConfidence: 0.93})
	if !strings.Contains(got, "3/4") || !strings.Contains(got, "75.0%") || !strings.Contains(got, "0.93") {
		t.Errorf("formatStat() = %q", got)
	}
}

func newTestServices(t *testing.T) *Services {
	t.Helper()
	dir := t.TempDir()
	adbPath := filepath.Join(dir, "adb")
	if err := os.WriteFile(adbPath, nil, 0755); err != nil {
		t.Fatal(err)
	}

	s := config.Default()
	s.ADB.Path = adbPath
	s.ADB.Port = 5565
	s.Touch.HelperRemote = "/data/local/tmp/helper"
	s.Game.TemplatesDir = filepath.Join(dir, "templates")
	s.Emulator.Instance = "Nougat64_1"

	bus := events.NewEventBus(16)
	t.Cleanup(bus.Stop)
	return NewServices(s, filepath.Join(dir, "Settings.ini"), bus, nil, nil)
}

func TestServicesConfigMapping(t *testing.T) {
	services := newTestServices(t)
	settings := services.Settings

	dc := services.DeviceConfig()
	if dc.ADBPath != settings.ADB.Path || dc.Port != 5565 || dc.Host != "127.0.0.1" {
		t.Errorf("device config = %+v", dc)
	}
	if dc.Touch.HelperRemote != "/data/local/tmp/helper" || dc.Touch.RemoteDir != "/data/local/tmp" {
		t.Errorf("touch config = %+v", dc.Touch)
	}
	if dc.Package != settings.Game.Package || !dc.WatchTemplates {
		t.Errorf("device config = %+v", dc)
	}

	ec := services.EmulatorConfig()
	if ec.Instance != "Nougat64_1" || ec.Resolution.Width != 860 || ec.Resolution.DPI != 160 || ec.Port != 5565 {
		t.Errorf("emulator config = %+v", ec)
	}
}

func TestServicesBeforeConnect(t *testing.T) {
	services := newTestServices(t)

	if services.Connected() {
		t.Error("Connected() before Connect")
	}
	if _, err := services.Chores(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Chores() error = %v", err)
	}
	if _, err := services.Session(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Session() error = %v", err)
	}
	services.Close()
}

func TestServicesSaveSettings(t *testing.T) {
	services := newTestServices(t)
	services.Settings.UI.MoveDown = -30

	if err := services.SaveSettings(); err != nil {
		t.Fatal(err)
	}
	loaded, err := config.Load(services.SettingsPath)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.UI.MoveDown != -30 || loaded.ADB.Port != 5565 {
		t.Errorf("loaded = %+v %+v", loaded.UI, loaded.ADB)
	}
}
