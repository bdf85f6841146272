package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/ini.v1"
)

// Settings mirrors Settings.ini
type Settings struct {
	ADB      ADBSettings
	Game     GameSettings
	Touch    TouchSettings
	Screen   ScreenSettings
	Emulator EmulatorSettings
	Logging  LoggingSettings
	Database DatabaseSettings
	UI       UISettings
}

type ADBSettings struct {
	Path string // empty means search with adb.FindADB
	Host string
	Port int
}

type GameSettings struct {
	Package      string
	TemplatesDir string
	ArmyFile     string
}

type TouchSettings struct {
	HelperLocal  string
	HelperRemote string
}

type ScreenSettings struct {
	Width  int
	Height int
	DPI    int
}

type EmulatorSettings struct {
	ConfPath    string
	PlayerPath  string
	Instance    string // empty means detect from the adb port
	StartupWait time.Duration
}

type LoggingSettings struct {
	Level      string
	Dir        string
	Console    bool
	MaxSizeMB  int
	MaxBackups int
}

type DatabaseSettings struct {
	Path string
	// KeepDays bounds the run history kept at startup; 0 keeps everything
	KeepDays int
}

type UISettings struct {
	Language string
	// CenterView offsets
	MoveRight int
	MoveDown  int
}

// Default returns the settings used when Settings.ini is absent
func Default() *Settings {
	return &Settings{
		ADB: ADBSettings{
			Host: "127.0.0.1",
			Port: 5556,
		},
		Game: GameSettings{
			Package:      "com.supercell.clashofclans",
			TemplatesDir: "templates",
			ArmyFile:     filepath.Join("config", "army.json"),
		},
		Touch: TouchSettings{
			HelperLocal:  filepath.Join("resources", "adb_scripts", "minitouch"),
			HelperRemote: "/data/local/tmp/minitouch",
		},
		Screen: ScreenSettings{
			Width:  860,
			Height: 732,
			DPI:    160,
		},
		Emulator: EmulatorSettings{
			ConfPath:    `C:\ProgramData\BlueStacks_nxt\bluestacks.conf`,
			PlayerPath:  `C:\Program Files\BlueStacks_nxt\HD-Player.exe`,
			StartupWait: 30 * time.Second,
		},
		Logging: LoggingSettings{
			Level:      "info",
			Dir:        "logs",
			Console:    true,
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
		Database: DatabaseSettings{
			Path:     filepath.Join("data", "bot.db"),
			KeepDays: 30,
		},
		UI: UISettings{
			Language:  "pt-BR",
			MoveRight: 100,
			MoveDown:  50,
		},
	}
}

// Load reads Settings.ini. A missing file yields Default().
func Load(path string) (*Settings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	d := Default()
	s := &Settings{}

	section := cfg.Section("ADB")
	s.ADB.Path = section.Key("path").MustString(d.ADB.Path)
	s.ADB.Host = section.Key("host").MustString(d.ADB.Host)
	s.ADB.Port = section.Key("port").MustInt(d.ADB.Port)

	section = cfg.Section("Game")
	s.Game.Package = section.Key("package").MustString(d.Game.Package)
	s.Game.TemplatesDir = section.Key("templates_dir").MustString(d.Game.TemplatesDir)
	s.Game.ArmyFile = section.Key("army_file").MustString(d.Game.ArmyFile)

	section = cfg.Section("Touch")
	s.Touch.HelperLocal = section.Key("helper_local").MustString(d.Touch.HelperLocal)
	s.Touch.HelperRemote = section.Key("helper_remote").MustString(d.Touch.HelperRemote)

	section = cfg.Section("Screen")
	s.Screen.Width = section.Key("width").MustInt(d.Screen.Width)
	s.Screen.Height = section.Key("height").MustInt(d.Screen.Height)
	s.Screen.DPI = section.Key("dpi").MustInt(d.Screen.DPI)

	section = cfg.Section("Emulator")
	s.Emulator.ConfPath = section.Key("conf_path").MustString(d.Emulator.ConfPath)
	s.Emulator.PlayerPath = section.Key("player_path").MustString(d.Emulator.PlayerPath)
	s.Emulator.Instance = section.Key("instance").MustString(d.Emulator.Instance)
	s.Emulator.StartupWait = section.Key("startup_wait").MustDuration(d.Emulator.StartupWait)

	section = cfg.Section("Logging")
	s.Logging.Level = section.Key("level").MustString(d.Logging.Level)
	s.Logging.Dir = section.Key("dir").MustString(d.Logging.Dir)
	s.Logging.Console = section.Key("console").MustBool(d.Logging.Console)
	s.Logging.MaxSizeMB = section.Key("max_size_mb").MustInt(d.Logging.MaxSizeMB)
	s.Logging.MaxBackups = section.Key("max_backups").MustInt(d.Logging.MaxBackups)

	section = cfg.Section("Database")
	s.Database.Path = section.Key("path").MustString(d.Database.Path)
	s.Database.KeepDays = section.Key("keep_days").MustInt(d.Database.KeepDays)

	section = cfg.Section("UI")
	s.UI.Language = section.Key("language").MustString(d.UI.Language)
	s.UI.MoveRight = section.Key("move_right").MustInt(d.UI.MoveRight)
	s.UI.MoveDown = section.Key("move_down").MustInt(d.UI.MoveDown)

	return s, nil
}

// Save writes settings to an INI file
func Save(s *Settings, path string) error {
	cfg := ini.Empty()

	section := cfg.Section("ADB")
	section.Key("path").SetValue(s.ADB.Path)
	section.Key("host").SetValue(s.ADB.Host)
	section.Key("port").SetValue(strconv.Itoa(s.ADB.Port))

	section = cfg.Section("Game")
	section.Key("package").SetValue(s.Game.Package)
	section.Key("templates_dir").SetValue(s.Game.TemplatesDir)
	section.Key("army_file").SetValue(s.Game.ArmyFile)

	section = cfg.Section("Touch")
	section.Key("helper_local").SetValue(s.Touch.HelperLocal)
	section.Key("helper_remote").SetValue(s.Touch.HelperRemote)

	section = cfg.Section("Screen")
	section.Key("width").SetValue(strconv.Itoa(s.Screen.Width))
	section.Key("height").SetValue(strconv.Itoa(s.Screen.Height))
	section.Key("dpi").SetValue(strconv.Itoa(s.Screen.DPI))

	section = cfg.Section("Emulator")
	section.Key("conf_path").SetValue(s.Emulator.ConfPath)
	section.Key("player_path").SetValue(s.Emulator.PlayerPath)
	section.Key("instance").SetValue(s.Emulator.Instance)
	section.Key("startup_wait").SetValue(s.Emulator.StartupWait.String())

	section = cfg.Section("Logging")
	section.Key("level").SetValue(s.Logging.Level)
	section.Key("dir").SetValue(s.Logging.Dir)
	section.Key("console").SetValue(strconv.FormatBool(s.Logging.Console))
	section.Key("max_size_mb").SetValue(strconv.Itoa(s.Logging.MaxSizeMB))
	section.Key("max_backups").SetValue(strconv.Itoa(s.Logging.MaxBackups))

	section = cfg.Section("Database")
	section.Key("path").SetValue(s.Database.Path)
	section.Key("keep_days").SetValue(strconv.Itoa(s.Database.KeepDays))

	section = cfg.Section("UI")
	section.Key("language").SetValue(s.UI.Language)
	section.Key("move_right").SetValue(strconv.Itoa(s.UI.MoveRight))
	section.Key("move_down").SetValue(strconv.Itoa(s.UI.MoveDown))

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	return cfg.SaveTo(path)
}
