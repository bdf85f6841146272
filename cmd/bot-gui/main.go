package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"fyne.io/fyne/v2/app"
	"jordanella.com/clan-bot-go/internal/config"
	"jordanella.com/clan-bot-go/internal/database"
	"jordanella.com/clan-bot-go/internal/events"
	"jordanella.com/clan-bot-go/internal/gui"
	"jordanella.com/clan-bot-go/internal/i18n"
	"jordanella.com/clan-bot-go/internal/logging"
)

func main() {
	settingsPath := flag.String("settings", "Settings.ini", "path to Settings.ini")
	localesDir := flag.String("locales", "locales", "directory with translation overrides")
	flag.Parse()

	settings, err := config.Load(*settingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using defaults\n", err)
		settings = config.Default()
	}

	logCloser, err := logging.Setup(logging.Options{
		Level:      settings.Logging.Level,
		Dir:        settings.Logging.Dir,
		Console:    settings.Logging.Console,
		MaxSizeMB:  settings.Logging.MaxSizeMB,
		MaxBackups: settings.Logging.MaxBackups,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	logger := logging.NewLogger("Main")

	// the bus stops before the database closes so queued events still land
	db := openHistory(settings.Database.Path, settings.Database.KeepDays, logger)
	if db != nil {
		defer db.Close()
	}

	bus := events.NewEventBus(256)
	bus.SetLogger(logging.Zerolog("EventBus"))
	defer bus.Stop()

	if settings.Logging.Dir != "" {
		eventLogger, err := logging.NewEventLogger(bus, settings.Logging.Dir)
		if err != nil {
			logger.Warn(fmt.Sprintf("Event log disabled: %v", err))
		} else {
			defer eventLogger.Close()
		}
	}

	if db != nil {
		database.NewRecorder(db, bus)
	}

	tr, err := i18n.New(settings.UI.Language)
	if err != nil {
		logger.Fatal("Failed to load translations", err)
	}
	if err := tr.LoadDir(*localesDir); err != nil {
		logger.Warn(fmt.Sprintf("Ignoring locales in %s: %v", *localesDir, err))
	}

	services := gui.NewServices(settings, *settingsPath, bus, db, tr)

	myApp := app.NewWithID("com.jordanella.clan-bot-go")
	myApp.Settings().SetTheme(&gui.BotTheme{})

	mainWindow := myApp.NewWindow("Clash of Clans Bot")
	mainWindow.Resize(gui.DefaultWindowSize)

	controller := gui.NewController(services, myApp, mainWindow)
	mainWindow.SetContent(controller.BuildUI())
	logging.AddSink(controller.LogSink())

	logger.Info(fmt.Sprintf("Started with language %s", tr.Language()))
	mainWindow.SetMaster()
	mainWindow.ShowAndRun()

	controller.Shutdown()
}

// openHistory opens the run history database and drops rows older than
// keepDays. Failures only disable history.
func openHistory(path string, keepDays int, logger *logging.Logger) *database.DB {
	if path == "" {
		return nil
	}
	db, err := database.Open(path)
	if err != nil {
		logger.Warn(fmt.Sprintf("History disabled: %v", err))
		return nil
	}
	if err := db.RunMigrations(); err != nil {
		logger.Error("History disabled", err)
		db.Close()
		return nil
	}
	if keepDays > 0 {
		removed, err := db.Prune(time.Now().AddDate(0, 0, -keepDays))
		if err != nil {
			logger.Warn(fmt.Sprintf("Could not prune history: %v", err))
		} else if removed > 0 {
			logger.Info(fmt.Sprintf("Pruned %d history rows older than %d days", removed, keepDays))
		}
	}
	return db
}
