package gui

import (
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// LogLevel is the severity shown in the log tab
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LogEntry is one console line
type LogEntry struct {
	Level LogLevel
	Text  string
}

// levelOf reads the level marker of a console line such as
// "15:04:05 WRN message component=Bot"
func levelOf(line string) LogLevel {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return LogLevelInfo
	}
	switch fields[1] {
	case "DBG", "TRC":
		return LogLevelDebug
	case "WRN":
		return LogLevelWarn
	case "ERR", "FTL", "PNC":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// LogTab shows the log lines of every component
type LogTab struct {
	controller *Controller

	logs    []LogEntry
	logsMu  sync.RWMutex
	maxLogs int

	logList         *widget.List
	filterSelect    *widget.Select
	autoScrollCheck *widget.Check
}

// NewLogTab creates the log tab
func NewLogTab(ctrl *Controller) *LogTab {
	return &LogTab{
		controller: ctrl,
		logs:       make([]LogEntry, 0, 1000),
		maxLogs:    1000,
	}
}

// Build constructs the log viewer
func (l *LogTab) Build() fyne.CanvasObject {
	tr := l.controller.tr

	l.filterSelect = widget.NewSelect(
		[]string{"All", "DEBUG", "INFO", "WARN", "ERROR"},
		func(string) {
			if l.logList != nil {
				l.logList.Refresh()
			}
		},
	)
	l.filterSelect.PlaceHolder = "All"

	l.autoScrollCheck = widget.NewCheck("Auto-scroll", nil)
	l.autoScrollCheck.SetChecked(true)

	clearBtn := widget.NewButton(tr.T("gui.buttons.clear_log"), l.ClearLogs)

	l.logList = widget.NewList(
		l.filteredCount,
		func() fyne.CanvasObject {
			return widget.NewLabel("log line")
		},
		func(id widget.ListItemID, item fyne.CanvasObject) {
			entry, ok := l.filtered(id)
			if !ok {
				return
			}
			label := item.(*widget.Label)
			label.SetText(entry.Text)
			switch entry.Level {
			case LogLevelDebug:
				label.Importance = widget.LowImportance
			case LogLevelWarn:
				label.Importance = widget.WarningImportance
			case LogLevelError:
				label.Importance = widget.DangerImportance
			default:
				label.Importance = widget.MediumImportance
			}
			label.Refresh()
		},
	)

	controls := container.NewHBox(l.filterSelect, l.autoScrollCheck, clearBtn)
	return container.NewBorder(controls, nil, nil, nil, l.logList)
}

// AddLine appends a console line. Safe from any goroutine.
func (l *LogTab) AddLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	l.logsMu.Lock()
	l.logs = append(l.logs, LogEntry{Level: levelOf(line), Text: line})
	if len(l.logs) > l.maxLogs {
		l.logs = l.logs[len(l.logs)-l.maxLogs:]
	}
	l.logsMu.Unlock()

	if l.logList != nil {
		fyne.Do(func() {
			l.logList.Refresh()
			if l.autoScrollCheck != nil && l.autoScrollCheck.Checked {
				l.logList.ScrollToBottom()
			}
		})
	}
}

// ClearLogs removes all entries
func (l *LogTab) ClearLogs() {
	l.logsMu.Lock()
	l.logs = make([]LogEntry, 0, l.maxLogs)
	l.logsMu.Unlock()

	if l.logList != nil {
		l.logList.Refresh()
	}
}

func (l *LogTab) selectedLevel() string {
	if l.filterSelect == nil || l.filterSelect.Selected == "" {
		return "All"
	}
	return l.filterSelect.Selected
}

func (l *LogTab) filteredCount() int {
	l.logsMu.RLock()
	defer l.logsMu.RUnlock()

	selected := l.selectedLevel()
	if selected == "All" {
		return len(l.logs)
	}
	count := 0
	for _, entry := range l.logs {
		if entry.Level.String() == selected {
			count++
		}
	}
	return count
}

func (l *LogTab) filtered(index int) (LogEntry, bool) {
	l.logsMu.RLock()
	defer l.logsMu.RUnlock()

	selected := l.selectedLevel()
	current := 0
	for _, entry := range l.logs {
		if selected != "All" && entry.Level.String() != selected {
			continue
		}
		if current == index {
			return entry, true
		}
		current++
	}
	return LogEntry{}, false
}
