package gui

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"jordanella.com/clan-bot-go/internal/database"
	"jordanella.com/clan-bot-go/internal/logging"
)

const historyLimit = 50

func formatRun(run *database.ChoreRun) string {
	line := fmt.Sprintf("%s  %-20s %-9s", run.StartedAt.Local().Format("01-02 15:04:05"), run.Chore, run.Status)
	if run.FinishedAt != nil {
		line += " " + run.Duration.Round(time.Millisecond).String()
	}
	if run.Error != "" {
		line += "  " + run.Error
	}
	return line
}

func formatStat(stat *database.TemplateStat) string {
	return fmt.Sprintf("%-32s %4d/%-4d %5.1f%%  best %.2f",
		stat.Template, stat.Hits, stat.Hits+stat.Misses, stat.HitRate()*100, stat.BestConfidence)
}

func formatError(entry *database.ErrorEntry) string {
	return fmt.Sprintf("%s  [%s] %s", entry.OccurredAt.Local().Format("01-02 15:04:05"), entry.Source, entry.Message)
}

// HistoryTab shows past chore runs, template statistics and errors
type HistoryTab struct {
	controller *Controller
	logger     *logging.Logger

	runs   []string
	stats  []string
	errors []string

	runList   *widget.List
	statList  *widget.List
	errorList *widget.List
}

// NewHistoryTab creates the history tab
func NewHistoryTab(ctrl *Controller) *HistoryTab {
	return &HistoryTab{
		controller: ctrl,
		logger:     logging.NewLogger("History"),
	}
}

func lineList(lines *[]string) *widget.List {
	return widget.NewList(
		func() int { return len(*lines) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText((*lines)[id])
		},
	)
}

// Build constructs the history view
func (h *HistoryTab) Build() fyne.CanvasObject {
	tr := h.controller.tr
	if h.controller.services.DB == nil {
		return container.NewCenter(widget.NewLabel(tr.T("gui.labels.history_unavailable")))
	}

	h.runList = lineList(&h.runs)
	h.statList = lineList(&h.stats)
	h.errorList = lineList(&h.errors)

	section := func(title string, list *widget.List) fyne.CanvasObject {
		return container.NewBorder(
			widget.NewLabelWithStyle(title, fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			nil, nil, nil, list,
		)
	}

	return container.NewGridWithRows(3,
		section(tr.T("gui.labels.recent_runs"), h.runList),
		section(tr.T("gui.labels.template_stats"), h.statList),
		section(tr.T("gui.labels.recent_errors"), h.errorList),
	)
}

// Refresh reloads the lists from the database
func (h *HistoryTab) Refresh() {
	db := h.controller.services.DB
	if db == nil || h.runList == nil {
		return
	}

	runs, err := db.RecentChoreRuns(historyLimit)
	if err != nil {
		h.logger.Error("Failed to load chore runs", err)
	}
	h.runs = h.runs[:0]
	for _, run := range runs {
		h.runs = append(h.runs, formatRun(run))
	}

	stats, err := db.TemplateStats()
	if err != nil {
		h.logger.Error("Failed to load template stats", err)
	}
	h.stats = h.stats[:0]
	for _, stat := range stats {
		h.stats = append(h.stats, formatStat(stat))
	}

	entries, err := db.RecentErrors(historyLimit)
	if err != nil {
		h.logger.Error("Failed to load errors", err)
	}
	h.errors = h.errors[:0]
	for _, entry := range entries {
		h.errors = append(h.errors, formatError(entry))
	}

	h.runList.Refresh()
	h.statList.Refresh()
	h.errorList.Refresh()
}
