package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"jordanella.com/clan-bot-go/internal/events"
)

// EventLogger journals bus events as JSON lines in
// <dir>/events_<timestamp>.log. Template lookups are only journaled when
// Verbose is set.
type EventLogger struct {
	Verbose bool

	bus   events.EventBus
	subID events.SubscriptionID

	mu     sync.Mutex
	file   *os.File
	zl     zerolog.Logger
	closed bool
}

// NewEventLogger creates the journal file and subscribes to every event
func NewEventLogger(bus events.EventBus, dir string) (*EventLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	name := fmt.Sprintf("events_%s.log", time.Now().Format("2006-01-02_15-04-05"))
	file, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	el := &EventLogger{
		bus:  bus,
		file: file,
		zl:   zerolog.New(file),
	}
	el.subID = bus.Subscribe(events.EventTypeAny, el.handle)
	return el, nil
}

// Path returns the journal file path
func (el *EventLogger) Path() string {
	return el.file.Name()
}

func (el *EventLogger) handle(e events.Event) {
	if !el.Verbose && (e.Type == events.EventTypeTemplateFound || e.Type == events.EventTypeTemplateMissed) {
		return
	}

	el.mu.Lock()
	defer el.mu.Unlock()
	if el.closed {
		return
	}
	el.zl.Log().
		Time("time", e.Timestamp).
		Str("type", string(e.Type)).
		Str("source", e.Source).
		Fields(e.Data).
		Send()
}

// Close unsubscribes and closes the file. Events still in flight are
// discarded.
func (el *EventLogger) Close() error {
	el.bus.Unsubscribe(el.subID)

	el.mu.Lock()
	defer el.mu.Unlock()
	if el.closed {
		return nil
	}
	el.closed = true
	return el.file.Close()
}
