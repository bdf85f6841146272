package database

import (
	"fmt"
	"time"

	"jordanella.com/clan-bot-go/internal/events"
	"jordanella.com/clan-bot-go/internal/logging"
)

// Recorder persists chore, template and error events from the bus
type Recorder struct {
	db     *DB
	bus    events.EventBus
	logger *logging.Logger
	subs   []events.SubscriptionID
}

// NewRecorder subscribes to the bus. Call Close to unsubscribe.
func NewRecorder(db *DB, bus events.EventBus) *Recorder {
	r := &Recorder{
		db:     db,
		bus:    bus,
		logger: logging.NewLogger("Recorder"),
	}

	for _, t := range []events.EventType{
		events.EventTypeChoreStarted,
		events.EventTypeChoreCompleted,
		events.EventTypeChoreFailed,
		events.EventTypeTemplateFound,
		events.EventTypeTemplateMissed,
		events.EventTypeGestureFailed,
		events.EventTypeError,
	} {
		r.subs = append(r.subs, bus.Subscribe(t, r.handle))
	}
	return r
}

// Close unsubscribes from the bus
func (r *Recorder) Close() {
	for _, id := range r.subs {
		r.bus.Unsubscribe(id)
	}
	r.subs = nil
}

func (r *Recorder) handle(e events.Event) {
	if err := r.record(e); err != nil {
		r.logger.ErrorWithContext("Failed to persist event", err, map[string]interface{}{
			"event_type": string(e.Type),
		})
	}
}

func (r *Recorder) record(e events.Event) error {
	at := e.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	runID := stringField(e, "run_id")

	switch e.Type {
	case events.EventTypeChoreStarted:
		return r.db.StartChoreRun(runID, stringField(e, "chore"), at)

	case events.EventTypeChoreCompleted, events.EventTypeChoreFailed:
		errMsg := stringField(e, "error")
		if e.Type == events.EventTypeChoreFailed && errMsg == "" {
			errMsg = "failed"
		}
		duration := time.Duration(int64Field(e, "duration_ms")) * time.Millisecond
		if err := r.db.CompleteChoreRun(runID, stringField(e, "chore"), at, duration, errMsg); err != nil {
			return err
		}
		if e.Type == events.EventTypeChoreFailed {
			return r.db.LogError(runID, e.Source, fmt.Sprintf("%s: %s", stringField(e, "chore"), errMsg), at)
		}
		return nil

	case events.EventTypeTemplateFound, events.EventTypeTemplateMissed:
		confidence, _ := e.Data["confidence"].(float64)
		return r.db.RecordTemplateLookup(stringField(e, "template"), e.Type == events.EventTypeTemplateFound, confidence, at)

	case events.EventTypeGestureFailed:
		return r.db.LogError(runID, e.Source, fmt.Sprintf("gesture %s: %s", stringField(e, "gesture"), stringField(e, "error")), at)

	case events.EventTypeError:
		msg := stringField(e, "error")
		if msg == "" {
			msg = stringField(e, "message")
		}
		return r.db.LogError(runID, e.Source, msg, at)
	}
	return nil
}

func stringField(e events.Event, key string) string {
	if v, ok := e.Data[key].(string); ok {
		return v
	}
	return ""
}

func int64Field(e events.Event, key string) int64 {
	switch v := e.Data[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}
