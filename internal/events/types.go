package events

import "time"

// EventType represents different types of events in the system
type EventType string

const (
	// EventTypeAny subscribes a handler to every event
	EventTypeAny EventType = "*"

	// Device session events
	EventTypeSessionConnected EventType = "session.connected"
	EventTypeGestureExecuted  EventType = "gesture.executed"
	EventTypeGestureFailed    EventType = "gesture.failed"

	// Template lookups
	EventTypeTemplateFound  EventType = "template.found"
	EventTypeTemplateMissed EventType = "template.missed"

	// Chore lifecycle
	EventTypeChoreStarted   EventType = "chore.started"
	EventTypeChoreCompleted EventType = "chore.completed"
	EventTypeChoreFailed    EventType = "chore.failed"
	EventTypeChoreRejected  EventType = "chore.rejected"

	// Emulator lifecycle
	EventTypeEmulatorStarted EventType = "emulator.started"
	EventTypeEmulatorStopped EventType = "emulator.stopped"

	// Error events
	EventTypeError EventType = "error"
)

// Event represents a system event with metadata
type Event struct {
	Type      EventType              // Type of event
	Source    string                 // Component that emitted event (e.g., "actions", "runner")
	Timestamp time.Time              // When the event occurred
	Data      map[string]interface{} // Event-specific data
}

// EventHandler is a function that processes an event
type EventHandler func(Event)

// SubscriptionID uniquely identifies a subscription
type SubscriptionID int64

// EventBus defines the interface for event pub/sub
type EventBus interface {
	Subscribe(eventType EventType, handler EventHandler) SubscriptionID
	Unsubscribe(id SubscriptionID)
	Publish(event Event)
	PublishAsync(event Event)
	Stop()
}

// Publisher is the send-only side of the bus handed to components that
// only emit events
type Publisher interface {
	Publish(event Event)
}

// Publish sends event to p if p is non-nil
func Publish(p Publisher, event Event) {
	if p != nil {
		p.Publish(event)
	}
}

// NewTemplateEvent reports the outcome of one template lookup
func NewTemplateEvent(template string, found bool, confidence float64, attempt int) Event {
	eventType := EventTypeTemplateMissed
	if found {
		eventType = EventTypeTemplateFound
	}
	return Event{
		Type:      eventType,
		Source:    "actions",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"template":   template,
			"confidence": confidence,
			"attempt":    attempt,
		},
	}
}

// NewGestureEvent reports a delivered (or failed) gesture
func NewGestureEvent(gesture string, err error) Event {
	e := Event{
		Type:      EventTypeGestureExecuted,
		Source:    "device",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"gesture": gesture,
		},
	}
	if err != nil {
		e.Type = EventTypeGestureFailed
		e.Data["error"] = err.Error()
	}
	return e
}

// NewChoreStartedEvent creates a chore started event
func NewChoreStartedEvent(runID, chore string) Event {
	return Event{
		Type:      EventTypeChoreStarted,
		Source:    "runner",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"run_id": runID,
			"chore":  chore,
		},
	}
}

// NewChoreFinishedEvent creates a completed or failed event depending on err
func NewChoreFinishedEvent(runID, chore string, duration time.Duration, err error) Event {
	e := Event{
		Type:      EventTypeChoreCompleted,
		Source:    "runner",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"run_id":      runID,
			"chore":       chore,
			"duration_ms": duration.Milliseconds(),
		},
	}
	if err != nil {
		e.Type = EventTypeChoreFailed
		e.Data["error"] = err.Error()
	}
	return e
}

// NewChoreRejectedEvent is emitted when a chore is refused because another is running
func NewChoreRejectedEvent(chore, running string) Event {
	return Event{
		Type:      EventTypeChoreRejected,
		Source:    "runner",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"chore":   chore,
			"running": running,
		},
	}
}

// NewEmulatorEvent creates an emulator lifecycle event
func NewEmulatorEvent(eventType EventType, instance string) Event {
	return Event{
		Type:      eventType,
		Source:    "emulator",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"instance": instance,
		},
	}
}
