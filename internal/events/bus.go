package events

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

type subscription struct {
	id      SubscriptionID
	handler EventHandler
}

// DefaultEventBus queues events on a buffered channel. A single dispatcher
// goroutine fans each event out to its subscribers, every handler on its own
// goroutine, so handlers must not rely on delivery order.
type DefaultEventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]subscription
	nextSubID   SubscriptionID

	queue    chan Event
	stopCh   chan struct{}
	stopOnce sync.Once
	loop     sync.WaitGroup
	handlers sync.WaitGroup

	// senders hold sendMu shared; Stop takes it to set stopped
	sendMu  sync.RWMutex
	stopped bool

	log     atomic.Pointer[zerolog.Logger]
	dropped atomic.Int64
	panics  atomic.Int64
}

// NewEventBus starts a bus whose queue holds bufferSize events
func NewEventBus(bufferSize int) *DefaultEventBus {
	bus := &DefaultEventBus{
		subscribers: make(map[EventType][]subscription),
		nextSubID:   1,
		queue:       make(chan Event, bufferSize),
		stopCh:      make(chan struct{}),
	}
	stderr := zerolog.New(os.Stderr).With().Timestamp().Str("component", "EventBus").Logger()
	bus.log.Store(&stderr)

	bus.loop.Add(1)
	go bus.run()
	return bus
}

// SetLogger replaces the logger used for dropped events and handler panics
func (eb *DefaultEventBus) SetLogger(l zerolog.Logger) {
	eb.log.Store(&l)
}

// Subscribe registers handler for eventType, or for every event with
// EventTypeAny
func (eb *DefaultEventBus) Subscribe(eventType EventType, handler EventHandler) SubscriptionID {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	id := eb.nextSubID
	eb.nextSubID++
	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscription{id: id, handler: handler})
	return id
}

// Unsubscribe removes a subscription. Handlers already dispatched still run.
func (eb *DefaultEventBus) Unsubscribe(id SubscriptionID) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for eventType, subs := range eb.subscribers {
		for i, sub := range subs {
			if sub.id == id {
				eb.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish queues an event, blocking while the queue is full. Events
// published after Stop are dropped.
func (eb *DefaultEventBus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	eb.sendMu.RLock()
	defer eb.sendMu.RUnlock()
	if eb.stopped {
		eb.drop(event)
		return
	}
	eb.queue <- event
}

// PublishAsync publishes without blocking the caller
func (eb *DefaultEventBus) PublishAsync(event Event) {
	go eb.Publish(event)
}

// Stop drains queued events and waits for running handlers to return.
// It is safe to call more than once.
func (eb *DefaultEventBus) Stop() {
	eb.stopOnce.Do(func() {
		eb.sendMu.Lock()
		eb.stopped = true
		close(eb.stopCh)
		eb.sendMu.Unlock()
	})
	eb.loop.Wait()
	eb.handlers.Wait()
}

// SubscriberCount returns the subscribers registered for eventType
func (eb *DefaultEventBus) SubscriberCount(eventType EventType) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers[eventType])
}

// Dropped returns how many events were published after Stop
func (eb *DefaultEventBus) Dropped() int64 {
	return eb.dropped.Load()
}

// Panics returns how many handler calls panicked
func (eb *DefaultEventBus) Panics() int64 {
	return eb.panics.Load()
}

func (eb *DefaultEventBus) run() {
	defer eb.loop.Done()

	for {
		select {
		case event := <-eb.queue:
			eb.dispatch(event)
		case <-eb.stopCh:
			for {
				select {
				case event := <-eb.queue:
					eb.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

func (eb *DefaultEventBus) dispatch(event Event) {
	eb.mu.RLock()
	subs := append([]subscription(nil), eb.subscribers[event.Type]...)
	if event.Type != EventTypeAny {
		subs = append(subs, eb.subscribers[EventTypeAny]...)
	}
	eb.mu.RUnlock()

	for _, sub := range subs {
		eb.handlers.Add(1)
		go eb.call(sub.handler, event)
	}
}

func (eb *DefaultEventBus) call(handler EventHandler, event Event) {
	defer eb.handlers.Done()
	defer func() {
		if r := recover(); r != nil {
			eb.panics.Add(1)
			eb.log.Load().Error().
				Str("event_type", string(event.Type)).
				Interface("panic", r).
				Msg("Event handler panicked")
		}
	}()
	handler(event)
}

func (eb *DefaultEventBus) drop(event Event) {
	eb.dropped.Add(1)
	eb.log.Load().Warn().Str("event_type", string(event.Type)).Msg("Dropped event, bus stopped")
}
