package gui

import (
	"sync"

	"fyne.io/fyne/v2"
	"jordanella.com/clan-bot-go/internal/events"
)

// uiBridge subscribes to the bot event bus and runs handlers on the fyne
// main thread
type uiBridge struct {
	bus  events.EventBus
	mu   sync.Mutex
	subs []events.SubscriptionID
}

func newUIBridge(bus events.EventBus) *uiBridge {
	return &uiBridge{bus: bus}
}

// On registers handler for eventType
func (b *uiBridge) On(eventType events.EventType, handler func(events.Event)) {
	id := b.bus.Subscribe(eventType, func(e events.Event) {
		fyne.Do(func() { handler(e) })
	})
	b.mu.Lock()
	b.subs = append(b.subs, id)
	b.mu.Unlock()
}

// Close removes every subscription
func (b *uiBridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range b.subs {
		b.bus.Unsubscribe(id)
	}
	b.subs = nil
}
