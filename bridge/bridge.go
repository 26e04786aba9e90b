package bridge

import "sync"

// Category identifies one of the four fixed signal classes published by the
// realtime core.
type Category string

const (
	CategoryError   Category = "socket-error"
	CategoryWarning Category = "socket-warning"
	CategoryInfo    Category = "socket-info"
	CategoryBlocked Category = "socket-blocked"
)

// Signal is a single published condition. Type narrows the category
// (e.g. "room-timeout-warning" within socket-warning); Data carries the raw
// server payload fields, if any.
type Signal struct {
	Category Category
	Type     string
	Message  string
	Data     map[string]any
}

// Handler receives published signals.
type Handler func(Signal)

// Bridge fans signals out to subscribers per category.
type Bridge struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Category]map[int]Handler
}

// New creates an empty bridge.
func New() *Bridge {
	return &Bridge{
		subs: make(map[Category]map[int]Handler),
	}
}

// Subscribe registers a handler for one category and returns a function that
// removes it again. Unsubscribing twice is harmless.
func (b *Bridge) Subscribe(category Category, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[category] == nil {
		b.subs[category] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.subs[category][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[category], id)
	}
}

// Publish delivers the signal to every subscriber of its category. With no
// subscribers it does nothing.
func (b *Bridge) Publish(signal Signal) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[signal.Category]))
	for _, h := range b.subs[signal.Category] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(signal)
	}
}

// Warning builds a socket-warning signal.
func Warning(signalType, message string, data map[string]any) Signal {
	return Signal{Category: CategoryWarning, Type: signalType, Message: message, Data: data}
}

// Error builds a socket-error signal.
func Error(signalType, message string, data map[string]any) Signal {
	return Signal{Category: CategoryError, Type: signalType, Message: message, Data: data}
}

// Info builds a socket-info signal.
func Info(signalType, message string, data map[string]any) Signal {
	return Signal{Category: CategoryInfo, Type: signalType, Message: message, Data: data}
}

// Blocked builds a socket-blocked signal.
func Blocked(signalType, message string, data map[string]any) Signal {
	return Signal{Category: CategoryBlocked, Type: signalType, Message: message, Data: data}
}
