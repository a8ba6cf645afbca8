package trigger

import (
	"log/slog"
	"sync"
	"time"
)

// Emitter is an in-process EventSource. Emit dispatches to the handlers
// registered for the event name, in registration order, on the caller's
// goroutine.
type Emitter struct {
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewEmitter creates an Emitter with no listeners.
func NewEmitter(logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{
		logger:   logger,
		handlers: make(map[string][]Handler),
	}
}

func (e *Emitter) AddEventListener(name string, handler Handler) {
	if handler == nil {
		e.logger.Warn("attempted to register nil event handler", "event", name)
		return
	}
	e.mu.Lock()
	e.handlers[name] = append(e.handlers[name], handler)
	e.mu.Unlock()
}

func (e *Emitter) RemoveAllEventListeners() error {
	e.mu.Lock()
	e.handlers = make(map[string][]Handler)
	e.mu.Unlock()
	return nil
}

// Listeners returns how many handlers are registered for name.
func (e *Emitter) Listeners(name string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers[name])
}

// Emit delivers ev to its listeners and returns how many were called. A zero
// ReceivedAt is set to the current time.
func (e *Emitter) Emit(ev Event) int {
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now()
	}

	e.mu.RLock()
	handlers := append([]Handler(nil), e.handlers[ev.Name]...)
	e.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
	if len(handlers) == 0 {
		e.logger.Debug("event has no listeners", "event", ev.Name)
	}
	return len(handlers)
}
