// Package trigger connects named external events to audio playback.
package trigger

import (
	"encoding/json"
	"time"
)

// Event is one occurrence of a named external lifecycle event.
type Event struct {
	Name       string          `json:"event"`
	Data       json.RawMessage `json:"data,omitempty"`
	ReceivedAt time.Time       `json:"-"`
}

// Handler is called once per event occurrence.
type Handler func(Event)

// EventSource is the external collaborator that emits named events. Handlers
// may be invoked from any goroutine.
type EventSource interface {
	AddEventListener(name string, handler Handler)
	// RemoveAllEventListeners drops every handler registered on the source.
	RemoveAllEventListeners() error
}
