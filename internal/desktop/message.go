// Package desktop receives agent desktop lifecycle events over a websocket
// or as JSON lines and exposes them as a trigger.EventSource.
package desktop

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"wrapbeep.click/internal/trigger"
)

var (
	ErrEmptyMessage = errors.New("empty message")
	ErrMissingEvent = errors.New("message has no event name")
)

// Message is the wire form of a desktop event. "name" is accepted in place
// of "event".
type Message struct {
	Event string          `json:"event"`
	Name  string          `json:"name,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SubscribeRequest is sent after connecting when the source is configured
// with a handshake.
type SubscribeRequest struct {
	Type   string   `json:"type"`
	Events []string `json:"events"`
}

// ParseMessage decodes and validates one message.
func ParseMessage(data []byte) (trigger.Event, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return trigger.Event{}, ErrEmptyMessage
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Debug("failed to parse desktop message", "error", err, "size_bytes", len(data))
		return trigger.Event{}, fmt.Errorf("invalid message JSON: %w", err)
	}

	name := strings.TrimSpace(msg.Event)
	if name == "" {
		name = strings.TrimSpace(msg.Name)
	}
	if name == "" {
		return trigger.Event{}, ErrMissingEvent
	}

	return trigger.Event{
		Name:       name,
		Data:       msg.Data,
		ReceivedAt: time.Now(),
	}, nil
}
