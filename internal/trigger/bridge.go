package trigger

import (
	"errors"
	"log/slog"
	"sync"
)

var (
	ErrNilSource       = errors.New("event source is nil")
	ErrAlreadyAttached = errors.New("bridge is already attached")
)

// Player starts playback of an already unlocked clip. It must not block.
type Player interface {
	PlayNow() bool
}

// Observer is told about every event the bridge handled and whether it
// resulted in playback.
type Observer func(ev Event, played bool)

// Bridge subscribes to one event name on an EventSource and plays on every
// occurrence. It never unlocks audio.
type Bridge struct {
	eventName string
	player    Player
	logger    *slog.Logger
	observer  Observer

	mu         sync.RWMutex
	source     EventSource
	generation uint64
}

// NewBridge creates a detached bridge for eventName.
func NewBridge(eventName string, player Player, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		eventName: eventName,
		player:    player,
		logger:    logger,
	}
}

// SetObserver installs fn to be called after each handled event. Call it
// before Attach.
func (b *Bridge) SetObserver(fn Observer) {
	b.mu.Lock()
	b.observer = fn
	b.mu.Unlock()
}

// EventName returns the event the bridge listens for.
func (b *Bridge) EventName() string {
	return b.eventName
}

// Attached reports whether the bridge currently holds a subscription.
func (b *Bridge) Attached() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.source != nil
}

// Attach registers a single handler for the bridge's event on src.
func (b *Bridge) Attach(src EventSource) error {
	if src == nil {
		return ErrNilSource
	}

	b.mu.Lock()
	if b.source != nil {
		b.mu.Unlock()
		return ErrAlreadyAttached
	}
	b.generation++
	gen := b.generation
	b.source = src
	b.mu.Unlock()

	src.AddEventListener(b.eventName, b.handler(gen))
	b.logger.Debug("trigger bridge attached", "event", b.eventName)
	return nil
}

// Detach removes the bridge's handlers from its source. Once it returns no
// handler registered by an earlier Attach reaches the player, even if the
// source keeps calling it. Detaching a detached bridge does nothing.
func (b *Bridge) Detach() error {
	b.mu.Lock()
	src := b.source
	b.source = nil
	b.generation++
	b.mu.Unlock()

	if src == nil {
		return nil
	}
	b.logger.Debug("trigger bridge detached", "event", b.eventName)
	return src.RemoveAllEventListeners()
}

func (b *Bridge) handler(gen uint64) Handler {
	return func(ev Event) {
		// held across PlayNow so Detach waits for in-progress handlers
		b.mu.RLock()
		defer b.mu.RUnlock()

		if b.generation != gen || b.source == nil {
			b.logger.Debug("trigger ignored after detach", "event", ev.Name)
			return
		}

		if len(ev.Data) > 0 {
			b.logger.Info("trigger received", "event", ev.Name, "payload", string(ev.Data))
		} else {
			b.logger.Info("trigger received", "event", ev.Name)
		}
		played := b.player.PlayNow()
		if !played {
			b.logger.Debug("trigger did not start playback", "event", ev.Name)
		}
		if b.observer != nil {
			b.observer(ev, played)
		}
	}
}
