package audio

import (
	"context"
	"log/slog"
	"sync"
)

// Unlocker performs the gesture-bound unlock step.
type Unlocker interface {
	Unlock(ctx context.Context) error
}

// Gate is the user-controlled latch deciding whether triggered playback may
// happen. It remembers the state the user asked for separately from whether
// the last unlock attempt for that request succeeded; only both together
// open it.
type Gate struct {
	unlocker Unlocker
	logger   *slog.Logger

	mu        sync.Mutex
	requested bool
	armed     bool
	seq       uint64
}

// NewGate creates a closed gate that unlocks through unlocker.
func NewGate(unlocker Unlocker, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{unlocker: unlocker, logger: logger}
}

// Toggle records the user's choice. Enabling runs Unlock and returns its
// error; the gate then keeps reporting the request but stays shut. Disabling
// never touches the device or the cached buffer.
func (g *Gate) Toggle(ctx context.Context, enabled bool) error {
	g.mu.Lock()
	g.requested = enabled
	g.seq++
	seq := g.seq
	if !enabled {
		g.armed = false
	}
	g.mu.Unlock()

	g.logger.Info("audio enabled switched", "enabled", enabled)
	if !enabled {
		return nil
	}

	err := g.unlocker.Unlock(ctx)

	g.mu.Lock()
	// a later toggle supersedes this result
	if g.seq == seq {
		g.armed = err == nil
	}
	g.mu.Unlock()

	return err
}

// Requested reports the state the user last asked for.
func (g *Gate) Requested() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requested
}

// IsOpen reports whether triggered playback is permitted.
func (g *Gate) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requested && g.armed
}
