package audio

import (
	"context"
	"log/slog"
	"sync"
)

// SilentDevice accepts every voice and discards it. It backs the "none"
// backend on headless hosts and keeps a count of started voices.
type SilentDevice struct {
	logger *slog.Logger

	mu        sync.Mutex
	suspended bool
	closed    bool
	started   int
}

// NewSilentDevice creates a running silent device.
func NewSilentDevice(logger *slog.Logger) *SilentDevice {
	if logger == nil {
		logger = slog.Default()
	}
	return &SilentDevice{logger: logger}
}

func (d *SilentDevice) State() ContextState {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case d.closed:
		return StateClosed
	case d.suspended:
		return StateSuspended
	default:
		return StateRunning
	}
}

func (d *SilentDevice) Suspend() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrBackendClosed
	}
	d.suspended = true
	return nil
}

func (d *SilentDevice) Resume(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrBackendClosed
	}
	d.suspended = false
	return nil
}

func (d *SilentDevice) Start(buffer *AudioData) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrBackendClosed
	}
	d.started++
	d.logger.Debug("silent playback", "duration_ms", buffer.Duration().Milliseconds(), "voice", d.started)
	return nil
}

// Started returns the number of voices started so far.
func (d *SilentDevice) Started() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

func (d *SilentDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}
