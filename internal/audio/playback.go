package audio

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// PlaybackContext owns the platform device for one component instance and
// plays the cached clip on demand. The device is only ever created inside
// Unlock, which callers must run in response to a user gesture.
type PlaybackContext struct {
	cache     *ResourceCache
	newDevice DeviceFactory
	logger    *slog.Logger
	gate      *Gate

	confirmOnUnlock bool

	mu     sync.RWMutex
	device Device
	closed bool

	unlocks singleflight.Group
}

// NewPlaybackContext creates an uninitialized context. Its gate starts closed.
func NewPlaybackContext(cache *ResourceCache, newDevice DeviceFactory, logger *slog.Logger) *PlaybackContext {
	if logger == nil {
		logger = slog.Default()
	}
	p := &PlaybackContext{
		cache:     cache,
		newDevice: newDevice,
		logger:    logger,
	}
	p.gate = NewGate(p, logger)
	return p
}

// SetConfirmOnUnlock makes every successful Unlock play the clip once, so the
// user hears what they just enabled.
func (p *PlaybackContext) SetConfirmOnUnlock(confirm bool) {
	p.mu.Lock()
	p.confirmOnUnlock = confirm
	p.mu.Unlock()
}

// Gate returns the gate guarding triggered playback.
func (p *PlaybackContext) Gate() *Gate {
	return p.gate
}

// Cache returns the resource cache backing this context.
func (p *PlaybackContext) Cache() *ResourceCache {
	return p.cache
}

// State reports the current lifecycle state.
func (p *PlaybackContext) State() ContextState {
	p.mu.RLock()
	closed, device := p.closed, p.device
	p.mu.RUnlock()

	switch {
	case closed:
		return StateClosed
	case device == nil:
		return StateUninitialized
	default:
		return device.State()
	}
}

// Unlock creates the device if needed, resumes it if suspended and loads the
// clip. Calls made while another Unlock is running wait for and share its
// result. Failures are returned as *UnlockError.
func (p *PlaybackContext) Unlock(ctx context.Context) error {
	_, err, _ := p.unlocks.Do("unlock", func() (any, error) {
		return nil, p.unlock(ctx)
	})
	return err
}

func (p *PlaybackContext) unlock(ctx context.Context) error {
	p.mu.RLock()
	closed, device, confirm := p.closed, p.device, p.confirmOnUnlock
	p.mu.RUnlock()

	if closed {
		return &UnlockError{Stage: "create", Err: ErrContextClosed}
	}

	// a device the platform closed underneath us is replaced
	if device != nil && device.State() == StateClosed {
		p.logger.Warn("audio device was closed by the platform, recreating")
		device = nil
	}

	if device == nil {
		created, err := p.newDevice(ctx)
		if err != nil {
			return &UnlockError{Stage: "create", Err: err}
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			_ = created.Close()
			return &UnlockError{Stage: "create", Err: ErrContextClosed}
		}
		p.device = created
		p.mu.Unlock()

		device = created
		p.logger.Debug("audio context created", "state", device.State().String())
	}

	if device.State() == StateSuspended {
		if err := device.Resume(ctx); err != nil {
			return &UnlockError{Stage: "resume", Err: err}
		}
		p.logger.Debug("audio context resumed")
	}

	buf, err := p.cache.EnsureLoaded(ctx)
	if err != nil {
		return &UnlockError{Stage: "load", Err: err}
	}

	if confirm {
		if err := device.Start(buf); err != nil {
			p.logger.Warn("confirmation playback failed", "error", err)
		}
	}
	return nil
}

// PlayNow starts the cached clip if the gate is open, the clip is loaded and
// a device exists; otherwise it does nothing and returns false. A suspended
// device is resumed without waiting. Calls in quick succession overlap.
func (p *PlaybackContext) PlayNow() bool {
	if !p.gate.IsOpen() {
		p.logger.Debug("playback skipped", "reason", "gate_closed")
		return false
	}

	p.mu.RLock()
	closed, device := p.closed, p.device
	p.mu.RUnlock()
	if closed || device == nil {
		p.logger.Debug("playback skipped", "reason", "no_context")
		return false
	}

	buf := p.cache.Cached()
	if buf == nil {
		p.logger.Debug("playback skipped", "reason", "no_buffer")
		return false
	}

	switch device.State() {
	case StateClosed:
		p.logger.Debug("playback skipped", "reason", "device_closed")
		return false
	case StateSuspended:
		go func() {
			if err := device.Resume(context.Background()); err != nil {
				p.logger.Warn("failed to resume suspended audio context", "error", err)
			}
		}()
	}

	if err := device.Start(buf); err != nil {
		p.logger.Error("failed to start playback", "error", err)
		return false
	}
	return true
}

// Close releases the device and drops the cached clip. It is safe to call
// more than once.
func (p *PlaybackContext) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	device := p.device
	p.device = nil
	p.mu.Unlock()

	p.cache.Discard()

	if device == nil {
		return nil
	}
	if err := device.Close(); err != nil {
		p.logger.Error("failed to close audio context", "error", err)
		return err
	}
	p.logger.Debug("audio context closed")
	return nil
}

// Suspend asks the device to suspend, as a host does when it goes idle.
// Devices that cannot be suspended return ErrNotSupported.
func (p *PlaybackContext) Suspend() error {
	p.mu.RLock()
	closed, device := p.closed, p.device
	p.mu.RUnlock()

	if closed {
		return ErrContextClosed
	}
	if device == nil {
		return ErrBackendNotAvailable
	}
	s, ok := device.(Suspender)
	if !ok {
		return ErrNotSupported
	}
	return s.Suspend()
}
