package audio

import (
	"context"
	"errors"
)

// Common errors for Device implementations
var (
	ErrBackendNotAvailable = errors.New("audio backend not available")
	ErrBackendClosed       = errors.New("audio backend is closed")
	ErrNotSupported        = errors.New("operation not supported by this device")
)

// ContextState is the lifecycle state of a playback context.
type ContextState int

const (
	StateUninitialized ContextState = iota
	StateSuspended
	StateRunning
	StateClosed
)

func (s ContextState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateSuspended:
		return "suspended"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Device is a platform audio context. Implementations handle the actual
// output mechanism (malgo, oto, silence).
type Device interface {
	// State reports Suspended, Running or Closed. The platform may move a
	// device between Running and Suspended at any time.
	State() ContextState

	// Resume moves a suspended device back to Running.
	Resume(ctx context.Context) error

	// Start schedules buffer for immediate playback on a new, independent
	// voice and returns without waiting for it to finish. Voices started
	// back to back overlap.
	Start(buffer *AudioData) error

	// Close stops all voices and releases the device.
	Close() error
}

// DeviceConfig carries the settings a device is created with.
type DeviceConfig struct {
	Volume     float64 // 0.0 to 1.0
	SampleRate int     // output rate for devices with a fixed mix rate
	Channels   int
}

// DefaultDeviceConfig returns full volume, 44.1kHz stereo.
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		Volume:     1.0,
		SampleRate: 44100,
		Channels:   2,
	}
}

// DeviceFactory creates a device. It is only called from Unlock.
type DeviceFactory func(ctx context.Context) (Device, error)

// Suspender is implemented by devices that can be suspended on request.
type Suspender interface {
	Suspend() error
}
