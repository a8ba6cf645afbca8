//go:build cgo

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

const malgoAvailable = true

// malgoDevice is a Device backed by a miniaudio context. Every Start opens
// its own playback device, so voices are independent and may overlap.
type malgoDevice struct {
	ctx    *malgo.AllocatedContext
	volume float64
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	stop   chan struct{}
	voices sync.WaitGroup
}

// NewMalgoDevice initializes a miniaudio context.
func NewMalgoDevice(cfg DeviceConfig, logger *slog.Logger) (Device, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("malgo internal", "message", message)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	logger.Debug("malgo audio context initialized")
	return &malgoDevice{
		ctx:    ctx,
		volume: cfg.Volume,
		logger: logger,
		stop:   make(chan struct{}),
	}, nil
}

func (d *malgoDevice) State() ContextState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return StateClosed
	}
	return StateRunning
}

// Resume is a no-op: miniaudio contexts are never suspended.
func (d *malgoDevice) Resume(ctx context.Context) error {
	if d.State() == StateClosed {
		return ErrBackendClosed
	}
	return nil
}

func (d *malgoDevice) Start(buffer *AudioData) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrBackendClosed
	}
	d.voices.Add(1)
	d.mu.Unlock()

	format, err := malgoFormat(buffer.Format)
	if err != nil {
		d.voices.Done()
		return err
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = format
	deviceConfig.Playback.Channels = buffer.Channels
	deviceConfig.SampleRate = buffer.SampleRate
	deviceConfig.Alsa.NoMMap = 1

	frameSize := buffer.frameSize()
	offset := 0
	finished := make(chan struct{})
	var once sync.Once

	onSamples := func(pOutputSample, pInputSamples []byte, framecount uint32) {
		n := copy(pOutputSample, buffer.Samples[min(offset, len(buffer.Samples)):])
		// the rest of the output buffer must be silence
		clear(pOutputSample[n:])
		applyVolumeToSamples(pOutputSample[:n], buffer.Format, d.volume)

		offset += int(framecount) * frameSize
		if offset >= len(buffer.Samples) {
			once.Do(func() { close(finished) })
		}
	}

	device, err := malgo.InitDevice(d.ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		d.voices.Done()
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		d.voices.Done()
		return fmt.Errorf("failed to start playback: %w", err)
	}

	go func() {
		defer d.voices.Done()

		// the callback may stop being called once the device drains
		timer := time.NewTimer(buffer.Duration() + 500*time.Millisecond)
		defer timer.Stop()

		select {
		case <-finished:
		case <-timer.C:
		case <-d.stop:
		}
		_ = device.Stop()
		device.Uninit()
	}()

	return nil
}

func (d *malgoDevice) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.stop)
	d.mu.Unlock()

	d.voices.Wait()

	if err := d.ctx.Uninit(); err != nil {
		return fmt.Errorf("failed to uninitialize audio context: %w", err)
	}
	d.ctx.Free()
	return nil
}

func malgoFormat(format SampleFormat) (malgo.FormatType, error) {
	switch format {
	case FormatU8:
		return malgo.FormatU8, nil
	case FormatS16:
		return malgo.FormatS16, nil
	case FormatS24:
		return malgo.FormatS24, nil
	case FormatS32:
		return malgo.FormatS32, nil
	default:
		return malgo.FormatUnknown, ErrUnsupportedFormat
	}
}
