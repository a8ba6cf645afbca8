//go:build cgo || darwin || windows

package audio

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const otoAvailable = true

var (
	// oto allows a single context per process
	otoOnce    sync.Once
	otoShared  *oto.Context
	otoOutput  *sharedOutput
	otoInitErr error
	otoFormat  DeviceConfig
)

// otoDevice is a Device on top of the process-wide oto context. Unlike
// miniaudio, oto can be suspended, so this device exercises the full
// running/suspended cycle.
type otoDevice struct {
	outputLifecycle

	ctx    *oto.Context
	cfg    DeviceConfig
	logger *slog.Logger

	stop   chan struct{}
	voices sync.WaitGroup

	// PCM converted to the context format, keyed by source clip
	rendered map[*AudioData][]byte
}

// NewOtoDevice returns a device on the shared oto context, creating the
// context on first use. The first call fixes the output format.
func NewOtoDevice(cfg DeviceConfig, logger *slog.Logger) (Device, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SampleRate <= 0 || cfg.Channels <= 0 || cfg.Channels > 2 {
		return nil, fmt.Errorf("invalid oto output format: %d Hz, %d channels", cfg.SampleRate, cfg.Channels)
	}

	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: cfg.Channels,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			otoInitErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-ready
		otoShared = ctx
		otoOutput = newSharedOutput(ctx.Suspend, ctx.Resume)
		otoFormat = cfg
		logger.Debug("oto audio context initialized", "sample_rate", cfg.SampleRate, "channels", cfg.Channels)
	})
	if otoInitErr != nil {
		return nil, otoInitErr
	}

	if otoFormat.SampleRate != cfg.SampleRate || otoFormat.Channels != cfg.Channels {
		logger.Warn("oto context already running with a different format, reusing it",
			"sample_rate", otoFormat.SampleRate,
			"channels", otoFormat.Channels)
	}
	deviceCfg := otoFormat
	deviceCfg.Volume = cfg.Volume

	return &otoDevice{
		outputLifecycle: outputLifecycle{output: otoOutput},
		ctx:             otoShared,
		cfg:             deviceCfg,
		logger:          logger,
		stop:            make(chan struct{}),
		rendered:        make(map[*AudioData][]byte),
	}, nil
}

func (d *otoDevice) Start(buffer *AudioData) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrBackendClosed
	}
	pcm, ok := d.rendered[buffer]
	if !ok {
		pcm = renderS16(buffer, d.cfg.SampleRate, d.cfg.Channels, d.cfg.Volume)
		d.rendered[buffer] = pcm
	}
	d.voices.Add(1)
	d.mu.Unlock()

	player := d.ctx.NewPlayer(bytes.NewReader(pcm))
	player.Play()

	go func() {
		defer d.voices.Done()
		defer player.Close()

		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-d.stop:
				player.Pause()
				return
			case <-ticker.C:
				if !player.IsPlaying() {
					return
				}
			}
		}
	}()
	return nil
}

// Close stops this device's voices. The process-wide oto context stays alive
// for later devices.
func (d *otoDevice) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.stop)
	d.rendered = nil
	d.mu.Unlock()

	d.voices.Wait()
	return nil
}
