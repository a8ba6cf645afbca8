// Package widget assembles the beep component: one playback context, the
// gate the user toggles and the bridge that plays on trigger events.
package widget

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"wrapbeep.click/internal/audio"
	"wrapbeep.click/internal/tracking"
	"wrapbeep.click/internal/trigger"
)

// DefaultEventName is the lifecycle event that triggers playback.
const DefaultEventName = "eAgentWrapup"

var ErrNoDeviceFactory = errors.New("widget: no device factory configured")

// Options configure a Widget. Only NewDevice is required; a missing or bad
// AudioPath surfaces as an unlock error when the user enables audio.
type Options struct {
	AudioPath       string
	EventName       string
	ConfirmOnUnlock bool

	Fetcher   audio.Fetcher // nil means audio.NewSchemeFetcher over the OS filesystem
	Registry  *audio.DecoderRegistry
	NewDevice audio.DeviceFactory
	Recorder  *tracking.Recorder
	Logger    *slog.Logger
}

// Widget is one instance of the beep component.
type Widget struct {
	id        string
	audioPath string
	logger    *slog.Logger
	recorder  *tracking.Recorder

	playback *audio.PlaybackContext
	bridge   *trigger.Bridge

	mu      sync.Mutex
	lastErr error
}

// New builds a widget. No device is opened and nothing is fetched until the
// first Toggle(true).
func New(opts Options) (*Widget, error) {
	if opts.NewDevice == nil {
		return nil, ErrNoDeviceFactory
	}
	if opts.EventName == "" {
		opts.EventName = DefaultEventName
	}
	if opts.Fetcher == nil {
		opts.Fetcher = audio.NewSchemeFetcher(nil)
	}

	id := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("instance_id", id)

	cache := audio.NewResourceCache(opts.AudioPath, opts.Fetcher, opts.Registry, logger)
	playback := audio.NewPlaybackContext(cache, opts.NewDevice, logger)
	playback.SetConfirmOnUnlock(opts.ConfirmOnUnlock)

	w := &Widget{
		id:        id,
		audioPath: opts.AudioPath,
		logger:    logger,
		recorder:  opts.Recorder,
		playback:  playback,
		bridge:    trigger.NewBridge(opts.EventName, playback, logger),
	}
	w.bridge.SetObserver(w.observeTrigger)
	return w, nil
}

// ID returns the instance id used in logs and tracking records.
func (w *Widget) ID() string {
	return w.id
}

// Playback exposes the underlying playback context.
func (w *Widget) Playback() *audio.PlaybackContext {
	return w.playback
}

// Connect reads the widget's properties and subscribes to src.
func (w *Widget) Connect(src trigger.EventSource) error {
	w.logger.Debug("property audio_path", "audio_path", w.audioPath)
	if w.audioPath == "" {
		w.logger.Warn("no audio path configured, enabling audio will fail")
	}
	return w.bridge.Attach(src)
}

// Toggle is the user gesture handler. Enabling unlocks audio; a failure is
// logged, recorded and kept for LastError, and the user may simply toggle
// again.
func (w *Widget) Toggle(ctx context.Context, enabled bool) {
	outcome := tracking.OutcomeOff
	if enabled {
		outcome = tracking.OutcomeOn
	}
	w.record(tracking.Record{Kind: tracking.KindToggle, Outcome: outcome})

	err := w.playback.Gate().Toggle(ctx, enabled)

	w.mu.Lock()
	w.lastErr = err
	w.mu.Unlock()

	if !enabled {
		return
	}
	if err != nil {
		w.logger.Error("failed to unlock audio", "error", err)
		w.record(tracking.Record{Kind: tracking.KindUnlock, Outcome: tracking.OutcomeFailed, Detail: err.Error()})
		return
	}
	w.logger.Info("audio unlocked and loaded")
	w.record(tracking.Record{Kind: tracking.KindUnlock, Outcome: tracking.OutcomeOK})
}

// Enabled reports the state the user last toggled to.
func (w *Widget) Enabled() bool {
	return w.playback.Gate().Requested()
}

// Armed reports whether triggers currently play.
func (w *Widget) Armed() bool {
	return w.playback.Gate().IsOpen()
}

// LastError returns the error of the most recent toggle, or nil.
func (w *Widget) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Suspend asks the audio device to suspend.
func (w *Widget) Suspend() error {
	return w.playback.Suspend()
}

// Disconnect unsubscribes from the event source and releases audio. Every
// step runs even when an earlier one fails.
func (w *Widget) Disconnect() error {
	var errs []error
	if err := w.bridge.Detach(); err != nil {
		w.logger.Warn("failed to remove event listeners", "error", err)
		errs = append(errs, err)
	}
	if err := w.playback.Close(); err != nil {
		w.logger.Warn("failed to close playback context", "error", err)
		errs = append(errs, err)
	}
	w.logger.Debug("widget disconnected")
	return errors.Join(errs...)
}

func (w *Widget) observeTrigger(ev trigger.Event, played bool) {
	outcome := tracking.OutcomeSkipped
	if played {
		outcome = tracking.OutcomePlayed
	}
	w.record(tracking.Record{Kind: tracking.KindTrigger, EventName: ev.Name, Outcome: outcome})
}

func (w *Widget) record(rec tracking.Record) {
	rec.InstanceID = w.id
	w.recorder.Record(rec)
}
