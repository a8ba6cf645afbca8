package tracking

import (
	"log/slog"
)

// SlogHook logs every record at debug level
type SlogHook struct {
	logger *slog.Logger
}

// NewSlogHook creates a new SlogHook with the given logger
// If logger is nil, uses the default logger
func NewSlogHook(logger *slog.Logger) *SlogHook {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogHook{
		logger: logger,
	}
}

// GetHook returns the PlaybackHook function for use with Recorder
func (s *SlogHook) GetHook() PlaybackHook {
	return func(rec Record) {
		s.logger.Debug("playback record",
			"instance_id", rec.InstanceID,
			"kind", rec.Kind,
			"event_name", rec.EventName,
			"outcome", rec.Outcome,
			"detail", rec.Detail,
		)
	}
}

// NopHook provides a no-operation hook for disabled modes
type NopHook struct{}

// NewNopHook creates a new NopHook that does nothing
func NewNopHook() *NopHook {
	return &NopHook{}
}

// GetHook returns the PlaybackHook function that does nothing
func (n *NopHook) GetHook() PlaybackHook {
	return func(rec Record) {}
}
