package tracking

import "time"

// Kinds of playback records.
const (
	KindToggle  = "toggle"
	KindUnlock  = "unlock"
	KindTrigger = "trigger"
)

// Outcomes recorded with each kind.
const (
	OutcomeOn      = "on"
	OutcomeOff     = "off"
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomePlayed  = "played"
	OutcomeSkipped = "skipped"
)

// Record describes one toggle, unlock attempt or trigger handled by a widget
// instance.
type Record struct {
	Timestamp  time.Time
	InstanceID string
	Kind       string
	EventName  string
	Outcome    string
	Detail     string
}

// PlaybackHook is called for every record a Recorder receives.
type PlaybackHook func(rec Record)

// Recorder fans records out to its hooks.
type Recorder struct {
	hooks []PlaybackHook
}

// RecorderOption is a functional option for configuring Recorder
type RecorderOption func(*Recorder)

// NewRecorder creates a new Recorder with optional hooks
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{
		hooks: make([]PlaybackHook, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// WithHook adds a hook to be called for every record
func WithHook(hook PlaybackHook) RecorderOption {
	return func(r *Recorder) {
		if hook != nil {
			r.hooks = append(r.hooks, hook)
		}
	}
}

// Record stamps rec with the current time when unset and passes it to every
// hook. A nil Recorder drops the record.
func (r *Recorder) Record(rec Record) {
	if r == nil {
		return
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	for _, hook := range r.hooks {
		hook(rec)
	}
}
