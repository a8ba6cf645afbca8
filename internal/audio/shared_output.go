package audio

import (
	"context"
	"fmt"
	"sync"
)

// sharedOutput holds the suspended state of an output that several devices
// drive at once, such as the process-wide oto context. The state belongs to
// the output, so a device created later sees a suspension made by another.
type sharedOutput struct {
	mu        sync.Mutex
	suspended bool
	suspend   func() error
	resume    func() error
}

func newSharedOutput(suspend, resume func() error) *sharedOutput {
	return &sharedOutput{suspend: suspend, resume: resume}
}

func (o *sharedOutput) Suspended() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.suspended
}

func (o *sharedOutput) Suspend() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.suspend(); err != nil {
		return err
	}
	o.suspended = true
	return nil
}

// Resume is a no-op unless the output is suspended.
func (o *sharedOutput) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.suspended {
		return nil
	}
	if err := o.resume(); err != nil {
		return err
	}
	o.suspended = false
	return nil
}

// outputLifecycle is the closed and suspended bookkeeping of one device on a
// sharedOutput. Devices embed it and guard their own state with mu.
type outputLifecycle struct {
	mu     sync.Mutex
	closed bool
	output *sharedOutput
}

func (l *outputLifecycle) State() ContextState {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case l.closed:
		return StateClosed
	case l.output.Suspended():
		return StateSuspended
	default:
		return StateRunning
	}
}

// Suspend pauses all output, as a platform would when the host goes idle.
func (l *outputLifecycle) Suspend() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrBackendClosed
	}
	if err := l.output.Suspend(); err != nil {
		return fmt.Errorf("failed to suspend audio output: %w", err)
	}
	return nil
}

func (l *outputLifecycle) Resume(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrBackendClosed
	}
	if err := l.output.Resume(); err != nil {
		return fmt.Errorf("failed to resume audio output: %w", err)
	}
	return nil
}
