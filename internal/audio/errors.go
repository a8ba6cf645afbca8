package audio

import (
	"errors"
	"fmt"
)

// ErrContextClosed is returned by Unlock after the playback context was closed.
var ErrContextClosed = errors.New("playback context is closed")

// ResourceFetchError reports that the raw bytes of an audio resource could
// not be retrieved (network failure, HTTP error status, missing file).
type ResourceFetchError struct {
	Path       string
	StatusCode int // HTTP status when the server answered, 0 otherwise
	Err        error
}

func (e *ResourceFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch audio resource %q: status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("fetch audio resource %q: %v", e.Path, e.Err)
}

func (e *ResourceFetchError) Unwrap() error {
	return e.Err
}

// DecodeError reports that fetched bytes are not playable audio.
type DecodeError struct {
	Path   string
	Format string // detected format, empty when detection failed
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("decode audio resource %q as %s: %v", e.Path, e.Format, e.Err)
	}
	return fmt.Sprintf("decode audio resource %q: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// UnlockError reports a failed unlock. Stage names the step that failed:
// "create", "resume" or "load".
type UnlockError struct {
	Stage string
	Err   error
}

func (e *UnlockError) Error() string {
	return fmt.Sprintf("unlock audio (%s): %v", e.Stage, e.Err)
}

func (e *UnlockError) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err is, or wraps, a ResourceFetchError.
func IsFetchError(err error) bool {
	var target *ResourceFetchError
	return errors.As(err, &target)
}

// IsDecodeError reports whether err is, or wraps, a DecodeError.
func IsDecodeError(err error) bool {
	var target *DecodeError
	return errors.As(err, &target)
}
