package audio

import (
	"errors"
	"io"
	"time"
)

// Common decoder errors
var (
	ErrInvalidData       = errors.New("invalid audio data")
	ErrReadFailure       = errors.New("failed to read audio data")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// SampleFormat describes how one PCM sample is laid out in AudioData.Samples.
// All multi-byte formats are signed little-endian.
type SampleFormat int

const (
	FormatUnknown SampleFormat = iota
	FormatU8
	FormatS16
	FormatS24
	FormatS32
)

func (f SampleFormat) String() string {
	switch f {
	case FormatU8:
		return "u8"
	case FormatS16:
		return "s16"
	case FormatS24:
		return "s24"
	case FormatS32:
		return "s32"
	default:
		return "unknown"
	}
}

// BytesPerSample returns the width of a single sample, 0 for FormatUnknown.
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case FormatU8:
		return 1
	case FormatS16:
		return 2
	case FormatS24:
		return 3
	case FormatS32:
		return 4
	default:
		return 0
	}
}

// formatForBitDepth maps a PCM bit depth to a SampleFormat.
func formatForBitDepth(bits int) (SampleFormat, error) {
	switch bits {
	case 8:
		return FormatU8, nil
	case 16:
		return FormatS16, nil
	case 24:
		return FormatS24, nil
	case 32:
		return FormatS32, nil
	default:
		return FormatUnknown, ErrUnsupportedFormat
	}
}

// AudioData is a decoded, ready-to-play clip. Once handed out by a
// ResourceCache it is shared by reference and must be treated as read-only.
type AudioData struct {
	Samples    []byte // interleaved PCM
	Channels   uint32
	SampleRate uint32
	Format     SampleFormat
}

// FrameCount returns the number of sample frames (one sample per channel).
func (a *AudioData) FrameCount() int {
	frameSize := a.frameSize()
	if frameSize == 0 {
		return 0
	}
	return len(a.Samples) / frameSize
}

// Duration returns the playing time of the clip.
func (a *AudioData) Duration() time.Duration {
	if a.SampleRate == 0 {
		return 0
	}
	return time.Duration(a.FrameCount()) * time.Second / time.Duration(a.SampleRate)
}

func (a *AudioData) frameSize() int {
	return int(a.Channels) * a.Format.BytesPerSample()
}

// Decoder interface for audio format decoding
type Decoder interface {
	// Decode reads audio data from reader and returns decoded PCM data
	Decode(reader io.Reader) (*AudioData, error)

	// CanDecode checks if this decoder can handle the given filename
	CanDecode(filename string) bool

	// FormatName returns the name of the format this decoder handles
	FormatName() string
}
