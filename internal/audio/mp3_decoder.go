package audio

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/hajimehoshi/go-mp3"
)

// Mp3Decoder handles MP3 audio format decoding
type Mp3Decoder struct{}

// NewMp3Decoder creates a new MP3 decoder instance
func NewMp3Decoder() *Mp3Decoder {
	return &Mp3Decoder{}
}

// Decode reads MP3 audio data from reader and returns decoded PCM data.
// go-mp3 always produces 16-bit signed stereo.
func (d *Mp3Decoder) Decode(reader io.Reader) (*AudioData, error) {
	decoder, err := mp3.NewDecoder(reader)
	if err != nil {
		slog.Debug("failed to create MP3 decoder", "error", err)
		return nil, ErrInvalidData
	}

	sampleRate := decoder.SampleRate()
	if sampleRate <= 0 {
		return nil, ErrInvalidData
	}

	var samples []byte
	if length := decoder.Length(); length > 0 {
		samples = make([]byte, 0, int(length))
	}
	buf := make([]byte, 4096)

	for {
		n, err := decoder.Read(buf)
		samples = append(samples, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			slog.Debug("failed to read MP3 PCM data", "error", err, "bytes_read", len(samples))
			return nil, ErrReadFailure
		}
		if n == 0 {
			break
		}
	}

	if len(samples) == 0 {
		return nil, ErrInvalidData
	}

	audioData := &AudioData{
		Samples:    samples,
		Channels:   2,
		SampleRate: uint32(sampleRate),
		Format:     FormatS16,
	}

	slog.Debug("MP3 decode completed",
		"total_bytes", len(samples),
		"sample_rate", audioData.SampleRate,
		"duration_ms", audioData.Duration().Milliseconds())

	return audioData, nil
}

// CanDecode checks if this decoder can handle the given filename
func (d *Mp3Decoder) CanDecode(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".mp3") || strings.HasSuffix(lower, ".mpeg")
}

// FormatName returns the name of the format this decoder handles
func (d *Mp3Decoder) FormatName() string {
	return "MP3"
}
