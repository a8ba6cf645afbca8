package audio

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/youpy/go-wav"
)

// WavDecoder handles WAV audio format decoding
type WavDecoder struct{}

// NewWavDecoder creates a new WAV decoder instance
func NewWavDecoder() *WavDecoder {
	return &WavDecoder{}
}

// Decode reads WAV audio data from reader and returns decoded PCM data
func (d *WavDecoder) Decode(reader io.Reader) (out *AudioData, err error) {
	// go-wav panics on payloads cut off inside the header
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("WAV reader panicked", "panic", r)
			out, err = nil, fmt.Errorf("%w: %v", ErrInvalidData, r)
		}
	}()

	// go-wav reads through io.ReaderAt, so the payload is buffered first
	data, err := io.ReadAll(reader)
	if err != nil {
		slog.Error("failed to read WAV data", "error", err)
		return nil, ErrReadFailure
	}
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	wavReader := wav.NewReader(bytes.NewReader(data))
	format, err := wavReader.Format()
	if err != nil {
		slog.Debug("failed to read WAV format", "error", err)
		return nil, ErrInvalidData
	}
	if format.NumChannels == 0 || format.SampleRate == 0 {
		slog.Debug("invalid WAV format parameters",
			"channels", format.NumChannels,
			"sample_rate", format.SampleRate)
		return nil, ErrInvalidData
	}

	sampleFormat, err := formatForBitDepth(int(format.BitsPerSample))
	if err != nil {
		slog.Debug("unsupported WAV bit depth", "bits", format.BitsPerSample)
		return nil, ErrUnsupportedFormat
	}

	channels := int(format.NumChannels)
	width := sampleFormat.BytesPerSample()
	var pcm []byte
	frames := 0

	for {
		samples, err := wavReader.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Debug("failed to read WAV samples", "error", err)
			return nil, ErrReadFailure
		}
		if len(samples) == 0 {
			break
		}

		for _, sample := range samples {
			for ch := 0; ch < channels; ch++ {
				val := 0
				if ch < len(sample.Values) {
					val = sample.Values[ch]
				}
				pcm = appendSample(pcm, int32(val), width)
			}
		}
		frames += len(samples)
	}

	if frames == 0 {
		return nil, ErrInvalidData
	}

	audioData := &AudioData{
		Samples:    pcm,
		Channels:   uint32(channels),
		SampleRate: format.SampleRate,
		Format:     sampleFormat,
	}

	slog.Debug("WAV decode completed",
		"frames", frames,
		"channels", audioData.Channels,
		"sample_rate", audioData.SampleRate,
		"format", sampleFormat.String(),
		"duration_ms", audioData.Duration().Milliseconds())

	return audioData, nil
}

// CanDecode checks if this decoder can handle the given filename
func (d *WavDecoder) CanDecode(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".wav") || strings.HasSuffix(lower, ".wave")
}

// FormatName returns the name of the format this decoder handles
func (d *WavDecoder) FormatName() string {
	return "WAV"
}

// appendSample writes val as a little-endian signed integer of width bytes.
// 8-bit WAV is unsigned and go-wav hands it over unconverted.
func appendSample(dst []byte, val int32, width int) []byte {
	switch width {
	case 2:
		return append(dst, byte(val), byte(val>>8))
	case 3:
		return append(dst, byte(val), byte(val>>8), byte(val>>16))
	case 4:
		return append(dst, byte(val), byte(val>>8), byte(val>>16), byte(val>>24))
	default:
		return append(dst, byte(val))
	}
}
