package audio

import (
	"bytes"
	"io"
	"log/slog"
	"strings"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
)

// AiffDecoder handles AIFF audio format decoding
type AiffDecoder struct{}

// NewAiffDecoder creates a new AIFF decoder instance
func NewAiffDecoder() *AiffDecoder {
	return &AiffDecoder{}
}

// FormatName returns the name of the format this decoder handles
func (d *AiffDecoder) FormatName() string {
	return "AIFF"
}

// CanDecode checks if this decoder can handle the given filename
func (d *AiffDecoder) CanDecode(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".aiff") || strings.HasSuffix(lower, ".aif")
}

// Decode reads AIFF audio data from reader and returns decoded PCM data
func (d *AiffDecoder) Decode(reader io.Reader) (*AudioData, error) {
	// go-audio/aiff needs a ReadSeeker
	data, err := io.ReadAll(reader)
	if err != nil {
		slog.Error("failed to read AIFF data", "error", err)
		return nil, ErrReadFailure
	}
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	decoder := aiff.NewDecoder(bytes.NewReader(data))
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, ErrInvalidData
	}

	sampleRate := uint32(decoder.SampleRate)
	channels := uint32(decoder.NumChans)
	bitDepth := int(decoder.SampleBitDepth())
	if channels == 0 || sampleRate == 0 || bitDepth == 0 {
		slog.Debug("invalid AIFF format parameters",
			"channels", channels,
			"sample_rate", sampleRate,
			"bit_depth", bitDepth)
		return nil, ErrInvalidData
	}

	sampleFormat, err := formatForBitDepth(bitDepth)
	if err != nil || sampleFormat == FormatU8 {
		slog.Debug("unsupported AIFF bit depth", "bits", bitDepth)
		return nil, ErrUnsupportedFormat
	}

	pcmBuffer, err := decoder.FullPCMBuffer()
	if err != nil {
		slog.Debug("failed to read AIFF samples", "error", err)
		return nil, ErrReadFailure
	}
	if pcmBuffer == nil || len(pcmBuffer.Data) == 0 {
		return nil, ErrInvalidData
	}

	audioData := &AudioData{
		Samples:    intBufferToBytes(pcmBuffer, sampleFormat.BytesPerSample()),
		Channels:   channels,
		SampleRate: sampleRate,
		Format:     sampleFormat,
	}

	slog.Debug("AIFF decode completed",
		"samples", len(pcmBuffer.Data),
		"channels", audioData.Channels,
		"sample_rate", audioData.SampleRate,
		"format", sampleFormat.String(),
		"duration_ms", audioData.Duration().Milliseconds())

	return audioData, nil
}

// intBufferToBytes packs interleaved integer samples as little-endian PCM.
func intBufferToBytes(buf *goaudio.IntBuffer, width int) []byte {
	out := make([]byte, 0, len(buf.Data)*width)
	for _, sample := range buf.Data {
		out = appendSample(out, int32(sample), width)
	}
	return out
}
