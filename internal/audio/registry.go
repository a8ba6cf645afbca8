package audio

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DecoderRegistry manages audio format decoders and provides format detection
type DecoderRegistry struct {
	decoders []Decoder
}

// NewDecoderRegistry creates a new empty decoder registry
func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{
		decoders: make([]Decoder, 0),
	}
}

// NewDefaultRegistry creates a registry with default WAV, MP3, and AIFF decoders
func NewDefaultRegistry() *DecoderRegistry {
	registry := NewDecoderRegistry()
	registry.Register(NewWavDecoder())
	registry.Register(NewMp3Decoder())
	registry.Register(NewAiffDecoder())
	return registry
}

// Register adds a decoder to the registry
func (r *DecoderRegistry) Register(decoder Decoder) {
	if decoder == nil {
		slog.Warn("attempted to register nil decoder")
		return
	}
	r.decoders = append(r.decoders, decoder)
}

// GetDecoders returns all registered decoders
func (r *DecoderRegistry) GetDecoders() []Decoder {
	return r.decoders
}

// GetSupportedFormats returns a list of all supported format names
func (r *DecoderRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(r.decoders))
	for _, decoder := range r.decoders {
		formats = append(formats, decoder.FormatName())
	}
	return formats
}

// DetectFormat detects the appropriate decoder based on filename extension only.
// Query strings and fragments of URLs are ignored.
func (r *DecoderRegistry) DetectFormat(filename string) Decoder {
	if filename == "" {
		return nil
	}
	if i := strings.IndexAny(filename, "?#"); i >= 0 {
		filename = filename[:i]
	}

	// First registered decoder wins
	for _, decoder := range r.decoders {
		if decoder.CanDecode(filename) {
			return decoder
		}
	}
	return nil
}

// DetectFormatWithContent detects format using magic bytes first, falling back
// to the extension of filename.
func (r *DecoderRegistry) DetectFormatWithContent(filename string, content []byte) Decoder {
	header := content
	if len(header) > 512 {
		header = header[:512]
	}
	if len(header) == 0 {
		return r.DetectFormat(filename)
	}

	mime := strings.ToLower(mimetype.Detect(header).String())

	var formatDecoder Decoder
	switch {
	case strings.Contains(mime, "wav") || mime == "audio/vnd.wave":
		formatDecoder = r.findDecoderByFormat("WAV")
	case strings.Contains(mime, "mpeg") || strings.Contains(mime, "mp3"):
		formatDecoder = r.findDecoderByFormat("MP3")
	case strings.Contains(mime, "aiff"):
		formatDecoder = r.findDecoderByFormat("AIFF")
	}

	if formatDecoder != nil {
		slog.Debug("format detected by magic bytes",
			"filename", filename,
			"format", formatDecoder.FormatName(),
			"mime_type", mime)
		return formatDecoder
	}

	slog.Debug("magic detection inconclusive, falling back to extension",
		"filename", filename,
		"mime_type", mime)
	return r.DetectFormat(filename)
}

// findDecoderByFormat finds a decoder by its format name
func (r *DecoderRegistry) findDecoderByFormat(formatName string) Decoder {
	for _, decoder := range r.decoders {
		if strings.EqualFold(decoder.FormatName(), formatName) {
			return decoder
		}
	}
	return nil
}

// DecodeBytes decodes a complete in-memory payload. The name is only used for
// extension fallback and error reporting. Failures are returned as *DecodeError.
func (r *DecoderRegistry) DecodeBytes(name string, content []byte) (*AudioData, error) {
	decoder := r.DetectFormatWithContent(name, content)
	if decoder == nil {
		return nil, &DecodeError{Path: name, Err: ErrUnsupportedFormat}
	}

	audioData, err := decodeSafely(decoder, content)
	if err != nil {
		return nil, &DecodeError{Path: name, Format: decoder.FormatName(), Err: err}
	}
	if audioData.FrameCount() == 0 {
		return nil, &DecodeError{Path: name, Format: decoder.FormatName(), Err: fmt.Errorf("%w: no frames", ErrInvalidData)}
	}

	slog.Debug("resource decoded",
		"name", name,
		"format", decoder.FormatName(),
		"channels", audioData.Channels,
		"sample_rate", audioData.SampleRate,
		"data_size", len(audioData.Samples))

	return audioData, nil
}

// decodeSafely turns a decoder panic on malformed input into ErrInvalidData.
func decodeSafely(decoder Decoder, content []byte) (out *AudioData, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("decoder panicked on malformed input",
				"format", decoder.FormatName(),
				"panic", r)
			out, err = nil, fmt.Errorf("%w: %v", ErrInvalidData, r)
		}
	}()
	return decoder.Decode(bytes.NewReader(content))
}
