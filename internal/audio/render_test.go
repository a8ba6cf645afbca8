package audio

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func s16(samples ...int16) []byte {
	out := make([]byte, 0, len(samples)*2)
	for _, s := range samples {
		out = binary.LittleEndian.AppendUint16(out, uint16(s))
	}
	return out
}

func TestSampleToFloat(t *testing.T) {
	testCases := []struct {
		name     string
		bytes    []byte
		format   SampleFormat
		expected float64
	}{
		{"s16 zero", s16(0), FormatS16, 0},
		{"s16 min", s16(-32768), FormatS16, -1},
		{"s16 half", s16(16384), FormatS16, 0.5},
		{"s24 negative", []byte{0x00, 0x00, 0xC0}, FormatS24, -0.5},
		{"u8 midpoint", []byte{128}, FormatU8, 0},
		{"unknown", []byte{1, 2}, FormatUnknown, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, sampleToFloat(tc.bytes, tc.format), 1e-9)
		})
	}
}

func TestRenderS16SameRateStereo(t *testing.T) {
	data := &AudioData{Samples: s16(1000, -1000, 2000, -2000), Channels: 2, SampleRate: 44100, Format: FormatS16}

	out := renderS16(data, 44100, 2, 1.0)
	assert.Len(t, out, 8)
	assert.InDelta(t, 1000, int16(binary.LittleEndian.Uint16(out[0:])), 1)
	assert.InDelta(t, -2000, int16(binary.LittleEndian.Uint16(out[6:])), 1)
}

func TestRenderS16MonoIsDuplicated(t *testing.T) {
	data := &AudioData{Samples: s16(3000), Channels: 1, SampleRate: 8000, Format: FormatS16}

	out := renderS16(data, 8000, 2, 1.0)
	assert.Len(t, out, 4)
	assert.Equal(t, out[0:2], out[2:4])
}

func TestRenderS16Silent(t *testing.T) {
	data := &AudioData{Samples: s16(3000, 3000), Channels: 2, SampleRate: 8000, Format: FormatS16}

	out := renderS16(data, 8000, 2, 0)
	assert.Equal(t, make([]byte, 4), out)
}

func TestRenderS16Resamples(t *testing.T) {
	samples := make([]int16, 2*800)
	data := &AudioData{Samples: s16(samples...), Channels: 2, SampleRate: 8000, Format: FormatS16}

	out := renderS16(data, 16000, 2, 1.0)
	frames := len(out) / 4
	assert.InDelta(t, 1600, frames, 16)
}

func TestApplyVolumeToSamples(t *testing.T) {
	samples := s16(1000, -1000)
	applyVolumeToSamples(samples, FormatS16, 0.5)
	assert.Equal(t, s16(500, -500), samples)

	untouched := s16(1000)
	applyVolumeToSamples(untouched, FormatS16, 1.0)
	assert.Equal(t, s16(1000), untouched)

	muted := s16(1000)
	applyVolumeToSamples(muted, FormatS16, -1)
	assert.Equal(t, s16(0), muted)
}
