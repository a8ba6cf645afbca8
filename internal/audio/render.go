package audio

import (
	"math"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// pcmStreamer exposes AudioData as a beep.Streamer. Mono is duplicated to
// both sides; channels beyond the second are dropped.
type pcmStreamer struct {
	data *AudioData
	pos  int
}

func (s *pcmStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	total := s.data.FrameCount()
	if s.pos >= total {
		return 0, false
	}
	for n < len(samples) && s.pos < total {
		samples[n] = s.frame(s.pos)
		s.pos++
		n++
	}
	return n, true
}

func (s *pcmStreamer) Err() error {
	return nil
}

func (s *pcmStreamer) frame(i int) [2]float64 {
	width := s.data.Format.BytesPerSample()
	base := i * s.data.frameSize()
	left := sampleToFloat(s.data.Samples[base:base+width], s.data.Format)
	if s.data.Channels < 2 {
		return [2]float64{left, left}
	}
	right := sampleToFloat(s.data.Samples[base+width:base+2*width], s.data.Format)
	return [2]float64{left, right}
}

// sampleToFloat converts one little-endian sample to the range [-1, 1].
func sampleToFloat(b []byte, format SampleFormat) float64 {
	switch format {
	case FormatU8:
		return (float64(b[0]) - 128) / 128
	case FormatS16:
		return float64(int16(uint16(b[0])|uint16(b[1])<<8)) / (1 << 15)
	case FormatS24:
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if v&0x800000 != 0 {
			v |= ^0xFFFFFF
		}
		return float64(v) / (1 << 23)
	case FormatS32:
		return float64(int32(uint32(b[0])|uint32(b[1])<<8|uint32(b[2])<<16|uint32(b[3])<<24)) / (1 << 31)
	default:
		return 0
	}
}

// renderS16 converts a clip to signed 16-bit little-endian PCM at the given
// rate and channel count (1 or 2), scaled by volume.
func renderS16(data *AudioData, rate, channels int, volume float64) []byte {
	var s beep.Streamer = &pcmStreamer{data: data}
	if int(data.SampleRate) != rate {
		s = beep.Resample(4, beep.SampleRate(data.SampleRate), beep.SampleRate(rate), s)
	}
	if volume < 1.0 {
		s = &effects.Volume{
			Streamer: s,
			Base:     2,
			Volume:   math.Log2(math.Max(volume, 1e-6)),
			Silent:   volume <= 0,
		}
	}

	format := beep.Format{SampleRate: beep.SampleRate(rate), NumChannels: channels, Precision: 2}
	frame := make([]byte, format.Width())
	out := make([]byte, 0, data.FrameCount()*format.Width())
	buf := make([][2]float64, 512)

	for {
		n, ok := s.Stream(buf)
		for i := 0; i < n; i++ {
			w := format.EncodeSigned(frame, buf[i])
			out = append(out, frame[:w]...)
		}
		if !ok {
			break
		}
	}
	return out
}
