package audio

import "log/slog"

// applyVolumeToSamples scales PCM samples in place. U8 is left untouched.
func applyVolumeToSamples(samples []byte, format SampleFormat, volume float64) {
	if volume >= 1.0 {
		return
	}
	if volume < 0 {
		volume = 0
	}

	switch format {
	case FormatS16:
		for i := 0; i+1 < len(samples); i += 2 {
			sample := int16(samples[i]) | int16(samples[i+1])<<8
			sample = int16(float64(sample) * volume)
			samples[i] = byte(sample)
			samples[i+1] = byte(sample >> 8)
		}
	case FormatS24:
		for i := 0; i+2 < len(samples); i += 3 {
			sample := int32(samples[i]) | int32(samples[i+1])<<8 | int32(samples[i+2])<<16
			// sign extend from 24 bits
			if sample&0x800000 != 0 {
				sample |= ^0xFFFFFF
			}
			sample = int32(float64(sample) * volume)
			samples[i] = byte(sample)
			samples[i+1] = byte(sample >> 8)
			samples[i+2] = byte(sample >> 16)
		}
	case FormatS32:
		for i := 0; i+3 < len(samples); i += 4 {
			sample := int32(samples[i]) | int32(samples[i+1])<<8 | int32(samples[i+2])<<16 | int32(samples[i+3])<<24
			sample = int32(float64(sample) * volume)
			samples[i] = byte(sample)
			samples[i+1] = byte(sample >> 8)
			samples[i+2] = byte(sample >> 16)
			samples[i+3] = byte(sample >> 24)
		}
	default:
		slog.Warn("volume adjustment not implemented for format", "format", format.String())
	}
}
