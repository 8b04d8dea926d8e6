package capture

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Convert converts 16-bit PCM from one format to another. Multi-channel input
// is averaged down to mono before resampling; mono input can be duplicated
// up to stereo.
func Convert(pcm []byte, from, to Format) ([]byte, error) {
	if from == to {
		return pcm, nil
	}
	if !from.valid() || !to.valid() {
		return nil, fmt.Errorf("capture: invalid conversion %v -> %v", from, to)
	}
	if to.Channels > 2 || (to.Channels == 2 && from.Channels != 1 && from.Channels != 2) {
		return nil, fmt.Errorf("capture: unsupported channel conversion %d -> %d", from.Channels, to.Channels)
	}

	samples := pcmToFloat(pcm[:len(pcm)/from.FrameBytes()*from.FrameBytes()])

	if from.Channels != 1 {
		samples = downmix(samples, from.Channels)
	}

	if from.SampleRate != to.SampleRate && len(samples) > 0 {
		rs, err := resampling.New(&resampling.Config{
			InputRate:  float64(from.SampleRate),
			OutputRate: float64(to.SampleRate),
			Channels:   1,
			Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
		})
		if err != nil {
			return nil, fmt.Errorf("capture: create resampler: %w", err)
		}
		samples, err = rs.Process(samples)
		if err != nil {
			return nil, fmt.Errorf("capture: resample: %w", err)
		}
	}

	if to.Channels == 2 {
		samples = upmix(samples)
	}
	return floatToPCM(samples), nil
}

func pcmToFloat(pcm []byte) []float64 {
	out := make([]float64, len(pcm)/2)
	for i := range out {
		s := int16(pcm[i*2]) | int16(pcm[i*2+1])<<8
		out[i] = float64(s) / 32768.0
	}
	return out
}

func floatToPCM(samples []float64) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		var v int16
		switch {
		case s >= 1.0:
			v = 32767
		case s <= -1.0:
			v = -32768
		default:
			v = int16(s * 32767.0)
		}
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

func downmix(samples []float64, channels int) []float64 {
	frames := len(samples) / channels
	out := make([]float64, frames)
	for i := range frames {
		var sum float64
		for c := range channels {
			sum += samples[i*channels+c]
		}
		out[i] = sum / float64(channels)
	}
	return out
}

func upmix(mono []float64) []float64 {
	out := make([]float64, len(mono)*2)
	for i, s := range mono {
		out[i*2] = s
		out[i*2+1] = s
	}
	return out
}
