package capture

import (
	"fmt"
	"time"
)

// Format describes 16-bit signed little-endian PCM audio.
type Format struct {
	SampleRate int
	Channels   int
}

// Mono16k is the format recordings are delivered in.
var Mono16k = Format{SampleRate: 16000, Channels: 1}

// String returns a short description such as "16000Hz mono".
func (f Format) String() string {
	switch f.Channels {
	case 1:
		return fmt.Sprintf("%dHz mono", f.SampleRate)
	case 2:
		return fmt.Sprintf("%dHz stereo", f.SampleRate)
	default:
		return fmt.Sprintf("%dHz %dch", f.SampleRate, f.Channels)
	}
}

// FrameBytes returns the size of one sample frame across all channels.
func (f Format) FrameBytes() int {
	return 2 * f.Channels
}

// BytesRate returns the number of bytes per second.
func (f Format) BytesRate() int {
	return f.SampleRate * f.FrameBytes()
}

// Duration returns the play time of n bytes.
func (f Format) Duration(n int) time.Duration {
	if f.BytesRate() == 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(f.BytesRate())
}

func (f Format) valid() bool {
	return f.SampleRate > 0 && f.Channels > 0
}

// Constraints are the capture settings requested from a microphone.
// Devices apply what they support and report the format they deliver.
type Constraints struct {
	Format           Format
	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool
}

// DefaultConstraints requests 16kHz mono with echo cancellation and noise
// suppression on and automatic gain off.
func DefaultConstraints() Constraints {
	return Constraints{
		Format:           Mono16k,
		EchoCancellation: true,
		NoiseSuppression: true,
		AutoGainControl:  false,
	}
}
