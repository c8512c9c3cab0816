// Package fx applies impulse-response effects to a dry signal by convolution.
//
// A dry signal and one or more fx signals (impulse responses or textures) are
// brought to a common sample rate and channel layout, normalized, convolved
// per channel, and finally quantized to integer PCM. The convolution itself is
// delegated to algo-dsp; this package only handles the surrounding shape and
// level plumbing.
package fx

import (
	"errors"
	"math"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
)

// Errors returned by signal operations.
var (
	ErrNoChannels        = errors.New("fx: signal has no channels")
	ErrRaggedChannels    = errors.New("fx: channels have differing lengths")
	ErrInvalidSampleRate = errors.New("fx: sample rate must be > 0")
)

// Signal is non-interleaved multi-channel audio at a known sample rate.
type Signal struct {
	SampleRate int
	Channels   [][]float64
}

// NewMono wraps a single channel of samples into a Signal.
func NewMono(samples []float64, sampleRate int) Signal {
	return Signal{SampleRate: sampleRate, Channels: [][]float64{samples}}
}

// Validate checks basic signal consistency.
func (s Signal) Validate() error {
	if s.SampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	if len(s.Channels) == 0 {
		return ErrNoChannels
	}
	frames := len(s.Channels[0])
	for _, ch := range s.Channels[1:] {
		if len(ch) != frames {
			return ErrRaggedChannels
		}
	}
	return nil
}

// NumChannels returns the channel count.
func (s Signal) NumChannels() int {
	return len(s.Channels)
}

// Frames returns the per-channel sample count.
func (s Signal) Frames() int {
	if len(s.Channels) == 0 {
		return 0
	}
	return len(s.Channels[0])
}

// IsMono reports whether the signal has exactly one channel.
func (s Signal) IsMono() bool {
	return len(s.Channels) == 1
}

// Clone returns a deep copy of the signal.
func (s Signal) Clone() Signal {
	out := Signal{SampleRate: s.SampleRate, Channels: make([][]float64, len(s.Channels))}
	for i, ch := range s.Channels {
		out.Channels[i] = append([]float64(nil), ch...)
	}
	return out
}

// Downmix returns a mono signal whose samples are the channel mean.
func (s Signal) Downmix() Signal {
	if s.IsMono() {
		return s.Clone()
	}
	frames := s.Frames()
	mono := make([]float64, frames)
	if len(s.Channels) > 0 {
		inv := 1.0 / float64(len(s.Channels))
		for i := 0; i < frames; i++ {
			var sum float64
			for _, ch := range s.Channels {
				sum += ch[i]
			}
			mono[i] = sum * inv
		}
	}
	return Signal{SampleRate: s.SampleRate, Channels: [][]float64{mono}}
}

// FromInterleaved builds a Signal from interleaved samples.
func FromInterleaved(data []float64, numChannels int, sampleRate int) Signal {
	if numChannels < 1 {
		numChannels = 1
	}
	frames := len(data) / numChannels
	channels := make([][]float64, numChannels)
	for c := range channels {
		channels[c] = make([]float64, frames)
		for i := 0; i < frames; i++ {
			channels[c][i] = data[i*numChannels+c]
		}
	}
	return Signal{SampleRate: sampleRate, Channels: channels}
}

// Interleaved returns the signal as interleaved samples.
func (s Signal) Interleaved() []float64 {
	frames := s.Frames()
	ch := len(s.Channels)
	out := make([]float64, frames*ch)
	for c, data := range s.Channels {
		for i := 0; i < frames; i++ {
			out[i*ch+c] = data[i]
		}
	}
	return out
}

// Resampled returns the signal converted to the target rate. The input is
// returned unchanged (not copied) when the rates already match.
func (s Signal) Resampled(targetRate int) (Signal, error) {
	if targetRate <= 0 {
		return Signal{}, ErrInvalidSampleRate
	}
	if s.SampleRate == targetRate {
		return s, nil
	}
	if s.Frames() == 0 {
		out := s.Clone()
		out.SampleRate = targetRate
		return out, nil
	}
	out := Signal{SampleRate: targetRate, Channels: make([][]float64, len(s.Channels))}
	for i, ch := range s.Channels {
		r, err := dspresample.NewForRates(
			float64(s.SampleRate),
			float64(targetRate),
			dspresample.WithQuality(dspresample.QualityBest),
		)
		if err != nil {
			return Signal{}, err
		}
		out.Channels[i] = r.Process(ch)
	}
	return out, nil
}

func peakAbs(channels [][]float64) float64 {
	peak := 0.0
	for _, ch := range channels {
		for _, v := range ch {
			if a := math.Abs(v); a > peak {
				peak = a
			}
		}
	}
	return peak
}
