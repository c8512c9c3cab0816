// Package clip shapes per-note audio with amplitude envelopes and overlays
// the notes into a single clip buffer.
package clip

import "math"

// Envelope timing defaults, in seconds.
const (
	DefaultAttack        = 0.010
	DefaultRelease       = 0.3
	DefaultMaxNoteLength = 3.0
)

// EnvelopeOptions controls the attack/sustain/release envelope shape.
type EnvelopeOptions struct {
	Attack        float64 // linear ramp 0..1 at the start
	Release       float64 // linear ramp 1..0 at the end
	MaxNoteLength float64 // cap on the sustain portion
}

// DefaultEnvelopeOptions returns the envelope timing used by the renderer.
func DefaultEnvelopeOptions() EnvelopeOptions {
	return EnvelopeOptions{
		Attack:        DefaultAttack,
		Release:       DefaultRelease,
		MaxNoteLength: DefaultMaxNoteLength,
	}
}

// Envelope builds a sample-aligned gain curve for a note of the given length
// in seconds. The curve ramps linearly 0→1 over the attack, holds 1.0 through
// the sustain, and ramps linearly 1→0 over the release. The attack shapes the
// start but does not extend the total length, which is always
// sustain + release samples.
func Envelope(noteLength float64, sampleRate int, opt EnvelopeOptions) []float64 {
	if sampleRate <= 0 {
		return nil
	}
	if opt.MaxNoteLength > 0 && noteLength > opt.MaxNoteLength {
		noteLength = opt.MaxNoteLength
	}
	if noteLength < 0 {
		noteLength = 0
	}

	attack := int(float64(sampleRate) * opt.Attack)
	sustain := int(float64(sampleRate) * noteLength)
	release := int(float64(sampleRate) * opt.Release)
	total := sustain + release
	if total <= 0 {
		return nil
	}

	env := make([]float64, total)
	for i := range env {
		env[i] = 1.0
	}
	if attack > total {
		attack = total
	}
	rampUp(env[:attack])
	if sustain < total {
		rampDown(env[sustain:])
	}
	return env
}

// rampUp fills seg with a linear 0→1 ramp including both endpoints.
func rampUp(seg []float64) {
	n := len(seg)
	if n == 0 {
		return
	}
	if n == 1 {
		seg[0] = 0.0
		return
	}
	for i := range seg {
		seg[i] = float64(i) / float64(n-1)
	}
}

// rampDown fills seg with a linear 1→0 ramp including both endpoints.
func rampDown(seg []float64) {
	n := len(seg)
	if n == 0 {
		return
	}
	if n == 1 {
		seg[0] = 0.0
		return
	}
	for i := range seg {
		seg[i] = 1.0 - float64(i)/float64(n-1)
	}
}

func peakAbs(x []float64) float64 {
	peak := 0.0
	for _, v := range x {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}
