package clip

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-render/score"
)

// TailSeconds is the silence kept after the last note's end.
const TailSeconds = 3.0

// Errors returned by Combine.
var (
	ErrNoNotes       = errors.New("clip: no notes to combine")
	ErrCountMismatch = errors.New("clip: audio buffer count does not match note count")
)

// Combine mixes per-note audio buffers into one clip.
//
// The clip covers the latest note end plus a three second tail. Each note, in
// input order, is truncated to its envelope length, shaped by the envelope,
// peak-normalized, scaled by velocity/127, and added into the clip at its
// start offset. Overlapping notes sum. The finished clip is peak-normalized
// and then halved to leave headroom.
//
// Notes whose shaped audio is silent are skipped rather than normalized; the
// original implementation divided by zero here.
func Combine(audioNotes [][]float64, notes []score.Note, sampleRate int, opt EnvelopeOptions) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("clip: sample rate must be > 0: %d", sampleRate)
	}
	if len(notes) == 0 {
		return nil, ErrNoNotes
	}
	if len(audioNotes) != len(notes) {
		return nil, fmt.Errorf("%w: %d buffers, %d notes", ErrCountMismatch, len(audioNotes), len(notes))
	}

	clipLen := int(math.Round((score.EndTime(notes) + TailSeconds) * float64(sampleRate)))
	out := make([]float64, clipLen)

	for i, note := range notes {
		shaped := shapeNote(audioNotes[i], note, sampleRate, opt)
		if shaped == nil {
			continue
		}
		start := int(math.Round(note.Start * float64(sampleRate)))
		overlay(out, shaped, start)
	}

	peak := peakAbs(out)
	if peak < 1e-12 {
		return out, nil
	}
	scale := 0.5 / peak
	for i := range out {
		out[i] *= scale
	}
	return out, nil
}

// shapeNote applies the envelope, per-note normalization, and velocity
// scaling. Returns nil for a silent note.
func shapeNote(audio []float64, note score.Note, sampleRate int, opt EnvelopeOptions) []float64 {
	env := Envelope(note.Duration(), sampleRate, opt)
	n := len(env)
	if len(audio) < n {
		n = len(audio)
	}
	if n == 0 {
		return nil
	}

	shaped := make([]float64, n)
	for i := 0; i < n; i++ {
		shaped[i] = audio[i] * env[i]
	}

	peak := peakAbs(shaped)
	if peak < 1e-12 {
		return nil
	}
	gain := float64(note.Velocity) / 127.0 / peak
	for i := range shaped {
		shaped[i] *= gain
	}
	return shaped
}

// overlay adds src into dst starting at offset, clipping to dst bounds.
func overlay(dst, src []float64, offset int) {
	for i, v := range src {
		j := offset + i
		if j < 0 || j >= len(dst) {
			continue
		}
		dst[j] += v
	}
}
