// Package synth provides the generative instrument capability behind the
// clip renderer: given a latent vector and a MIDI pitch, produce one raw
// audio buffer.
package synth

import (
	"fmt"

	"github.com/cwbudde/algo-approx"
)

// Generator turns latent vectors and pitches into raw note audio.
type Generator interface {
	// Generate synthesizes one note buffer for a latent vector and pitch.
	Generate(z []float64, pitch int) ([]float64, error)

	// GenerateBatch synthesizes one buffer per latent vector. zs and pitches
	// must have equal length.
	GenerateBatch(zs [][]float64, pitches []int) ([][]float64, error)
}

// midiNoteToFreq converts a MIDI note number to frequency in Hz.
func midiNoteToFreq(note int) float64 {
	const a4Freq = 440.0
	const a4Note = 69
	exponent := float64(note-a4Note) / 12.0
	return a4Freq * float64(pow2Approx(float32(exponent)))
}

func pow2Approx(x float32) float32 {
	const ln2 = 0.69314718055994530942
	return approx.FastExp(x * ln2)
}

func checkBatch(zs [][]float64, pitches []int) error {
	if len(zs) != len(pitches) {
		return fmt.Errorf("synth: %d latent vectors for %d pitches", len(zs), len(pitches))
	}
	return nil
}
