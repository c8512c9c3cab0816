package synth

import (
	"fmt"
	"math/rand"
)

// RandomInstruments draws latent instrument vectors spread linearly over the
// timeline, one every secsPerInstrument seconds, with at least two so that
// interpolation is always possible. It returns the vectors and their anchor
// times in seconds.
func RandomInstruments(rng *rand.Rand, endTime float64, secsPerInstrument float64, dims int) ([][]float64, []float64, error) {
	if endTime <= 0 {
		return nil, nil, fmt.Errorf("synth: end time must be > 0: %g", endTime)
	}
	if secsPerInstrument <= 0 {
		return nil, nil, fmt.Errorf("synth: seconds per instrument must be > 0: %g", secsPerInstrument)
	}
	if dims < 1 {
		return nil, nil, fmt.Errorf("synth: latent dims must be >= 1: %d", dims)
	}

	n := int(endTime/secsPerInstrument) + 1
	if n < 2 {
		n = 2
	}

	zs := make([][]float64, n)
	ts := make([]float64, n)
	for i := 0; i < n; i++ {
		z := make([]float64, dims)
		for d := range z {
			z[d] = rng.NormFloat64()
		}
		zs[i] = z
		ts[i] = endTime * float64(i) / float64(n-1)
	}
	return zs, ts, nil
}

// LatentsForNotes assigns each note start time a latent vector by linear
// interpolation between the two neighboring instrument anchors. Times before
// the first anchor or after the last clamp to the endpoint vectors. Anchor
// times must be strictly increasing.
func LatentsForNotes(startTimes []float64, zInstruments [][]float64, tInstruments []float64) ([][]float64, error) {
	if len(zInstruments) != len(tInstruments) {
		return nil, fmt.Errorf("synth: %d instrument vectors for %d anchor times", len(zInstruments), len(tInstruments))
	}
	if len(zInstruments) < 2 {
		return nil, fmt.Errorf("synth: need at least 2 instruments, got %d", len(zInstruments))
	}
	dims := len(zInstruments[0])
	for i := 1; i < len(tInstruments); i++ {
		if tInstruments[i] <= tInstruments[i-1] {
			return nil, fmt.Errorf("synth: anchor times not increasing at %d", i)
		}
		if len(zInstruments[i]) != dims {
			return nil, fmt.Errorf("synth: instrument %d has %d dims, want %d", i, len(zInstruments[i]), dims)
		}
	}

	out := make([][]float64, len(startTimes))
	for i, t := range startTimes {
		out[i] = interpolateLatent(t, zInstruments, tInstruments)
	}
	return out, nil
}

func interpolateLatent(t float64, zs [][]float64, ts []float64) []float64 {
	last := len(ts) - 1
	switch {
	case t <= ts[0]:
		return append([]float64(nil), zs[0]...)
	case t >= ts[last]:
		return append([]float64(nil), zs[last]...)
	}

	seg := 0
	for seg < last-1 && t > ts[seg+1] {
		seg++
	}
	w := (t - ts[seg]) / (ts[seg+1] - ts[seg])

	z := make([]float64, len(zs[seg]))
	for d := range z {
		z[d] = (1.0-w)*zs[seg][d] + w*zs[seg+1][d]
	}
	return z
}
