package fx

import "fmt"

// Strategy selects how a signal is scaled during normalization.
type Strategy int

const (
	// Peak scales so the loudest sample across all channels reaches 1.0.
	Peak Strategy = iota

	// Sum scales by the inverse of the summed per-channel peaks, so that the
	// channels cannot exceed 1.0 when mixed together.
	Sum
)

// Normalize returns a copy of the signal scaled according to the strategy.
// A silent signal is returned unchanged instead of dividing by zero.
func Normalize(s Signal, strategy Strategy) (Signal, error) {
	out := s.Clone()
	gain, err := normalizeGain(s.Channels, strategy)
	if err != nil {
		return Signal{}, err
	}
	if gain == 1.0 {
		return out, nil
	}
	for _, ch := range out.Channels {
		for i := range ch {
			ch[i] *= gain
		}
	}
	return out, nil
}

func normalizeGain(channels [][]float64, strategy Strategy) (float64, error) {
	switch strategy {
	case Peak:
		peak := peakAbs(channels)
		if peak < 1e-12 {
			return 1.0, nil
		}
		return 1.0 / peak, nil
	case Sum:
		var total float64
		for _, ch := range channels {
			total += peakAbs([][]float64{ch})
		}
		if total < 1e-12 {
			return 1.0, nil
		}
		return 1.0 / total, nil
	default:
		return 0, fmt.Errorf("fx: unknown normalization strategy %d", int(strategy))
	}
}
