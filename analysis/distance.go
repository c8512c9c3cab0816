// Package analysis measures how closely a synthesized note matches a
// reference recording. The combined score drives the instrument fitter.
package analysis

import (
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

// Metrics contains distance and similarity measurements between two signals.
type Metrics struct {
	SampleRate int `json:"sample_rate"`

	ReferenceFrames int `json:"reference_frames"`
	CandidateFrames int `json:"candidate_frames"`
	AlignedFrames   int `json:"aligned_frames"`
	LagSamples      int `json:"lag_samples"`

	TimeRMSE       float64 `json:"time_rmse"`
	EnvelopeRMSEDB float64 `json:"envelope_rmse_db"`
	SpectralRMSEDB float64 `json:"spectral_rmse_db"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

const (
	fftSize     = 4096
	fftHop      = 2048
	envFrame    = 256
	envHop      = 128
	rmsTarget   = 0.1
	minAligned  = 256
	maxCompareS = 12
)

// Compare returns distance metrics and a combined score in [0,1], where 0 is
// a perfect match. Signals are RMS-matched and aligned by their energy peaks
// before comparison, so absolute level and onset offsets do not dominate.
func Compare(reference []float64, candidate []float64, sampleRate int) Metrics {
	m := Metrics{
		SampleRate:      sampleRate,
		ReferenceFrames: len(reference),
		CandidateFrames: len(candidate),
	}
	worst := func() Metrics {
		m.Score = 1.0
		m.Similarity = 0.0
		return m
	}
	if sampleRate <= 0 || len(reference) == 0 || len(candidate) == 0 {
		return worst()
	}

	ref := normalizeRMS(trimLeadingSilence(reference, 1e-6), rmsTarget)
	cand := normalizeRMS(trimLeadingSilence(candidate, 1e-6), rmsTarget)
	if len(ref) == 0 || len(cand) == 0 {
		return worst()
	}

	lag := peakLag(ref, cand)
	m.LagSamples = lag
	if lag > 0 && lag < len(cand) {
		cand = cand[lag:]
	} else if lag < 0 && -lag < len(ref) {
		ref = ref[-lag:]
	}

	n := len(ref)
	if len(cand) < n {
		n = len(cand)
	}
	if n < minAligned {
		return worst()
	}
	if maxFrames := sampleRate * maxCompareS; n > maxFrames {
		n = maxFrames
	}
	ref = ref[:n]
	cand = cand[:n]
	m.AlignedFrames = n

	m.TimeRMSE = rmse(ref, cand)
	m.EnvelopeRMSEDB = envelopeRMSEDB(ref, cand)
	m.SpectralRMSEDB = spectralRMSEDB(ref, cand)

	timeNorm := clamp01(m.TimeRMSE / 0.25)
	envNorm := clamp01(m.EnvelopeRMSEDB / 30.0)
	specNorm := clamp01(m.SpectralRMSEDB / 30.0)
	m.Score = clamp01(0.35*timeNorm + 0.25*envNorm + 0.40*specNorm)
	m.Similarity = clamp01(math.Exp(-4.0 * m.Score))
	return m
}

// peakLag estimates the alignment offset from the position of each signal's
// absolute peak.
func peakLag(ref []float64, cand []float64) int {
	return peakIndex(cand) - peakIndex(ref)
}

func peakIndex(x []float64) int {
	best := 0
	bestVal := 0.0
	for i, v := range x {
		if a := math.Abs(v); a > bestVal {
			bestVal = a
			best = i
		}
	}
	return best
}

// envelopeRMSEDB compares short-window RMS envelopes in decibels.
func envelopeRMSEDB(ref []float64, cand []float64) float64 {
	refEnv := rmsEnvelope(ref, envFrame, envHop)
	candEnv := rmsEnvelope(cand, envFrame, envHop)
	n := len(refEnv)
	if len(candEnv) < n {
		n = len(candEnv)
	}
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := linToDB(refEnv[i]) - linToDB(candEnv[i])
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

// spectralRMSEDB compares hop-averaged magnitude spectra in decibels using a
// real FFT plan.
func spectralRMSEDB(ref []float64, cand []float64) float64 {
	n := len(ref)
	if len(cand) < n {
		n = len(cand)
	}
	if n < fftSize {
		return 0
	}

	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		return 0
	}

	bins := fftSize/2 + 1
	forward := func(dst []complex128, src []float64) {
		plan.Forward(dst, src)
	}
	avgRef := averageSpectrum(forward, ref[:n], bins)
	avgCand := averageSpectrum(forward, cand[:n], bins)

	var sum float64
	for k := 1; k < bins; k++ {
		d := linToDB(avgRef[k]) - linToDB(avgCand[k])
		sum += d * d
	}
	return math.Sqrt(sum / float64(bins-1))
}

func averageSpectrum(forward func(dst []complex128, src []float64), x []float64, bins int) []float64 {
	spec := make([]complex128, bins)
	buf := make([]float64, fftSize)
	avg := make([]float64, bins)

	hann := make([]float64, fftSize)
	for i := range hann {
		hann[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(fftSize-1))
	}

	windows := 0
	for pos := 0; pos+fftSize <= len(x); pos += fftHop {
		for i := 0; i < fftSize; i++ {
			buf[i] = x[pos+i] * hann[i]
		}
		forward(spec, buf)
		for k := 0; k < bins; k++ {
			avg[k] += cmplx.Abs(spec[k])
		}
		windows++
	}
	if windows > 0 {
		inv := 1.0 / float64(windows)
		for k := range avg {
			avg[k] *= inv
		}
	}
	return avg
}

func trimLeadingSilence(x []float64, threshold float64) []float64 {
	for i := 0; i < len(x); i++ {
		if math.Abs(x[i]) > threshold {
			return x[i:]
		}
	}
	return nil
}

func normalizeRMS(x []float64, target float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	r := rms(x)
	if r <= 1e-12 {
		return append([]float64(nil), x...)
	}
	g := target / r
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] * g
	}
	return out
}

func rmse(a []float64, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func rmsEnvelope(x []float64, frame int, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	n := 1 + (len(x)-frame)/hop
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i * hop
		out[i] = rms(x[start : start+frame])
	}
	return out
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
