package synth

import (
	"fmt"
	"math"
	"math/rand"
)

// Config controls the modal instrument model.
type Config struct {
	SampleRate   int
	NoteDuration float64 // seconds of audio per note
	Partials     int     // harmonic partials per note
	LatentDims   int     // expected latent vector length
	Seed         int64   // seeds the latent→timbre projections

	NormalizePeak float64
}

// DefaultConfig returns the renderer's default instrument settings.
func DefaultConfig() Config {
	return Config{
		SampleRate:    16000,
		NoteDuration:  4.0,
		Partials:      24,
		LatentDims:    8,
		Seed:          1,
		NormalizePeak: 0.9,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("synth: sample rate too low: %d", c.SampleRate)
	}
	if c.NoteDuration <= 0 {
		return fmt.Errorf("synth: note duration must be > 0")
	}
	if c.Partials < 1 {
		return fmt.Errorf("synth: partials must be >= 1")
	}
	if c.LatentDims < 1 {
		return fmt.Errorf("synth: latent dims must be >= 1")
	}
	if c.NormalizePeak <= 0 {
		return fmt.Errorf("synth: normalize peak must be > 0")
	}
	return nil
}

// Modal is a deterministic additive instrument. The latent vector is
// projected onto a fixed set of directions (seeded once at construction) to
// obtain timbre controls: spectral tilt, decay, inharmonicity, attack noise,
// and per-partial amplitude jitter. Equal latent vectors always produce equal
// audio.
type Modal struct {
	cfg Config

	// Fixed projection directions, one per timbre control plus one per
	// partial for amplitude jitter.
	controls [][]float64
	jitter   [][]float64
	phases   []float64
}

const numControls = 4

// NewModal builds a modal instrument from the configuration.
func NewModal(cfg Config) (*Modal, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	m := &Modal{
		cfg:      cfg,
		controls: make([][]float64, numControls),
		jitter:   make([][]float64, cfg.Partials),
		phases:   make([]float64, cfg.Partials),
	}
	for i := range m.controls {
		m.controls[i] = randomUnitVector(rng, cfg.LatentDims)
	}
	for i := range m.jitter {
		m.jitter[i] = randomUnitVector(rng, cfg.LatentDims)
		m.phases[i] = rng.Float64() * 2.0 * math.Pi
	}
	return m, nil
}

// Config returns the instrument configuration.
func (m *Modal) Config() Config {
	return m.cfg
}

// Generate synthesizes one note buffer.
func (m *Modal) Generate(z []float64, pitch int) ([]float64, error) {
	if len(z) != m.cfg.LatentDims {
		return nil, fmt.Errorf("synth: latent vector has %d dims, want %d", len(z), m.cfg.LatentDims)
	}
	if pitch < 0 || pitch > 127 {
		return nil, fmt.Errorf("synth: pitch out of MIDI range: %d", pitch)
	}

	n := int(math.Round(m.cfg.NoteDuration * float64(m.cfg.SampleRate)))
	if n < 1 {
		n = 1
	}
	out := make([]float64, n)

	// Timbre controls in [-1, 1].
	tilt := tanhProject(z, m.controls[0])
	decayCtl := tanhProject(z, m.controls[1])
	inharm := tanhProject(z, m.controls[2])
	noiseCtl := tanhProject(z, m.controls[3])

	f0 := midiNoteToFreq(pitch)
	nyquist := 0.47 * float64(m.cfg.SampleRate)

	// Map controls to physical ranges.
	// Spectral rolloff exponent 0.2..1.8, fundamental decay ~0.5..3 s,
	// stiffness coefficient 0..4e-4.
	tiltExp := 1.0 + 0.8*tilt
	baseDecayS := 1.2 * math.Pow(2.5, decayCtl)
	inharmB := 0.0002 * (1.0 + inharm)

	for h := 0; h < m.cfg.Partials; h++ {
		k := float64(h + 1)
		f := f0 * k * math.Sqrt(1.0+inharmB*k*k)
		if f >= nyquist {
			break
		}

		amp := 1.0 / math.Pow(k, tiltExp)
		amp *= 0.75 + 0.25*tanhProject(z, m.jitter[h])

		// Higher partials decay faster, as on a struck string.
		tau := baseDecayS / (1.0 + 0.08*k*k)
		decay := math.Exp(-1.0 / (tau * float64(m.cfg.SampleRate)))

		addPartial(out, amp, f, m.phases[h], decay, m.cfg.SampleRate)
	}

	// Short filtered noise burst at the onset gives the attack some bite.
	noiseLevel := 0.04 * (1.0 + noiseCtl)
	if noiseLevel > 1e-6 {
		addAttackNoise(out, z, noiseLevel, m.cfg.SampleRate)
	}

	peak := maxAbs(out)
	if peak > 1e-12 {
		s := m.cfg.NormalizePeak / peak
		for i := range out {
			out[i] *= s
		}
	}
	return out, nil
}

// GenerateBatch synthesizes one buffer per latent vector.
func (m *Modal) GenerateBatch(zs [][]float64, pitches []int) ([][]float64, error) {
	if err := checkBatch(zs, pitches); err != nil {
		return nil, err
	}
	out := make([][]float64, len(zs))
	for i := range zs {
		buf, err := m.Generate(zs[i], pitches[i])
		if err != nil {
			return nil, fmt.Errorf("synth: note %d: %w", i, err)
		}
		out[i] = buf
	}
	return out, nil
}

// addPartial accumulates a decaying cosine using the same two-term recurrence
// the IR generator uses, avoiding per-sample trig.
func addPartial(out []float64, amp float64, freq float64, phase float64, decay float64, sampleRate int) {
	if len(out) == 0 {
		return
	}
	w := 2.0 * math.Pi * freq / float64(sampleRate)
	cw := math.Cos(w)
	x0 := math.Cos(phase)
	x1 := math.Cos(phase + w)
	env := 1.0

	out[0] += amp * env * x0
	env *= decay
	if len(out) == 1 {
		return
	}
	out[1] += amp * env * x1
	env *= decay
	for i := 2; i < len(out); i++ {
		x2 := 2.0*cw*x1 - x0
		x0 = x1
		x1 = x2
		out[i] += amp * env * x2
		env *= decay
	}
}

// addAttackNoise adds a one-pole lowpassed noise burst over the first 30 ms.
// The noise sequence is derived from the latent vector so generation stays
// deterministic per z.
func addAttackNoise(out []float64, z []float64, level float64, sampleRate int) {
	n := int(0.030 * float64(sampleRate))
	if n > len(out) {
		n = len(out)
	}
	seed := int64(1)
	for _, v := range z {
		seed = seed*31 + int64(math.Float64bits(v)&0xffff)
	}
	rng := rand.New(rand.NewSource(seed))

	lp := 0.0
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n)
		env := math.Exp(-5.0 * t)
		lp = 0.9*lp + 0.1*rng.NormFloat64()
		out[i] += level * env * lp
	}
}

// tanhProject returns the dot product of z with a unit direction, squashed
// into (-1, 1).
func tanhProject(z []float64, dir []float64) float64 {
	var dot float64
	for i := range z {
		dot += z[i] * dir[i]
	}
	return math.Tanh(dot)
}

func randomUnitVector(rng *rand.Rand, dims int) []float64 {
	v := make([]float64, dims)
	var norm float64
	for i := range v {
		v[i] = rng.NormFloat64()
		norm += v[i] * v[i]
	}
	norm = math.Sqrt(norm)
	if norm < 1e-12 {
		v[0] = 1.0
		return v
	}
	for i := range v {
		v[i] /= norm
	}
	return v
}

func maxAbs(x []float64) float64 {
	m := 0.0
	for _, v := range x {
		a := math.Abs(v)
		if a > m {
			m = a
		}
	}
	return m
}
