package synth

import (
	"math"
	"math/rand"
	"testing"
)

func testModal(t *testing.T) *Modal {
	t.Helper()
	cfg := DefaultConfig()
	cfg.NoteDuration = 0.25
	m, err := NewModal(cfg)
	if err != nil {
		t.Fatalf("NewModal: %v", err)
	}
	return m
}

func randomLatent(seed int64, dims int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	z := make([]float64, dims)
	for i := range z {
		z[i] = rng.NormFloat64()
	}
	return z
}

func TestGenerateShapeAndLevel(t *testing.T) {
	m := testModal(t)
	z := randomLatent(7, m.Config().LatentDims)

	buf, err := m.Generate(z, 60)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	wantLen := int(math.Round(m.Config().NoteDuration * float64(m.Config().SampleRate)))
	if len(buf) != wantLen {
		t.Fatalf("buffer length = %d, want %d", len(buf), wantLen)
	}

	peak := 0.0
	energy := 0.0
	for i, v := range buf {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("non-finite sample at %d", i)
		}
		if a := math.Abs(v); a > peak {
			peak = a
		}
		energy += v * v
	}
	if energy <= 1e-8 {
		t.Fatal("expected non-zero energy")
	}
	if peak > m.Config().NormalizePeak+1e-9 {
		t.Fatalf("peak %g exceeds normalize target %g", peak, m.Config().NormalizePeak)
	}
}

func TestGenerateDeterministicPerLatent(t *testing.T) {
	m := testModal(t)
	z := randomLatent(3, m.Config().LatentDims)

	a, err := m.Generate(z, 69)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	b, err := m.Generate(z, 69)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic output at %d", i)
		}
	}
}

func TestGenerateDiffersAcrossLatents(t *testing.T) {
	m := testModal(t)
	a, err := m.Generate(randomLatent(1, m.Config().LatentDims), 60)
	if err != nil {
		t.Fatalf("Generate a: %v", err)
	}
	b, err := m.Generate(randomLatent(2, m.Config().LatentDims), 60)
	if err != nil {
		t.Fatalf("Generate b: %v", err)
	}
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different latent vectors produced identical audio")
	}
}

func TestGeneratePitchControlsFundamental(t *testing.T) {
	m := testModal(t)
	z := randomLatent(5, m.Config().LatentDims)

	low, err := m.Generate(z, 48)
	if err != nil {
		t.Fatalf("Generate low: %v", err)
	}
	high, err := m.Generate(z, 72)
	if err != nil {
		t.Fatalf("Generate high: %v", err)
	}

	// Two octaves apart: the high note should cross zero roughly four times
	// as often.
	lowC := zeroCrossings(low)
	highC := zeroCrossings(high)
	if highC < lowC*2 {
		t.Fatalf("zero crossings low=%d high=%d: pitch has no effect", lowC, highC)
	}
}

func TestGenerateRejectsBadInputs(t *testing.T) {
	m := testModal(t)
	if _, err := m.Generate(make([]float64, m.Config().LatentDims+1), 60); err == nil {
		t.Fatal("expected error for wrong latent dims")
	}
	if _, err := m.Generate(make([]float64, m.Config().LatentDims), 200); err == nil {
		t.Fatal("expected error for pitch out of range")
	}
}

func TestGenerateBatch(t *testing.T) {
	m := testModal(t)
	zs := [][]float64{
		randomLatent(1, m.Config().LatentDims),
		randomLatent(2, m.Config().LatentDims),
	}
	bufs, err := m.GenerateBatch(zs, []int{60, 64})
	if err != nil {
		t.Fatalf("GenerateBatch: %v", err)
	}
	if len(bufs) != 2 {
		t.Fatalf("expected 2 buffers, got %d", len(bufs))
	}

	if _, err := m.GenerateBatch(zs, []int{60}); err == nil {
		t.Fatal("expected error for length mismatch")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 4000
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for low sample rate")
	}
	cfg = DefaultConfig()
	cfg.Partials = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero partials")
	}
	cfg = DefaultConfig()
	cfg.NoteDuration = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero duration")
	}
}

func zeroCrossings(x []float64) int {
	n := 0
	for i := 1; i < len(x); i++ {
		if (x[i-1] < 0) != (x[i] < 0) {
			n++
		}
	}
	return n
}
