package fx

import (
	"math"
	"testing"
)

func TestDownmixAveragesChannels(t *testing.T) {
	s := Signal{SampleRate: 48000, Channels: [][]float64{
		{1.0, 0.0, -1.0},
		{0.0, 1.0, -1.0},
	}}
	mono := s.Downmix()
	if !mono.IsMono() {
		t.Fatalf("expected mono, got %d channels", mono.NumChannels())
	}
	want := []float64{0.5, 0.5, -1.0}
	for i, v := range want {
		if math.Abs(mono.Channels[0][i]-v) > 1e-12 {
			t.Fatalf("sample %d: got %g, want %g", i, mono.Channels[0][i], v)
		}
	}
}

func TestInterleavedRoundTrip(t *testing.T) {
	data := []float64{1, 10, 2, 20, 3, 30}
	s := FromInterleaved(data, 2, 44100)
	if s.NumChannels() != 2 || s.Frames() != 3 {
		t.Fatalf("unexpected shape: ch=%d frames=%d", s.NumChannels(), s.Frames())
	}
	back := s.Interleaved()
	for i := range data {
		if back[i] != data[i] {
			t.Fatalf("round trip mismatch at %d: got %g, want %g", i, back[i], data[i])
		}
	}
}

func TestValidateRejectsRaggedChannels(t *testing.T) {
	s := Signal{SampleRate: 48000, Channels: [][]float64{
		make([]float64, 4),
		make([]float64, 3),
	}}
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for ragged channels")
	}
}

func TestResampledKeepsDurationApproximately(t *testing.T) {
	n := 4800
	in := make([]float64, n)
	for i := range in {
		in[i] = math.Sin(2 * math.Pi * 440 * float64(i) / 48000)
	}
	s := NewMono(in, 48000)

	out, err := s.Resampled(16000)
	if err != nil {
		t.Fatalf("Resampled: %v", err)
	}
	if out.SampleRate != 16000 {
		t.Fatalf("unexpected rate: %d", out.SampleRate)
	}
	want := n / 3
	if d := out.Frames() - want; d < -16 || d > 16 {
		t.Fatalf("resampled length %d too far from %d", out.Frames(), want)
	}
}

func TestNormalizeSilentSignalUnchanged(t *testing.T) {
	s := NewMono(make([]float64, 32), 48000)
	out, err := Normalize(s, Peak)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	for i, v := range out.Channels[0] {
		if v != 0 {
			t.Fatalf("silent signal modified at %d: %g", i, v)
		}
	}
}
