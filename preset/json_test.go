package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-render/fx"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	return path
}

func TestLoadJSONAppliesOverrides(t *testing.T) {
	path := writeSettings(t, `{
		"sample_rate": 48000,
		"convolution_mode": "same",
		"attack_seconds": 0.02,
		"release_seconds": 0.5,
		"min_pitch": 40,
		"max_pitch": 80,
		"seconds_per_instrument": 2.5,
		"latent_dims": 16,
		"seed": 99
	}`)

	s, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if s.SampleRate != 48000 {
		t.Fatalf("sample rate = %d", s.SampleRate)
	}
	if s.ConvolutionMode != fx.ModeSame {
		t.Fatalf("mode = %v", s.ConvolutionMode)
	}
	if s.Envelope.Attack != 0.02 || s.Envelope.Release != 0.5 {
		t.Fatalf("envelope = %+v", s.Envelope)
	}
	if s.MinPitch != 40 || s.MaxPitch != 80 {
		t.Fatalf("pitch range = %d..%d", s.MinPitch, s.MaxPitch)
	}
	if s.LatentDims != 16 || s.Seed != 99 {
		t.Fatalf("latent dims/seed = %d/%d", s.LatentDims, s.Seed)
	}
	// Untouched fields keep defaults.
	if s.NoteDuration != 4.0 || s.Partials != 24 {
		t.Fatalf("defaults lost: duration=%g partials=%d", s.NoteDuration, s.Partials)
	}
}

func TestLoadJSONEmptyObjectKeepsDefaults(t *testing.T) {
	path := writeSettings(t, `{}`)
	s, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	d := NewDefaultSettings()
	if *s != *d {
		t.Fatalf("got %+v, want defaults %+v", s, d)
	}
}

func TestLoadJSONRejectsInvalidValues(t *testing.T) {
	cases := []string{
		`{"sample_rate": 100}`,
		`{"convolution_mode": "circular"}`,
		`{"attack_seconds": -1}`,
		`{"min_pitch": 90, "max_pitch": 40}`,
		`{"latent_dims": 0}`,
		`{"note_duration": 0}`,
		`not json`,
	}
	for _, c := range cases {
		path := writeSettings(t, c)
		if _, err := LoadJSON(path); err == nil {
			t.Fatalf("expected error for %s", c)
		}
	}
}

func TestSynthConfigMirrorsSettings(t *testing.T) {
	s := NewDefaultSettings()
	s.SampleRate = 32000
	s.LatentDims = 12
	cfg := s.SynthConfig()
	if cfg.SampleRate != 32000 || cfg.LatentDims != 12 {
		t.Fatalf("synth config = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("derived config invalid: %v", err)
	}
}
