// Package preset loads renderer settings from JSON files.
package preset

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cwbudde/algo-render/clip"
	"github.com/cwbudde/algo-render/fx"
	"github.com/cwbudde/algo-render/score"
	"github.com/cwbudde/algo-render/synth"
)

// Settings gathers everything the render commands need to know.
type Settings struct {
	SampleRate      int
	ConvolutionMode fx.Mode

	Envelope clip.EnvelopeOptions

	MinPitch uint8
	MaxPitch uint8

	SecondsPerInstrument float64
	LatentDims           int
	Seed                 int64
	NoteDuration         float64
	Partials             int
}

// NewDefaultSettings returns the defaults the original demo used.
func NewDefaultSettings() *Settings {
	return &Settings{
		SampleRate:           16000,
		ConvolutionMode:      fx.ModeFull,
		Envelope:             clip.DefaultEnvelopeOptions(),
		MinPitch:             score.DefaultMinPitch,
		MaxPitch:             score.DefaultMaxPitch,
		SecondsPerInstrument: 5.0,
		LatentDims:           8,
		Seed:                 1,
		NoteDuration:         4.0,
		Partials:             24,
	}
}

// SynthConfig derives the instrument configuration from the settings.
func (s *Settings) SynthConfig() synth.Config {
	return synth.Config{
		SampleRate:    s.SampleRate,
		NoteDuration:  s.NoteDuration,
		Partials:      s.Partials,
		LatentDims:    s.LatentDims,
		Seed:          s.Seed,
		NormalizePeak: 0.9,
	}
}

// FXConfig derives the convolver configuration from the settings.
func (s *Settings) FXConfig() fx.Config {
	return fx.Config{SampleRate: s.SampleRate, Mode: s.ConvolutionMode}
}

// File is the JSON schema for render settings. Absent fields keep their
// defaults.
type File struct {
	SampleRate      *int    `json:"sample_rate"`
	ConvolutionMode *string `json:"convolution_mode"`

	AttackSeconds  *float64 `json:"attack_seconds"`
	ReleaseSeconds *float64 `json:"release_seconds"`
	MaxNoteLength  *float64 `json:"max_note_length"`

	MinPitch *int `json:"min_pitch"`
	MaxPitch *int `json:"max_pitch"`

	SecondsPerInstrument *float64 `json:"seconds_per_instrument"`
	LatentDims           *int     `json:"latent_dims"`
	Seed                 *int64   `json:"seed"`
	NoteDuration         *float64 `json:"note_duration"`
	Partials             *int     `json:"partials"`
}

// LoadJSON loads a settings file and applies it on top of the defaults.
func LoadJSON(path string) (*Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}

	s := NewDefaultSettings()
	if err := ApplyFile(s, &f); err != nil {
		return nil, err
	}
	return s, nil
}

// ApplyFile applies a parsed settings file onto existing settings.
func ApplyFile(dst *Settings, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination settings")
	}
	if f == nil {
		return nil
	}

	if f.SampleRate != nil {
		if *f.SampleRate < 8000 {
			return fmt.Errorf("sample_rate must be >= 8000")
		}
		dst.SampleRate = *f.SampleRate
	}
	if f.ConvolutionMode != nil {
		mode, err := fx.ParseMode(*f.ConvolutionMode)
		if err != nil {
			return fmt.Errorf("convolution_mode: %w", err)
		}
		dst.ConvolutionMode = mode
	}

	if f.AttackSeconds != nil {
		if *f.AttackSeconds < 0 {
			return fmt.Errorf("attack_seconds must be >= 0")
		}
		dst.Envelope.Attack = *f.AttackSeconds
	}
	if f.ReleaseSeconds != nil {
		if *f.ReleaseSeconds < 0 {
			return fmt.Errorf("release_seconds must be >= 0")
		}
		dst.Envelope.Release = *f.ReleaseSeconds
	}
	if f.MaxNoteLength != nil {
		if *f.MaxNoteLength <= 0 {
			return fmt.Errorf("max_note_length must be > 0")
		}
		dst.Envelope.MaxNoteLength = *f.MaxNoteLength
	}

	if f.MinPitch != nil {
		if *f.MinPitch < 0 || *f.MinPitch > 127 {
			return fmt.Errorf("min_pitch must be in 0..127")
		}
		dst.MinPitch = uint8(*f.MinPitch)
	}
	if f.MaxPitch != nil {
		if *f.MaxPitch < 0 || *f.MaxPitch > 127 {
			return fmt.Errorf("max_pitch must be in 0..127")
		}
		dst.MaxPitch = uint8(*f.MaxPitch)
	}
	if dst.MinPitch > dst.MaxPitch {
		return fmt.Errorf("min_pitch %d exceeds max_pitch %d", dst.MinPitch, dst.MaxPitch)
	}

	if f.SecondsPerInstrument != nil {
		if *f.SecondsPerInstrument <= 0 {
			return fmt.Errorf("seconds_per_instrument must be > 0")
		}
		dst.SecondsPerInstrument = *f.SecondsPerInstrument
	}
	if f.LatentDims != nil {
		if *f.LatentDims < 1 {
			return fmt.Errorf("latent_dims must be >= 1")
		}
		dst.LatentDims = *f.LatentDims
	}
	if f.Seed != nil {
		dst.Seed = *f.Seed
	}
	if f.NoteDuration != nil {
		if *f.NoteDuration <= 0 {
			return fmt.Errorf("note_duration must be > 0")
		}
		dst.NoteDuration = *f.NoteDuration
	}
	if f.Partials != nil {
		if *f.Partials < 1 {
			return fmt.Errorf("partials must be >= 1")
		}
		dst.Partials = *f.Partials
	}
	return nil
}
