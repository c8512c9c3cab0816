package fx

import (
	"fmt"
	"strings"

	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"
	"github.com/cwbudde/algo-dsp/dsp/dither"
)

// Mode selects the portion of the convolution result to keep.
type Mode int

const (
	// ModeFull keeps the complete result of length dry+fx-1.
	ModeFull Mode = iota

	// ModeSame keeps a centered result with the dry signal's length.
	ModeSame

	// ModeValid keeps only the fully-overlapping portion.
	ModeValid
)

// ParseMode maps a mode name ("full", "same", "valid") onto a Mode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "full":
		return ModeFull, nil
	case "same":
		return ModeSame, nil
	case "valid":
		return ModeValid, nil
	default:
		return 0, fmt.Errorf("fx: unknown convolution mode %q", name)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeSame:
		return "same"
	case ModeValid:
		return "valid"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

func (m Mode) dsp() (dspconv.Mode, error) {
	switch m {
	case ModeFull:
		return dspconv.ModeFull, nil
	case ModeSame:
		return dspconv.ModeSame, nil
	case ModeValid:
		return dspconv.ModeValid, nil
	default:
		return 0, fmt.Errorf("fx: unknown convolution mode %q", m)
	}
}

// Config carries the explicit convolver settings.
type Config struct {
	SampleRate int
	Mode       Mode
	BitDepth   int // PCM output depth; 0 means 16
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	if _, err := c.Mode.dsp(); err != nil {
		return err
	}
	if c.BitDepth < 0 || c.BitDepth > 32 {
		return fmt.Errorf("fx: bit depth must be in [1, 32]: %d", c.BitDepth)
	}
	return nil
}

func (c Config) bitDepth() int {
	if c.BitDepth == 0 {
		return 16
	}
	return c.BitDepth
}

// PCMSignal is quantized integer audio.
type PCMSignal struct {
	SampleRate int
	BitDepth   int
	Channels   [][]int
}

// Frames returns the per-channel sample count.
func (p PCMSignal) Frames() int {
	if len(p.Channels) == 0 {
		return 0
	}
	return len(p.Channels[0])
}

// Convolve convolves the dry signal with one fx signal and returns the
// normalized floating-point result.
//
// Both inputs are resampled to the configured rate first. If either input is
// mono, both are downmixed to mono and peak-normalized; otherwise both keep
// their channels and are sum-normalized. The per-channel convolution result is
// sum-normalized for multi-channel output and peak-normalized for mono.
func Convolve(dry, fxSig Signal, cfg Config) (Signal, error) {
	if err := cfg.Validate(); err != nil {
		return Signal{}, err
	}
	if err := dry.Validate(); err != nil {
		return Signal{}, err
	}
	if err := fxSig.Validate(); err != nil {
		return Signal{}, err
	}
	mode, err := cfg.Mode.dsp()
	if err != nil {
		return Signal{}, err
	}

	dry, err = dry.Resampled(cfg.SampleRate)
	if err != nil {
		return Signal{}, err
	}
	fxSig, err = fxSig.Resampled(cfg.SampleRate)
	if err != nil {
		return Signal{}, err
	}

	strategy := Sum
	if dry.IsMono() || fxSig.IsMono() {
		dry = dry.Downmix()
		fxSig = fxSig.Downmix()
		strategy = Peak
	}
	dry, err = Normalize(dry, strategy)
	if err != nil {
		return Signal{}, err
	}
	fxSig, err = Normalize(fxSig, strategy)
	if err != nil {
		return Signal{}, err
	}

	wet := Signal{SampleRate: cfg.SampleRate, Channels: make([][]float64, dry.NumChannels())}
	for c, dryCh := range dry.Channels {
		fxCh := fxSig.Channels[min(c, fxSig.NumChannels()-1)]
		out, err := dspconv.ConvolveMode(dryCh, fxCh, mode)
		if err != nil {
			return Signal{}, fmt.Errorf("fx: convolve channel %d: %w", c, err)
		}
		wet.Channels[c] = out
	}

	outStrategy := Peak
	if !wet.IsMono() {
		outStrategy = Sum
	}
	return Normalize(wet, outStrategy)
}

// Encode quantizes a floating-point signal (expected in [-1, 1]) to integer
// PCM using triangular-dithered quantization.
func Encode(s Signal, bitDepth int) (PCMSignal, error) {
	if err := s.Validate(); err != nil {
		return PCMSignal{}, err
	}
	out := PCMSignal{
		SampleRate: s.SampleRate,
		BitDepth:   bitDepth,
		Channels:   make([][]int, len(s.Channels)),
	}
	for c, ch := range s.Channels {
		q, err := dither.NewQuantizer(float64(s.SampleRate), dither.WithBitDepth(bitDepth))
		if err != nil {
			return PCMSignal{}, err
		}
		pcm := make([]int, len(ch))
		for i, v := range ch {
			pcm[i] = q.ProcessInteger(v)
		}
		out.Channels[c] = pcm
	}
	return out, nil
}

// ApplyOne convolves the dry signal with a single fx signal and PCM-encodes
// the result.
func ApplyOne(dry, fxSig Signal, cfg Config) (PCMSignal, error) {
	wet, err := Convolve(dry, fxSig, cfg)
	if err != nil {
		return PCMSignal{}, err
	}
	return Encode(wet, cfg.bitDepth())
}

// Apply produces one wet PCM signal per fx signal, preserving input order.
// A dry signal with zero frames yields an empty result without running any
// convolution.
func Apply(dry Signal, fxs []Signal, cfg Config) ([]PCMSignal, error) {
	wet := make([]PCMSignal, 0, len(fxs))
	if dry.Frames() == 0 {
		return wet, nil
	}
	for i, fxSig := range fxs {
		one, err := ApplyOne(dry, fxSig, cfg)
		if err != nil {
			return nil, fmt.Errorf("fx: apply fx %d: %w", i, err)
		}
		wet = append(wet, one)
	}
	return wet, nil
}
