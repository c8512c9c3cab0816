// Package wavio reads and writes WAV files for the renderer commands.
package wavio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"

	"github.com/cwbudde/algo-render/fx"
)

// ReadSignal reads a WAV file into a multi-channel signal.
func ReadSignal(path string) (fx.Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return fx.Signal{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return fx.Signal{}, fmt.Errorf("wavio: invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return fx.Signal{}, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return fx.Signal{}, fmt.Errorf("wavio: invalid wav buffer: %s", path)
	}
	if buf.Format.SampleRate <= 0 {
		return fx.Signal{}, fmt.Errorf("wavio: invalid wav sample-rate: %d", buf.Format.SampleRate)
	}

	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	channels := make([][]float64, ch)
	for c := 0; c < ch; c++ {
		channels[c] = make([]float64, frames)
		for i := 0; i < frames; i++ {
			channels[c][i] = float64(buf.Data[i*ch+c])
		}
	}
	return fx.Signal{SampleRate: buf.Format.SampleRate, Channels: channels}, nil
}

// ReadMono reads a WAV file downmixed to a single channel, returning the
// samples and the file's sample rate.
func ReadMono(path string) ([]float64, int, error) {
	s, err := ReadSignal(path)
	if err != nil {
		return nil, 0, err
	}
	if s.Frames() == 0 {
		return nil, 0, fmt.Errorf("wavio: empty wav data: %s", path)
	}
	return s.Downmix().Channels[0], s.SampleRate, nil
}

// WriteMono writes a single channel of float samples as 16-bit PCM.
func WriteMono(path string, data []float64, sampleRate int) error {
	return writeFloat32(path, toFloat32(data), sampleRate, 1)
}

// WriteStereoLR writes left/right channels as interleaved 16-bit PCM.
func WriteStereoLR(path string, left []float64, right []float64, sampleRate int) error {
	if len(left) != len(right) {
		return fmt.Errorf("wavio: left/right length mismatch: %d vs %d", len(left), len(right))
	}
	data := make([]float32, len(left)*2)
	for i := range left {
		data[i*2] = float32(left[i])
		data[i*2+1] = float32(right[i])
	}
	return writeFloat32(path, data, sampleRate, 2)
}

// WriteSignal writes a float signal with its own channel count.
func WriteSignal(path string, s fx.Signal) error {
	if err := s.Validate(); err != nil {
		return err
	}
	inter := s.Interleaved()
	return writeFloat32(path, toFloat32(inter), s.SampleRate, s.NumChannels())
}

// WritePCM writes quantized integer samples, rescaling to the encoder's
// float representation.
func WritePCM(path string, p fx.PCMSignal) error {
	if len(p.Channels) == 0 {
		return fmt.Errorf("wavio: pcm signal has no channels")
	}
	depth := p.BitDepth
	if depth <= 0 || depth > 32 {
		return fmt.Errorf("wavio: invalid pcm bit depth: %d", depth)
	}
	scale := 1.0 / math.Exp2(float64(depth-1))

	ch := len(p.Channels)
	frames := p.Frames()
	data := make([]float32, frames*ch)
	for c, samples := range p.Channels {
		if len(samples) != frames {
			return fmt.Errorf("wavio: ragged pcm channels")
		}
		for i, v := range samples {
			data[i*ch+c] = float32(float64(v) * scale)
		}
	}
	return writeFloat32(path, data, p.SampleRate, ch)
}

func writeFloat32(path string, data []float32, sampleRate int, numChannels int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, numChannels, 1)
	defer enc.Close()

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: numChannels,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	return enc.Write(buf)
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
