package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-render/clip"
	"github.com/cwbudde/algo-render/internal/wavio"
	"github.com/cwbudde/algo-render/preset"
	"github.com/cwbudde/algo-render/score"
	"github.com/cwbudde/algo-render/synth"
)

func main() {
	midiPath := flag.String("midi", "", "Input MIDI file path")
	outputDir := flag.String("output", "out/clip", "Output directory")
	settingsPath := flag.String("settings", "", "Settings JSON path (optional)")
	seed := flag.Int64("seed", 0, "Random seed override (0 keeps the settings seed)")
	stretch := flag.Float64("stretch", 0, "Also render a time-stretched pass with this factor (e.g. 1.3)")
	preview := flag.Int("preview", 0, "Render N random instruments at middle C instead of the clip")
	flag.Parse()

	settings := preset.NewDefaultSettings()
	if *settingsPath != "" {
		loaded, err := preset.LoadJSON(*settingsPath)
		if err != nil {
			die("failed to load settings %q: %v", *settingsPath, err)
		}
		settings = loaded
	}
	if *seed != 0 {
		settings.Seed = *seed
	}

	gen, err := synth.NewModal(settings.SynthConfig())
	if err != nil {
		die("failed to build instrument model: %v", err)
	}
	rng := rand.New(rand.NewSource(settings.Seed))

	if *preview > 0 {
		if err := renderPreview(gen, rng, *preview, settings, *outputDir); err != nil {
			die("preview failed: %v", err)
		}
		return
	}

	if *midiPath == "" {
		die("MIDI input path is required (-midi)")
	}
	notes, err := score.FromSMF(*midiPath, settings.MinPitch, settings.MaxPitch)
	if err != nil {
		die("failed to load MIDI %q: %v", *midiPath, err)
	}
	if len(notes) == 0 {
		die("no notes in pitch range %d..%d in %q", settings.MinPitch, settings.MaxPitch, *midiPath)
	}
	end := score.EndTime(notes)
	fmt.Printf("Loaded %d notes from %q spanning %.2fs\n", len(notes), *midiPath, end)

	zs, ts, err := synth.RandomInstruments(rng, end, settings.SecondsPerInstrument, settings.LatentDims)
	if err != nil {
		die("failed to draw instruments: %v", err)
	}
	fmt.Printf("Drew %d instruments over the timeline (seed %d)\n", len(zs), settings.Seed)

	outPath := filepath.Join(*outputDir, "generated_clip.wav")
	if err := renderClip(gen, notes, zs, ts, settings, outPath); err != nil {
		die("render failed: %v", err)
	}

	if *stretch > 0 {
		stretched := score.Stretch(notes, *stretch)
		sEnd := score.EndTime(stretched)
		// Hand-picked instrument sequence for the second pass: revisit the
		// first instrument at the end of the stretched timeline.
		picks := []int{0, 2 % len(zs), 4 % len(zs), 0}
		zs2 := make([][]float64, len(picks))
		for i, p := range picks {
			zs2[i] = zs[p]
		}
		ts2 := []float64{-0.001 * sEnd, 0.3 * sEnd, 0.6 * sEnd, sEnd}

		outPath2 := filepath.Join(*outputDir, "generated_clip_2.wav")
		if err := renderClip(gen, stretched, zs2, ts2, settings, outPath2); err != nil {
			die("stretched render failed: %v", err)
		}
	}
}

func renderClip(gen synth.Generator, notes []score.Note, zs [][]float64, ts []float64, settings *preset.Settings, outPath string) error {
	latents, err := synth.LatentsForNotes(score.StartTimes(notes), zs, ts)
	if err != nil {
		return fmt.Errorf("latent assignment: %w", err)
	}

	pitches := make([]int, len(notes))
	for i, n := range notes {
		pitches[i] = int(n.Pitch)
	}
	audioNotes, err := gen.GenerateBatch(latents, pitches)
	if err != nil {
		return fmt.Errorf("synthesis: %w", err)
	}

	mixed, err := clip.Combine(audioNotes, notes, settings.SampleRate, settings.Envelope)
	if err != nil {
		return fmt.Errorf("mix: %w", err)
	}
	if err := wavio.WriteMono(outPath, mixed, settings.SampleRate); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d frames, %.2fs)\n", outPath, len(mixed), float64(len(mixed))/float64(settings.SampleRate))
	return nil
}

func renderPreview(gen synth.Generator, rng *rand.Rand, count int, settings *preset.Settings, outputDir string) error {
	const previewPitch = 60
	for i := 0; i < count; i++ {
		z := make([]float64, settings.LatentDims)
		for d := range z {
			z[d] = rng.NormFloat64()
		}
		audio, err := gen.Generate(z, previewPitch)
		if err != nil {
			return fmt.Errorf("instrument %d: %w", i+1, err)
		}
		outPath := filepath.Join(outputDir, fmt.Sprintf("instrument_%02d.wav", i+1))
		if err := wavio.WriteMono(outPath, audio, settings.SampleRate); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", outPath)
	}
	return nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
