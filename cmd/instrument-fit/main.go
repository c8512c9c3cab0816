package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-render/fx"
	"github.com/cwbudde/algo-render/internal/wavio"
	"github.com/cwbudde/algo-render/preset"
	"github.com/cwbudde/algo-render/synth"
)

type fitReport struct {
	ReferencePath string    `json:"reference_path"`
	Pitch         int       `json:"pitch"`
	SampleRate    int       `json:"sample_rate"`
	Variant       string    `json:"variant"`
	Evals         int       `json:"evals"`
	Rounds        int       `json:"rounds"`
	ElapsedS      float64   `json:"elapsed_s"`
	Score         float64   `json:"score"`
	Similarity    float64   `json:"similarity"`
	BestLatent    []float64 `json:"best_latent"`
}

func main() {
	referencePath := flag.String("reference", "", "Reference WAV path")
	settingsPath := flag.String("settings", "", "Settings JSON path (optional)")
	pitch := flag.Int("pitch", 60, "MIDI pitch of the reference note")
	outputWAV := flag.String("output-wav", "out/fit/fitted.wav", "Path to write the best render")
	reportPath := flag.String("report", "out/fit/fitted.report.json", "Path to write the fit report JSON")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 60.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 4000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 50, "Print progress every N evaluations")
	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	roundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	flag.Parse()

	if *referencePath == "" {
		die("reference WAV path is required (-reference)")
	}
	if *pitch < 0 || *pitch > 127 {
		die("pitch must be in 0..127")
	}
	if *maxEvals < 1 {
		die("max-evals must be >= 1")
	}
	if *timeBudget <= 0 {
		die("time-budget must be > 0")
	}
	if *mayflyPop < 2 {
		*mayflyPop = 2
	}
	if *roundEvals < *mayflyPop*2 {
		*roundEvals = *mayflyPop * 2
	}

	settings := preset.NewDefaultSettings()
	if *settingsPath != "" {
		loaded, err := preset.LoadJSON(*settingsPath)
		if err != nil {
			die("failed to load settings %q: %v", *settingsPath, err)
		}
		settings = loaded
	}

	gen, err := synth.NewModal(settings.SynthConfig())
	if err != nil {
		die("failed to build instrument model: %v", err)
	}

	ref, refSR, err := wavio.ReadMono(*referencePath)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	if refSR != settings.SampleRate {
		resampled, err := fx.NewMono(ref, refSR).Resampled(settings.SampleRate)
		if err != nil {
			die("failed to resample reference: %v", err)
		}
		ref = resampled.Channels[0]
	}

	variant := strings.ToLower(*mayflyVariant)
	fmt.Printf("Fitting pitch %d against %q (%d dims, variant %s)...\n", *pitch, *referencePath, settings.LatentDims, variant)

	result, err := runOptimization(&optimizationConfig{
		reference:     ref,
		generator:     gen,
		pitch:         *pitch,
		dims:          settings.LatentDims,
		sampleRate:    settings.SampleRate,
		seed:          *seed,
		timeBudget:    *timeBudget,
		maxEvals:      *maxEvals,
		reportEvery:   *reportEvery,
		mayflyVariant: variant,
		mayflyPop:     *mayflyPop,
		roundEvals:    *roundEvals,
	})
	if err != nil {
		die("optimization failed: %v", err)
	}

	if err := wavio.WriteMono(*outputWAV, result.bestAudio, settings.SampleRate); err != nil {
		die("failed to write best render: %v", err)
	}
	if err := writeReport(*reportPath, fitReport{
		ReferencePath: *referencePath,
		Pitch:         *pitch,
		SampleRate:    settings.SampleRate,
		Variant:       variant,
		Evals:         result.evals,
		Rounds:        result.rounds,
		ElapsedS:      result.elapsed,
		Score:         result.bestMetrics.Score,
		Similarity:    result.bestMetrics.Similarity,
		BestLatent:    result.best,
	}); err != nil {
		die("failed to write report: %v", err)
	}

	fmt.Printf("Done evals=%d elapsed=%.1fs best_score=%.4f best_similarity=%.2f%%\n",
		result.evals, result.elapsed, result.bestMetrics.Score, result.bestMetrics.Similarity*100.0)
}

func writeReport(path string, rep fitReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
