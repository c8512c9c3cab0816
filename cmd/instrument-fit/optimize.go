package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/cwbudde/algo-render/analysis"
	"github.com/cwbudde/algo-render/synth"
	"github.com/cwbudde/mayfly"
)

// Latent components are drawn from a standard normal, so a symmetric range a
// few sigmas wide covers the useful search space.
const latentRange = 3.0

type optimizationConfig struct {
	reference     []float64
	generator     *synth.Modal
	pitch         int
	dims          int
	sampleRate    int
	seed          int64
	timeBudget    float64
	maxEvals      int
	reportEvery   int
	mayflyVariant string
	mayflyPop     int
	roundEvals    int
}

type optimizationResult struct {
	best        []float64
	bestMetrics analysis.Metrics
	bestAudio   []float64
	evals       int
	rounds      int
	elapsed     float64
}

func runOptimization(cfg *optimizationConfig) (*optimizationResult, error) {
	start := time.Now()
	deadline := start.Add(time.Duration(cfg.timeBudget * float64(time.Second)))

	best := make([]float64, cfg.dims)
	bestAudio, err := cfg.generator.Generate(best, cfg.pitch)
	if err != nil {
		return nil, fmt.Errorf("initial render: %w", err)
	}
	bestMetrics := analysis.Compare(cfg.reference, bestAudio, cfg.sampleRate)
	fmt.Printf("Start score=%.4f similarity=%.2f%%\n", bestMetrics.Score, bestMetrics.Similarity*100.0)

	evals := 1
	rounds := 0
	for {
		if time.Now().After(deadline) || evals >= cfg.maxEvals {
			break
		}
		rounds++

		remaining := cfg.maxEvals - evals
		budget := minInt(cfg.roundEvals, remaining)
		iters := maxInt(1, budget/(2*cfg.mayflyPop))

		mayflyConfig, err := newMayflyConfig(cfg.mayflyVariant, cfg.mayflyPop, cfg.dims, iters)
		if err != nil {
			return nil, err
		}
		mayflyConfig.Rand = rand.New(rand.NewSource(cfg.seed + int64(rounds)*7919))
		mayflyConfig.ObjectiveFunc = func(pos []float64) float64 {
			if time.Now().After(deadline) || evals >= cfg.maxEvals {
				return bestMetrics.Score + 1.0
			}
			evals++

			z := fromNormalized(pos)
			audio, err := cfg.generator.Generate(z, cfg.pitch)
			if err != nil {
				return bestMetrics.Score + 0.8
			}
			m := analysis.Compare(cfg.reference, audio, cfg.sampleRate)
			if m.Score < bestMetrics.Score {
				best = append(best[:0], z...)
				bestMetrics = m
				bestAudio = audio
				fmt.Printf("Improved eval=%d score=%.4f sim=%.2f%%\n", evals, m.Score, m.Similarity*100.0)
			}
			if cfg.reportEvery > 0 && evals%cfg.reportEvery == 0 {
				fmt.Printf("Progress eval=%d/%d elapsed=%.1fs best=%.4f\n", evals, cfg.maxEvals, time.Since(start).Seconds(), bestMetrics.Score)
			}
			return m.Score
		}

		if _, err := runMayfly(mayflyConfig); err != nil {
			fmt.Fprintf(os.Stderr, "mayfly round %d failed: %v\n", rounds, err)
		}
	}

	return &optimizationResult{
		best:        best,
		bestMetrics: bestMetrics,
		bestAudio:   bestAudio,
		evals:       evals,
		rounds:      rounds,
		elapsed:     time.Since(start).Seconds(),
	}, nil
}

// fromNormalized maps the optimizer's [0,1] position to latent space.
func fromNormalized(pos []float64) []float64 {
	z := make([]float64, len(pos))
	for i, p := range pos {
		z[i] = (clamp01(p)*2.0 - 1.0) * latentRange
	}
	return z
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = maxInt(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
