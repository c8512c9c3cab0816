package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-render/fx"
	"github.com/cwbudde/algo-render/internal/wavio"
)

func main() {
	dryPath := flag.String("dry", "", "Dry input WAV path")
	fxList := flag.String("fx", "", "Comma-separated impulse-response WAV paths")
	sampleRate := flag.Int("sample-rate", 16000, "Processing sample rate in Hz")
	mode := flag.String("mode", "full", "Convolution mode: full|same|valid")
	bitDepth := flag.Int("bit-depth", 16, "PCM bit depth for quantization")
	outputDir := flag.String("output", "out/fx", "Output directory for processed WAVs")
	flag.Parse()

	if *dryPath == "" {
		die("dry input path is required (-dry)")
	}
	if *fxList == "" {
		die("at least one impulse response is required (-fx)")
	}

	convMode, err := fx.ParseMode(*mode)
	if err != nil {
		die("invalid mode: %v", err)
	}
	cfg := fx.Config{SampleRate: *sampleRate, Mode: convMode, BitDepth: *bitDepth}
	if err := cfg.Validate(); err != nil {
		die("invalid configuration: %v", err)
	}

	dry, err := wavio.ReadSignal(*dryPath)
	if err != nil {
		die("failed to read dry input %q: %v", *dryPath, err)
	}

	fxPaths := splitPaths(*fxList)
	fxSignals := make([]fx.Signal, 0, len(fxPaths))
	for _, p := range fxPaths {
		s, err := wavio.ReadSignal(p)
		if err != nil {
			die("failed to read impulse response %q: %v", p, err)
		}
		fxSignals = append(fxSignals, s)
	}

	fmt.Printf("Convolving %q (%d frames, %d ch) with %d impulse responses at %d Hz (%s)...\n",
		*dryPath, dry.Frames(), dry.NumChannels(), len(fxSignals), *sampleRate, convMode)

	wet, err := fx.Apply(dry, fxSignals, cfg)
	if err != nil {
		die("convolution failed: %v", err)
	}

	base := strings.TrimSuffix(filepath.Base(*dryPath), filepath.Ext(*dryPath))
	for i, p := range wet {
		fxBase := strings.TrimSuffix(filepath.Base(fxPaths[i]), filepath.Ext(fxPaths[i]))
		outPath := filepath.Join(*outputDir, fmt.Sprintf("%s_%s.wav", base, fxBase))
		if err := wavio.WritePCM(outPath, p); err != nil {
			die("failed to write %q: %v", outPath, err)
		}
		fmt.Printf("Wrote %s (%d frames)\n", outPath, p.Frames())
	}
}

func splitPaths(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
