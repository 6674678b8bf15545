package analyze

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/sjokstudio/sjok-2025/pkg/audioai"
	"github.com/sjokstudio/sjok-2025/pkg/encode"
	"github.com/sjokstudio/sjok-2025/pkg/sound"
)

type Config struct {
	Debug  bool
	Input  string
	Output string
	Plot   bool

	Key   string
	Model string
	Host  string
}

// Run analyzes a single local file and prints the result.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.Input == "" {
		return fmt.Errorf("analyze: missing input file")
	}
	if cfg.Key == "" {
		return fmt.Errorf("analyze: missing analyzer key")
	}

	info, err := os.Stat(cfg.Input)
	if err != nil {
		return fmt.Errorf("analyze: couldn't stat input: %w", err)
	}
	mediaType := MediaType(cfg.Input)

	f, err := os.Open(cfg.Input)
	if err != nil {
		return fmt.Errorf("analyze: couldn't open input: %w", err)
	}
	payload, err := encode.Payload(info.Size(), mediaType, f)
	f.Close()
	if err != nil {
		return err
	}

	client := audioai.New(&audioai.Config{
		Debug: cfg.Debug,
		Token: cfg.Key,
		Model: cfg.Model,
		Host:  cfg.Host,
	})
	analysis, err := client.Analyze(ctx, payload, mediaType)
	if err != nil {
		return err
	}

	fmt.Printf("Tempo: %d BPM\n", analysis.BPM)
	fmt.Printf("Key: %s\n", analysis.Key)
	fmt.Printf("Mood: %s\n", analysis.Mood)
	fmt.Printf("%s\n", analysis.Explanation)

	if !cfg.Plot {
		return nil
	}
	return writePlots(cfg.Input, cfg.Output)
}

// writePlots renders local waveform and RMS plots next to the remote result.
func writePlots(input, output string) error {
	a, err := sound.NewAnalyzer(input)
	if err != nil {
		return err
	}
	name := filepath.Base(input)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if output == "" {
		output = "."
	}
	out := filepath.Join(output, name)

	wave, err := a.PlotWave()
	if err != nil {
		return err
	}
	if err := os.WriteFile(out+"-wave.png", wave, 0644); err != nil {
		return fmt.Errorf("analyze: couldn't write plot: %w", err)
	}
	rms, err := a.PlotRMS()
	if err != nil {
		return err
	}
	if err := os.WriteFile(out+"-rms.png", rms, 0644); err != nil {
		return fmt.Errorf("analyze: couldn't write plot: %w", err)
	}
	return nil
}

// MediaType resolves the declared media type of a local file from its
// extension.
func MediaType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	default:
		return mime.TypeByExtension(filepath.Ext(path))
	}
}
