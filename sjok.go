package sjok

import (
	"context"
	"fmt"
	"os"

	"github.com/sjokstudio/sjok-2025/pkg/audioai"
	"github.com/sjokstudio/sjok-2025/pkg/cmd/analyze"
	"github.com/sjokstudio/sjok-2025/pkg/encode"
)

type Config struct {
	Debug bool
	Key   string
	Model string
	Host  string
}

// AnalyzeFile runs a one-off tempo/key/mood analysis of a local audio file.
func AnalyzeFile(ctx context.Context, cfg *Config, path string) (*audioai.Analysis, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("sjok: couldn't stat file: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sjok: couldn't open file: %w", err)
	}
	defer f.Close()

	mediaType := analyze.MediaType(path)
	payload, err := encode.Payload(info.Size(), mediaType, f)
	if err != nil {
		return nil, err
	}

	client := audioai.New(&audioai.Config{
		Debug: cfg.Debug,
		Token: cfg.Key,
		Model: cfg.Model,
		Host:  cfg.Host,
	})
	return client.Analyze(ctx, payload, mediaType)
}
