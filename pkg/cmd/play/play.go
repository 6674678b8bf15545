// Package play plays a local file with a live frequency visualization,
// after running it through the analysis session.
package play

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sjokstudio/sjok-2025/pkg/audioai"
	"github.com/sjokstudio/sjok-2025/pkg/audiograph"
	"github.com/sjokstudio/sjok-2025/pkg/cmd/analyze"
	"github.com/sjokstudio/sjok-2025/pkg/session"
	"github.com/sjokstudio/sjok-2025/pkg/spectrum"
)

type Config struct {
	Debug        bool
	Input        string
	SkipAnalysis bool

	Key   string
	Model string
	Host  string
}

// Run drives one full session for the input file, then opens the playback
// window. Playback controls only exist once analysis has completed.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.Input == "" {
		return fmt.Errorf("play: missing input file")
	}
	mediaType := analyze.MediaType(cfg.Input)
	locator := cfg.Input

	var result *audioai.Analysis
	if !cfg.SkipAnalysis {
		if cfg.Key == "" {
			return fmt.Errorf("play: missing analyzer key")
		}
		sess, snap, err := analyzeFile(ctx, cfg, mediaType)
		if err != nil {
			return err
		}
		// The session owns the playable locator; keep it alive until
		// playback ends.
		defer sess.Close()
		if snap.State == session.Errored {
			return fmt.Errorf("play: analysis failed: %s", snap.Error)
		}
		result = snap.Result
		if playable, _, ok := sess.Playable(); ok {
			locator = playable
		}
		log.Printf("play: %d BPM, %s, %s\n", result.BPM, result.Key, result.Mood)
	}

	graph, err := audiograph.Open(locator, mediaType)
	if err != nil {
		// Graph failure leaves the analysis result intact; there is just
		// nothing to play.
		if errors.Is(err, audiograph.ErrGraphConstruction) {
			log.Println("play: playback unavailable:", err)
			return nil
		}
		return err
	}
	defer graph.Close()

	surface := spectrum.NewImageSurface()
	loop := spectrum.NewLoop(graph.Tap(), spectrum.NewRenderer(surface))
	defer loop.Stop()

	g := &game{
		graph:   graph,
		loop:    loop,
		surface: surface,
		frame:   image.NewRGBA(image.Rect(0, 0, spectrum.CanvasWidth, spectrum.CanvasHeight)),
		result:  result,
	}
	g.setPlaying(true)

	ebiten.SetWindowSize(spectrum.CanvasWidth, 2*spectrum.CanvasHeight)
	ebiten.SetWindowTitle(fmt.Sprintf("sjok - %s", cfg.Input))
	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	return nil
}

// analyzeFile runs the session pipeline for the input and waits for the
// outcome. The caller closes the returned session once playback is over.
func analyzeFile(ctx context.Context, cfg *Config, mediaType string) (*session.Session, session.Snapshot, error) {
	analyzer := audioai.New(&audioai.Config{
		Debug: cfg.Debug,
		Token: cfg.Key,
		Model: cfg.Model,
		Host:  cfg.Host,
	})
	sess, err := session.New(&session.Config{Debug: cfg.Debug, Analyzer: analyzer})
	if err != nil {
		return nil, session.Snapshot{}, fmt.Errorf("play: %w", err)
	}

	info, err := os.Stat(cfg.Input)
	if err != nil {
		sess.Close()
		return nil, session.Snapshot{}, fmt.Errorf("play: couldn't stat input: %w", err)
	}
	f, err := os.Open(cfg.Input)
	if err != nil {
		sess.Close()
		return nil, session.Snapshot{}, fmt.Errorf("play: couldn't open input: %w", err)
	}
	defer f.Close()

	log.Println("play: analyzing", cfg.Input)
	if err := sess.Select(ctx, cfg.Input, info.Size(), mediaType, f); err != nil {
		sess.Close()
		return nil, session.Snapshot{}, err
	}
	snap, err := sess.Wait(ctx)
	if err != nil {
		sess.Close()
		return nil, session.Snapshot{}, fmt.Errorf("play: %w", err)
	}
	return sess, snap, nil
}

// game is the ebiten shell around the graph, the render loop and the canvas.
type game struct {
	graph   *audiograph.Graph
	loop    *spectrum.Loop
	surface *spectrum.ImageSurface
	frame   *image.RGBA
	playing bool
	result  *audioai.Analysis
}

func (g *game) setPlaying(playing bool) {
	g.playing = playing
	g.graph.SetPlaying(playing)
	if playing {
		g.loop.Start(spectrum.DefaultInterval)
		return
	}
	g.loop.Stop()
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.setPlaying(!g.playing)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.surface.Snapshot(g.frame)
	screen.WritePixels(g.frame.Pix)

	status := "playing (space pauses, esc quits)"
	if !g.playing {
		status = "paused (space resumes, esc quits)"
	}
	if g.result != nil {
		status = fmt.Sprintf("%d BPM  %s  %s\n%s", g.result.BPM, g.result.Key, g.result.Mood, status)
	}
	ebitenutil.DebugPrint(screen, status)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return spectrum.CanvasWidth, spectrum.CanvasHeight
}
