// Package audiograph builds and tears down the live signal path for one
// playable asset: decoder source, transport control, analysis tap and the
// speaker output. At most one graph is open at a time; a graph must be
// closed before a replacement is built.
package audiograph

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// ErrGraphConstruction is returned when the signal path cannot be bound to a
// locator. It is non-fatal to the analysis session; playback simply stays
// unavailable.
var ErrGraphConstruction = errors.New("audiograph: couldn't build audio graph")

type Graph struct {
	mu       sync.Mutex
	streamer beep.StreamSeekCloser
	ctrl     *beep.Ctrl
	tap      *Tap
	format   beep.Format
	closed   bool
}

// Open decodes the asset behind locator and wires source, transport control,
// analysis tap and speaker into a fresh graph. The transport starts paused.
func Open(locator, mediaType string) (*Graph, error) {
	f, err := os.Open(locator)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGraphConstruction, err)
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch mediaType {
	case "audio/mpeg", "audio/mp3":
		streamer, format, err = mp3.Decode(f)
	case "audio/wav", "audio/x-wav", "audio/wave":
		streamer, format, err = wav.Decode(f)
	default:
		f.Close()
		return nil, fmt.Errorf("%w: no decoder for %q", ErrGraphConstruction, mediaType)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrGraphConstruction, err)
	}

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		streamer.Close()
		return nil, fmt.Errorf("%w: %v", ErrGraphConstruction, err)
	}

	ctrl := &beep.Ctrl{Streamer: streamer, Paused: true}
	tap := NewTap(ctrl)
	speaker.Play(tap)

	return &Graph{
		streamer: streamer,
		ctrl:     ctrl,
		tap:      tap,
		format:   format,
	}, nil
}

// Tap exposes the graph's analysis tap for the spectrum renderer.
func (g *Graph) Tap() *Tap {
	return g.tap
}

// SetPlaying resumes the output and starts transport, or pauses transport
// while leaving the graph intact. On a closed graph it is a no-op.
func (g *Graph) SetPlaying(playing bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || g.ctrl == nil {
		return
	}
	if playing {
		// The output may be suspended; resume it before unpausing.
		_ = speaker.Resume()
	}
	speaker.Lock()
	g.ctrl.Paused = !playing
	speaker.Unlock()
}

// Close tears the graph down: halts transport, detaches the source from the
// speaker and closes the decoder. It is idempotent and tolerates a partially
// constructed graph.
func (g *Graph) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	if g.ctrl != nil {
		speaker.Lock()
		g.ctrl.Paused = true
		speaker.Unlock()
		speaker.Clear()
	}
	if g.streamer != nil {
		_ = g.streamer.Close()
	}
}
