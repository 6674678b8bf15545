// Package sound decodes audio files into normalized samples for offline
// waveform inspection, complementing the remote tempo/key analysis with
// locally computed plots.
package sound

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"time"

	mp3 "github.com/hajimehoshi/go-mp3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

type Analyzer struct {
	stereo   [2][]float64
	mono     []float64
	rate     int
	duration time.Duration
	source   string
}

// NewAnalyzer decodes an MP3 file into normalized samples.
func NewAnalyzer(path string) (*Analyzer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sound: couldn't read file: %w", err)
	}
	decoder, err := mp3.NewDecoder(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("sound: couldn't create decoder: %w", err)
	}

	var stereo [2][]float64 // Assume stereo audio
	buf := make([]byte, 2)  // 2 bytes per sample for 16-bit audio
	var i int
	for {
		_, err := decoder.Read(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("sound: couldn't read sample: %w", err)
		}
		// Convert bytes to 16-bit integer sample, assuming little endian
		sample := int16(buf[0]) | int16(buf[1])<<8
		// Normalize sample to float64 range -1.0 to 1.0
		normalized := float64(sample) / 32768.0
		stereo[i%2] = append(stereo[i%2], normalized)
		i++
	}

	// Convert to mono
	var mono []float64
	for i, left := range stereo[0] {
		right := stereo[1][i]
		mono = append(mono, (left+right)/2.0)
	}

	duration := time.Duration(float64(len(mono)) / float64(decoder.SampleRate()) * float64(time.Second))
	return &Analyzer{
		source:   path,
		stereo:   stereo,
		mono:     mono,
		rate:     decoder.SampleRate(),
		duration: duration,
	}, nil
}

func (a *Analyzer) Source() string {
	return a.source
}

func (a *Analyzer) Duration() time.Duration {
	return a.duration
}

// Resample reduces the mono signal to min/max pairs per window, enough to
// draw a waveform outline.
func (a *Analyzer) Resample(windowSize time.Duration) []float64 {
	samples := a.mono
	windowLength := int(float64(a.rate) * windowSize.Seconds())

	var resampled []float64
	for i := 0; i < len(samples); i += windowLength {
		end := i + windowLength
		if end > len(samples) {
			end = len(samples)
		}
		window := samples[i:end]
		var min, max float64
		for _, v := range window {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		resampled = append(resampled, min)
		resampled = append(resampled, max)
	}
	return resampled
}

func (a *Analyzer) RMS(windowSize time.Duration) []float64 {
	samples := a.mono
	windowLength := int(float64(a.rate) * windowSize.Seconds())

	var rms []float64
	for i := 0; i < len(samples); i += windowLength {
		end := i + windowLength
		if end > len(samples) {
			end = len(samples)
		}
		rms = append(rms, calculateRMS(samples[i:end]))
	}
	return rms
}

func calculateRMS(samples []float64) float64 {
	var squareSum float64
	for _, sample := range samples {
		squareSum += sample * sample
	}
	meanSquare := squareSum / float64(len(samples))
	return math.Sqrt(meanSquare)
}

func (a *Analyzer) PlotRMS() ([]byte, error) {
	window := 50 * time.Millisecond
	rms := a.RMS(window)
	return createPlot("rms", rms, 0, 1, window.Seconds())
}

func (a *Analyzer) PlotWave() ([]byte, error) {
	window := 50 * time.Millisecond
	resampled := a.Resample(window)
	return createPlot("wave", resampled, -1, 1, window.Seconds())
}

func createPlot(name string, data []float64, min, max float64, window float64) ([]byte, error) {
	p := plot.New()

	// Set Y-axis limits
	p.Y.Min = min
	p.Y.Max = max

	d := time.Duration(float64(len(data))*window*0.5) * time.Second
	p.Title.Text = fmt.Sprintf("%s %s", name, d)
	p.X.Label.Text = "time"
	p.Y.Label.Text = name

	l, err := plotter.NewLine(makePoints(data))
	if err != nil {
		return nil, fmt.Errorf("sound: couldn't create line plotter: %w", err)
	}
	l.LineStyle.Width = vg.Points(1)
	l.Color = color.RGBA{R: 0x4a, G: 0xde, B: 0x80, A: 0xff}
	p.Add(l)

	c, err := p.WriterTo(4*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("sound: couldn't create plot: %w", err)
	}
	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("sound: couldn't write plot: %w", err)
	}
	return buf.Bytes(), nil
}

// makePoints converts samples to plotter points.
func makePoints(samples []float64) plotter.XYs {
	pts := make(plotter.XYs, len(samples))
	for i, v := range samples {
		pts[i].X = float64(i)
		pts[i].Y = v
	}
	return pts
}
