// Package spectrum rasterizes frequency magnitude vectors as a bar display
// and drives the per-frame sampling loop while playback is active.
package spectrum

import "image/color"

// Canvas dimensions in logical units; hosts scale to their container.
const (
	CanvasWidth  = 600
	CanvasHeight = 128

	// barGap is the uniform gap between adjacent bars.
	barGap = 1
)

// Surface is a drawing target for one spectrum frame.
type Surface interface {
	Size() (w, h int)
	Clear()
	Bar(x, y, w, h float64)
}

// RoundBarSurface is an optional capability: surfaces that can draw rounded
// bars implement it, others get the plain rectangle fallback.
type RoundBarSurface interface {
	Surface
	RoundBar(x, y, w, h, radius float64)
}

// BarColor is the fill used for spectrum bars.
var BarColor = color.RGBA{R: 0x4a, G: 0xde, B: 0x80, A: 0xff}

// Source provides the current frequency magnitude vector, one byte per bin.
type Source interface {
	Magnitudes() []byte
}

// Renderer rasterizes magnitude vectors onto a surface.
type Renderer struct {
	surface Surface
	round   RoundBarSurface
}

func NewRenderer(s Surface) *Renderer {
	r := &Renderer{surface: s}
	if rb, ok := s.(RoundBarSurface); ok {
		r.round = rb
	}
	return r
}

// Frame draws one complete frame: a full clear, then one bar per bin, left
// to right, height proportional to magnitude, halved for visual scale.
func (r *Renderer) Frame(mags []byte) {
	r.surface.Clear()
	if len(mags) == 0 {
		return
	}
	w, h := r.surface.Size()
	barWidth := float64(w)/float64(len(mags)) - barGap
	if barWidth < 1 {
		barWidth = 1
	}
	for i, m := range mags {
		barHeight := float64(m) / 2
		if barHeight <= 0 {
			continue
		}
		if barHeight > float64(h) {
			barHeight = float64(h)
		}
		x := float64(i) * (barWidth + barGap)
		y := float64(h) - barHeight
		if r.round != nil {
			r.round.RoundBar(x, y, barWidth, barHeight, barWidth/2)
			continue
		}
		r.surface.Bar(x, y, barWidth, barHeight)
	}
}
