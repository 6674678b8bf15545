package spectrum

import (
	"image"
	"image/color"
	"image/draw"
	"sync"
)

// ImageSurface is the canvas the renderer draws on: a fixed logical
// resolution RGBA raster that hosts blit or scale into their own output.
type ImageSurface struct {
	mu  sync.Mutex
	img *image.RGBA
	bg  color.RGBA
}

func NewImageSurface() *ImageSurface {
	return &ImageSurface{
		img: image.NewRGBA(image.Rect(0, 0, CanvasWidth, CanvasHeight)),
		bg:  color.RGBA{R: 0x0b, G: 0x10, B: 0x21, A: 0xff},
	}
}

func (s *ImageSurface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Clear fills the whole canvas, discarding the prior frame entirely.
func (s *ImageSurface) Clear() {
	s.mu.Lock()
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(s.bg), image.Point{}, draw.Src)
	s.mu.Unlock()
}

func (s *ImageSurface) Bar(x, y, w, h float64) {
	rect := image.Rect(int(x), int(y), int(x+w), int(y+h))
	s.mu.Lock()
	draw.Draw(s.img, rect.Intersect(s.img.Bounds()), image.NewUniform(BarColor), image.Point{}, draw.Src)
	s.mu.Unlock()
}

// Snapshot copies the current frame for the host to display.
func (s *ImageSurface) Snapshot(dst *image.RGBA) {
	s.mu.Lock()
	copy(dst.Pix, s.img.Pix)
	s.mu.Unlock()
}
