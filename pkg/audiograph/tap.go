package audiograph

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/gopxl/beep/v2"
	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// WindowSize is the analysis window of the tap, fixed for the lifetime
	// of a graph. Changing it requires building a new graph.
	WindowSize = 256
	// Bins is the number of frequency bins exposed by Magnitudes.
	Bins = WindowSize / 2

	// Magnitudes are mapped onto the byte range over this decibel span.
	minDecibels = -100.0
	maxDecibels = -30.0
)

// Tap sits between the transport control and the speaker. It passes audio
// through untouched while capturing a mono mix of the last WindowSize samples
// for frequency analysis.
type Tap struct {
	s beep.Streamer

	mu  sync.Mutex
	buf [WindowSize]float64
	pos int

	fft  *fourier.FFT
	hann []float64
}

func NewTap(s beep.Streamer) *Tap {
	hann := make([]float64, WindowSize)
	for i := range hann {
		hann[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(WindowSize-1)))
	}
	return &Tap{
		s:    s,
		fft:  fourier.NewFFT(WindowSize),
		hann: hann,
	}
}

// Stream passes audio through while capturing a mono mix into the ring.
func (t *Tap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.s.Stream(samples)
	t.mu.Lock()
	for i := 0; i < n; i++ {
		t.buf[t.pos] = (samples[i][0] + samples[i][1]) / 2
		t.pos = (t.pos + 1) % WindowSize
	}
	t.mu.Unlock()
	return n, ok
}

// Err returns the underlying streamer's error.
func (t *Tap) Err() error {
	return t.s.Err()
}

// Magnitudes returns the current frequency magnitude vector: one byte per
// bin, 0 for minDecibels and below, 255 for maxDecibels and above.
func (t *Tap) Magnitudes() []byte {
	windowed := make([]float64, WindowSize)
	t.mu.Lock()
	for i := 0; i < WindowSize; i++ {
		windowed[i] = t.buf[(t.pos+i)%WindowSize] * t.hann[i]
	}
	t.mu.Unlock()

	coeffs := t.fft.Coefficients(nil, windowed)
	mags := make([]byte, Bins)
	for i := 0; i < Bins; i++ {
		amp := 2 * cmplx.Abs(coeffs[i]) / WindowSize
		db := minDecibels
		if amp > 0 {
			db = 20 * math.Log10(amp)
		}
		scaled := (db - minDecibels) / (maxDecibels - minDecibels) * 255
		switch {
		case scaled < 0:
			scaled = 0
		case scaled > 255:
			scaled = 255
		}
		mags[i] = byte(scaled)
	}
	return mags
}
