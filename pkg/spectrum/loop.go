package spectrum

import (
	"sync"
	"time"
)

// DefaultInterval approximates a 60Hz display refresh.
const DefaultInterval = time.Second / 60

// Loop is an explicit cancellable repeating task: while running, it pulls
// the source's magnitudes on every tick and renders a frame. Frames are
// lossy; a skipped tick is never replayed.
type Loop struct {
	source   Source
	renderer *Renderer

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewLoop(source Source, renderer *Renderer) *Loop {
	return &Loop{
		source:   source,
		renderer: renderer,
	}
}

// Start begins the frame loop at the given interval. Starting an already
// running loop is a no-op; the caller must stop the previous registration
// first.
func (l *Loop) Start(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop != nil {
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	l.stop = stop
	l.done = done
	go l.run(interval, stop, done)
}

func (l *Loop) run(interval time.Duration, stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			l.renderer.Frame(l.source.Magnitudes())
		}
	}
}

// Stop withdraws the recurring frame registration. It is idempotent, and no
// draw call executes after it returns.
func (l *Loop) Stop() {
	l.mu.Lock()
	stop, done := l.stop, l.done
	l.stop = nil
	l.done = nil
	l.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Running reports whether the loop currently has a frame registration.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stop != nil
}
