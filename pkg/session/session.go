// Package session coordinates the lifecycle of one selected audio file:
// validation, payload encoding, the remote analysis call and the state
// visible to presentation. Selecting a new file supersedes the previous one;
// late results for a superseded file are dropped.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/sjokstudio/sjok-2025/pkg/assetstore"
	"github.com/sjokstudio/sjok-2025/pkg/audioai"
	"github.com/sjokstudio/sjok-2025/pkg/encode"
)

type State string

const (
	Idle      State = "idle"
	Uploading State = "uploading"
	Analyzing State = "analyzing"
	Completed State = "completed"
	Errored   State = "errored"
)

// Analyzer is the remote analysis dependency. It is satisfied by
// audioai.Client and substituted in tests.
type Analyzer interface {
	Analyze(ctx context.Context, payload, mediaType string) (*audioai.Analysis, error)
}

// Asset is the active media file. Its locator stays valid until the asset is
// superseded or the session closes.
type Asset struct {
	ID          string
	DisplayName string
	Locator     string
	Payload     string
	MediaType   string
}

// Snapshot is the read-only view handed to presentation.
type Snapshot struct {
	State    State             `json:"state"`
	FileName string            `json:"fileName,omitempty"`
	Result   *audioai.Analysis `json:"result,omitempty"`
	Error    string            `json:"error,omitempty"`
}

type Config struct {
	Debug    bool
	Analyzer Analyzer
	Store    *assetstore.Store
}

type Session struct {
	analyzer Analyzer
	store    *assetstore.Store
	debug    bool

	mu      sync.Mutex
	state   State
	asset   *Asset
	result  *audioai.Analysis
	errMsg  string
	pending string        // id claimed by the selection currently encoding
	changed chan struct{} // closed and replaced on every commit
}

func New(cfg *Config) (*Session, error) {
	if cfg.Analyzer == nil {
		return nil, errors.New("session: missing analyzer")
	}
	store := cfg.Store
	if store == nil {
		var err error
		store, err = assetstore.New("")
		if err != nil {
			return nil, fmt.Errorf("session: %w", err)
		}
	}
	return &Session{
		analyzer: cfg.Analyzer,
		store:    store,
		debug:    cfg.Debug,
		state:    Idle,
		changed:  make(chan struct{}),
	}, nil
}

// Select runs the pipeline for a newly chosen file: validate, encode, store
// the playable copy, then trigger the remote analysis. Any previously
// selected file is superseded, whatever state it was in.
func (s *Session) Select(ctx context.Context, name string, size int64, mediaType string, r io.Reader) error {
	if err := encode.Validate(size, mediaType); err != nil {
		s.mu.Lock()
		s.supersedeLocked()
		s.commitLocked(Errored, nil, nil, err.Error())
		s.mu.Unlock()
		return err
	}

	id := ulid.Make().String()
	s.mu.Lock()
	s.supersedeLocked()
	s.pending = id
	s.commitLocked(Uploading, nil, nil, "")
	s.mu.Unlock()

	// The size ceiling makes buffering the whole file acceptable; the bytes
	// are needed twice, for the payload and for the playable copy.
	data, err := io.ReadAll(r)
	if err != nil {
		return s.failSelect(id, fmt.Errorf("session: couldn't read file: %w", err))
	}
	payload, err := encode.Payload(size, mediaType, bytes.NewReader(data))
	if err != nil {
		return s.failSelect(id, err)
	}
	locator, err := s.store.Put(id, name, bytes.NewReader(data))
	if err != nil {
		return s.failSelect(id, err)
	}

	asset := &Asset{
		ID:          id,
		DisplayName: name,
		Locator:     locator,
		Payload:     payload,
		MediaType:   mediaType,
	}

	s.mu.Lock()
	if s.pending != id {
		// Another selection superseded this one while it was encoding.
		s.mu.Unlock()
		s.store.Release(locator)
		return nil
	}
	s.pending = ""
	s.commitLocked(Idle, asset, nil, "")
	s.mu.Unlock()

	return s.StartAnalysis(ctx)
}

// StartAnalysis launches the remote call for the active asset. It is a no-op
// when the asset already completed, or when a call is already in flight.
func (s *Session) StartAnalysis(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.asset == nil {
		return errors.New("session: no file selected")
	}
	switch s.state {
	case Completed, Analyzing:
		// Completed assets are not re-analyzed; exactly one call may be
		// in flight per asset.
		return nil
	case Idle:
	default:
		return fmt.Errorf("session: can't start analysis while %s", s.state)
	}
	asset := s.asset
	s.commitLocked(Analyzing, asset, nil, "")
	go s.analyze(ctx, asset)
	return nil
}

// analyze runs the remote call and commits its outcome, unless the asset was
// superseded while the call was in flight.
func (s *Session) analyze(ctx context.Context, asset *Asset) {
	result, err := s.analyzer.Analyze(ctx, asset.Payload, asset.MediaType)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.asset == nil || s.asset.ID != asset.ID {
		if s.debug {
			log.Printf("session: dropping stale result for %s\n", asset.DisplayName)
		}
		return
	}
	if err != nil {
		s.commitLocked(Errored, asset, nil, err.Error())
		return
	}
	s.commitLocked(Completed, asset, result, "")
}

// failSelect records an encode-stage failure, unless the selection was
// already superseded.
func (s *Session) failSelect(id string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != id {
		return nil
	}
	s.pending = ""
	s.commitLocked(Errored, nil, nil, err.Error())
	return err
}

// commitLocked applies one state transition and wakes waiters. Callers hold
// the mutex.
func (s *Session) commitLocked(state State, asset *Asset, result *audioai.Analysis, errMsg string) {
	s.state = state
	s.asset = asset
	s.result = result
	s.errMsg = errMsg
	close(s.changed)
	s.changed = make(chan struct{})
	if s.debug {
		log.Printf("session: state %s\n", state)
	}
}

// supersedeLocked discards the previous asset and result. A remote call
// still in flight for the old asset keeps running; its result is dropped by
// the identity check in analyze.
func (s *Session) supersedeLocked() {
	if s.asset != nil {
		s.store.Release(s.asset.Locator)
	}
	s.asset = nil
	s.result = nil
	s.errMsg = ""
	s.pending = ""
}

// Snapshot returns the current presentation view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		State:  s.state,
		Result: s.result,
		Error:  s.errMsg,
	}
	if s.asset != nil {
		snap.FileName = s.asset.DisplayName
	}
	return snap
}

// Playable reports the locator and media type of the active asset once its
// analysis completed. Playback is only offered after completion.
func (s *Session) Playable() (locator, mediaType string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Completed || s.asset == nil {
		return "", "", false
	}
	return s.asset.Locator, s.asset.MediaType, true
}

// Wait blocks until the session reaches Completed or Errored, or the context
// ends.
func (s *Session) Wait(ctx context.Context) (Snapshot, error) {
	for {
		s.mu.Lock()
		state := s.state
		changed := s.changed
		s.mu.Unlock()
		if state == Completed || state == Errored {
			return s.Snapshot(), nil
		}
		select {
		case <-ctx.Done():
			return s.Snapshot(), ctx.Err()
		case <-changed:
		}
	}
}

// Close releases the active asset's locator and ends the session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supersedeLocked()
}
