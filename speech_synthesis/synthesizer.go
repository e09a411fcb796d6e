package speech_synthesis

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	queueDepth  = 32
	joinTimeout = 2 * time.Second
)

type request struct {
	text   string
	poison bool
}

// synthImpl decouples "request to speak" from "actually speaking". A single
// background worker pulls requests in FIFO order, so playback for different
// requests can never overlap.
type synthImpl struct {
	engine Engine
	player Player

	queue    chan request
	pending  sync.WaitGroup
	speaking atomic.Bool
	shutdown atomic.Bool

	// playMu serializes playback between the worker and blocking callers.
	playMu sync.Mutex
	done   chan struct{}
}

type Config struct {
	Engine Engine
	Player Player
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Engine == nil {
		return nil, fmt.Errorf("engine is nil")
	}

	if cfg.Player == nil {
		return nil, fmt.Errorf("player is nil")
	}

	s := &synthImpl{
		engine: cfg.Engine,
		player: cfg.Player,
		queue:  make(chan request, queueDepth),
		done:   make(chan struct{}),
	}

	go s.worker()

	return s, nil
}

// Speak enqueues text for the background worker and returns immediately.
// After Shutdown it is a no-op.
func (s *synthImpl) Speak(text string) {
	if s.shutdown.Load() {
		return
	}

	s.pending.Add(1)
	s.queue <- request{text: text}
}

// SpeakBlocking synthesizes and plays on the calling goroutine, returning
// only after playback completes. It serializes against the worker through
// the playback mutex, so it never overlaps a queued request.
func (s *synthImpl) SpeakBlocking(text string) {
	if s.shutdown.Load() {
		return
	}

	s.speakOnce(text)
}

func (s *synthImpl) worker() {
	defer close(s.done)

	for req := range s.queue {
		if req.poison {
			return
		}

		s.speakOnce(req.text)
		s.pending.Done()
	}
}

// speakOnce synthesizes and plays one request. The speaking flag covers the
// whole attempt and is always cleared, even when the engine or the output
// device fails; a failure is logged and never surfaced to the requester.
func (s *synthImpl) speakOnce(text string) {
	s.playMu.Lock()
	defer s.playMu.Unlock()

	s.speaking.Store(true)
	defer s.speaking.Store(false)

	slog.Info("speaking", "text", truncate(text, 50))

	clip, err := s.engine.Synthesize(text)
	if err != nil {
		slog.Error("synthesis failed", "err", err)
		return
	}

	if clip == nil || len(clip.Samples) == 0 {
		slog.Warn("synthesis produced no audio")
		return
	}

	if err := s.player.Play(clip); err != nil {
		slog.Error("playback failed", "err", err)
	}
}

func (s *synthImpl) IsSpeaking() bool {
	return s.speaking.Load()
}

// WaitUntilDone blocks until every queued request has been processed and no
// playback is in flight.
func (s *synthImpl) WaitUntilDone() {
	s.pending.Wait()

	for s.speaking.Load() {
		time.Sleep(10 * time.Millisecond)
	}
}

// Shutdown stops the worker with a poison request and joins it with a
// bounded timeout. Requests still queued behind the poison are discarded;
// there is no resurrection afterwards.
func (s *synthImpl) Shutdown() {
	if !s.shutdown.CompareAndSwap(false, true) {
		return
	}

	slog.Info("shutting down speech synthesis")

	s.queue <- request{poison: true}

	select {
	case <-s.done:
	case <-time.After(joinTimeout):
		slog.Warn("synthesis worker did not stop in time")
	}

	for {
		select {
		case req := <-s.queue:
			if !req.poison {
				s.pending.Done()
			}
		default:
			return
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}
