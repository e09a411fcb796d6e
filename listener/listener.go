package listener

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-audio/audio"

	"voice-assistant/audio_chunker"
	"voice-assistant/command_router"
	"voice-assistant/config"
	"voice-assistant/microphone"
	"voice-assistant/signal_gate"
	"voice-assistant/speech_synthesis"
	"voice-assistant/speech_to_text"
	"voice-assistant/wake_word"
)

// ErrRecoveryExhausted is returned by Run when the bounded restart budget is
// spent; at that point the failure is fatal to the process.
var ErrRecoveryExhausted = errors.New("restart attempts exhausted")

const drainTimeout = time.Millisecond * 500

// listenerImpl is the run-loop backbone: it owns the capture stream
// lifecycle and the chunker, and sequences gating, transcription and
// dispatch with bounded-retry recovery around each iteration.
type listenerImpl struct {
	cfg     *config.Config
	mic     microphone.Interface
	chunker *audio_chunker.Chunker
	stt     speech_to_text.Interface
	synth   speech_synthesis.Interface
	wake    wake_word.Interface
	router  command_router.Interface

	stop         chan struct{}
	stopOnce     sync.Once
	restartCount int
}

type Config struct {
	Cfg         *config.Config
	Microphone  microphone.Interface
	STTEngine   speech_to_text.Interface
	Synthesizer speech_synthesis.Interface
	WakeWord    wake_word.Interface
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Cfg == nil {
		return nil, fmt.Errorf("cfg is nil")
	}

	if cfg.Microphone == nil {
		return nil, fmt.Errorf("microphone is nil")
	}

	if cfg.STTEngine == nil {
		return nil, fmt.Errorf("sttEngine is nil")
	}

	if cfg.Synthesizer == nil {
		return nil, fmt.Errorf("synthesizer is nil")
	}

	if cfg.WakeWord == nil {
		return nil, fmt.Errorf("wakeWord is nil")
	}

	return &listenerImpl{
		cfg:     cfg.Cfg,
		mic:     cfg.Microphone,
		chunker: audio_chunker.New(cfg.Cfg.Audio.SampleRate, cfg.Cfg.Audio.ChunkDurationSeconds),
		stt:     cfg.STTEngine,
		synth:   cfg.Synthesizer,
		wake:    cfg.WakeWord,
		stop:    make(chan struct{}),
	}, nil
}

// SetRouter wires the command router after construction. The router is built
// afterwards because the exit skill needs this listener's stop signal.
func (l *listenerImpl) SetRouter(router command_router.Interface) {
	l.router = router
}

// Run drives the chunk/gate/transcribe/dispatch cycle until a stop is
// requested or the recovery budget runs out. Teardown stops the capture
// stream first, then shuts the synthesizer down.
func (l *listenerImpl) Run() error {
	if l.router == nil {
		return fmt.Errorf("router is not set")
	}

	if err := l.mic.Start(); err != nil {
		return fmt.Errorf("starting capture: %w", err)
	}

	defer func() {
		if err := l.mic.Stop(); err != nil {
			slog.Error("stopping capture", "err", err)
		}

		l.synth.Shutdown()
	}()

	l.synth.Speak(fmt.Sprintf("Assistant initialized. Say %s to activate me.", l.wake.Phrase()))

	slog.Info("listening", "wakePhrase", l.wake.Phrase())

	for {
		select {
		case <-l.stop:
			slog.Info("stop requested, leaving run loop")

			return nil
		default:
		}

		if err := l.iterate(); err != nil {
			slog.Error("run loop iteration failed", "err", err)

			if l.restartCount >= l.cfg.ErrorRecovery.MaxRestartAttempts {
				return fmt.Errorf("%w after %d attempts: %v", ErrRecoveryExhausted, l.restartCount, err)
			}

			l.restartCount++

			slog.Warn("attempting recovery", "attempt", l.restartCount, "max", l.cfg.ErrorRecovery.MaxRestartAttempts)
			time.Sleep(l.cfg.ErrorRecovery.RestartDelay())
		}
	}
}

// iterate drains at most one capture block and pushes it through the
// pipeline. A wait that times out with no audio is a normal outcome, not an
// error.
func (l *listenerImpl) iterate() error {
	var block microphone.Block

	select {
	case <-l.stop:
		return nil
	case block = <-l.mic.Blocks():
	case <-time.After(drainTimeout):
		return nil
	}

	chunk, ok := l.chunker.Push(block.Samples)
	if !ok {
		return nil
	}

	if !signal_gate.IsSignificant(chunk, l.cfg.Audio.RMSThreshold, l.cfg.Audio.PeakThreshold) {
		slog.Debug("no significant audio in chunk, skipping")

		return nil
	}

	// while our own voice is playing, drop the chunk entirely so the
	// assistant never transcribes itself
	if l.synth.IsSpeaking() {
		slog.Debug("synthesizer active, suppressing transcription")

		return nil
	}

	gated := signal_gate.NoiseGate(chunk, l.cfg.Audio.NoiseGateThreshold)

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			NumChannels: l.cfg.Audio.Channels,
			SampleRate:  l.cfg.Audio.SampleRate,
		},
		Data: gated,
	}

	segments, err := l.stt.Transcribe(buf)
	if err != nil {
		return fmt.Errorf("transcribing chunk: %w", err)
	}

	for _, segment := range segments {
		l.handleUtterance(segment.Text)
	}

	return nil
}

// handleUtterance applies the wake gate and routes the remainder of the
// utterance. A bare wake phrase gets an acknowledgment instead of dispatch.
func (l *listenerImpl) handleUtterance(text string) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return
	}

	slog.Info("recognized", "text", text)

	if !l.wake.Check(text) {
		slog.Debug("wake gate closed, ignoring utterance")

		return
	}

	command := strings.TrimSpace(strings.ReplaceAll(text, l.wake.Phrase(), ""))
	if command == "" {
		l.synth.Speak("Yes? I'm listening.")

		return
	}

	l.router.Dispatch(command)
}

// RequestStop signals the run loop to exit. Safe to call more than once and
// from any goroutine.
func (l *listenerImpl) RequestStop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
}
