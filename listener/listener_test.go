package listener

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-assistant/command_router"
	"voice-assistant/config"
	"voice-assistant/microphone"
	"voice-assistant/skills"
	"voice-assistant/speech_to_text"
	"voice-assistant/wake_word"
)

type fakeMic struct {
	blocks chan microphone.Block
}

func newFakeMic() *fakeMic {
	return &fakeMic{blocks: make(chan microphone.Block, 32)}
}

func (f *fakeMic) Start() error                    { return nil }
func (f *fakeMic) Stop() error                     { return nil }
func (f *fakeMic) Blocks() <-chan microphone.Block { return f.blocks }

// push delivers one block loud enough to pass the significance gate.
func (f *fakeMic) push(samples int, amplitude float32) {
	block := make([]float32, samples)
	for i := range block {
		block[i] = amplitude
	}

	f.blocks <- microphone.Block{Samples: block, Time: time.Now()}
}

type fakeSTT struct {
	mu     sync.Mutex
	calls  int
	queued [][]speech_to_text.Segment
	err    error
}

func (f *fakeSTT) Transcribe(_ *audio.Float32Buffer) ([]speech_to_text.Segment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	if len(f.queued) == 0 {
		return nil, nil
	}

	segments := f.queued[0]
	f.queued = f.queued[1:]

	return segments, nil
}

func (f *fakeSTT) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

type fakeSynth struct {
	mu       sync.Mutex
	spoken   []string
	speaking atomic.Bool
}

func (f *fakeSynth) Speak(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.spoken = append(f.spoken, text)
}

func (f *fakeSynth) SpeakBlocking(text string) { f.Speak(text) }
func (f *fakeSynth) IsSpeaking() bool          { return f.speaking.Load() }
func (f *fakeSynth) WaitUntilDone()            {}
func (f *fakeSynth) Shutdown()                 {}

func (f *fakeSynth) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.spoken...)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Audio.SampleRate = 1000
	cfg.Audio.ChunkDurationSeconds = 1
	cfg.ErrorRecovery.RestartDelaySeconds = 0

	return cfg
}

// newTestListener wires a listener with a real wake gate, real skills and a
// real router around the given fakes.
func newTestListener(t *testing.T, cfg *config.Config, mic *fakeMic, stt *fakeSTT, synth *fakeSynth) Interface {
	t.Helper()

	wake, err := wake_word.New(&wake_word.Config{
		Phrase:  cfg.WakeWord.Phrase,
		Timeout: cfg.WakeWord.Timeout(),
	})
	require.NoError(t, err)

	l, err := New(&Config{
		Cfg:         cfg,
		Microphone:  mic,
		STTEngine:   stt,
		Synthesizer: synth,
		WakeWord:    wake,
	})
	require.NoError(t, err)

	table, err := skills.Table(&skills.Config{
		Synthesizer: synth,
		WakeWord:    wake,
		Stopper:     l,
	})
	require.NoError(t, err)

	router, err := command_router.New(&command_router.Config{
		Table:       table,
		Synthesizer: synth,
	})
	require.NoError(t, err)

	l.SetRouter(router)

	return l
}

func start(l Interface) <-chan error {
	errC := make(chan error, 1)

	go func() {
		errC <- l.Run()
	}()

	return errC
}

func TestRun_RequiresRouter(t *testing.T) {
	cfg := testConfig()

	wake, err := wake_word.New(&wake_word.Config{Phrase: "assistant", Timeout: time.Second})
	require.NoError(t, err)

	l, err := New(&Config{
		Cfg:         cfg,
		Microphone:  newFakeMic(),
		STTEngine:   &fakeSTT{},
		Synthesizer: &fakeSynth{},
		WakeWord:    wake,
	})
	require.NoError(t, err)

	assert.Error(t, l.Run())
}

func TestRun_SuppressesTranscriptionWhileSpeaking(t *testing.T) {
	cfg := testConfig()
	mic := newFakeMic()
	stt := &fakeSTT{queued: [][]speech_to_text.Segment{{{Text: "assistant what time is it"}}}}
	synth := &fakeSynth{}

	l := newTestListener(t, cfg, mic, stt, synth)
	errC := start(l)

	// a full chunk arriving mid-playback must be dropped whole
	synth.speaking.Store(true)
	mic.push(1000, 0.5)

	time.Sleep(time.Millisecond * 100)
	assert.Equal(t, 0, stt.callCount())

	// once playback ends the next chunk goes through
	synth.speaking.Store(false)
	mic.push(1000, 0.5)

	require.Eventually(t, func() bool {
		return stt.callCount() == 1
	}, time.Second, time.Millisecond*10)

	l.RequestStop()
	require.NoError(t, <-errC)
}

func TestRun_SkipsInsignificantChunks(t *testing.T) {
	cfg := testConfig()
	mic := newFakeMic()
	stt := &fakeSTT{}
	synth := &fakeSynth{}

	l := newTestListener(t, cfg, mic, stt, synth)
	errC := start(l)

	// pure silence fills a chunk but never reaches the engine
	mic.push(1000, 0)

	// a loud chunk does
	mic.push(1000, 0.5)

	require.Eventually(t, func() bool {
		return stt.callCount() == 1
	}, time.Second, time.Millisecond*10)

	l.RequestStop()
	require.NoError(t, <-errC)
}

func TestRun_EndToEndTimeCommand(t *testing.T) {
	cfg := testConfig()
	mic := newFakeMic()
	stt := &fakeSTT{queued: [][]speech_to_text.Segment{{{Text: "Assistant what time is it"}}}}
	synth := &fakeSynth{}

	l := newTestListener(t, cfg, mic, stt, synth)
	errC := start(l)

	mic.push(1000, 0.5)

	require.Eventually(t, func() bool {
		spoken := synth.all()

		return len(spoken) == 2
	}, time.Second, time.Millisecond*10)

	spoken := synth.all()
	assert.Contains(t, spoken[0], "Assistant initialized")
	assert.Contains(t, spoken[1], "It is ")

	l.RequestStop()
	require.NoError(t, <-errC)
}

func TestRun_BareWakePhraseGetsAcknowledged(t *testing.T) {
	cfg := testConfig()
	mic := newFakeMic()
	stt := &fakeSTT{queued: [][]speech_to_text.Segment{{{Text: "assistant"}}}}
	synth := &fakeSynth{}

	l := newTestListener(t, cfg, mic, stt, synth)
	errC := start(l)

	mic.push(1000, 0.5)

	require.Eventually(t, func() bool {
		spoken := synth.all()

		return len(spoken) == 2 && spoken[1] == "Yes? I'm listening."
	}, time.Second, time.Millisecond*10)

	l.RequestStop()
	require.NoError(t, <-errC)
}

func TestRun_AsleepGateIgnoresCommands(t *testing.T) {
	cfg := testConfig()
	mic := newFakeMic()
	stt := &fakeSTT{queued: [][]speech_to_text.Segment{{{Text: "tell me a joke"}}}}
	synth := &fakeSynth{}

	l := newTestListener(t, cfg, mic, stt, synth)
	errC := start(l)

	mic.push(1000, 0.5)

	require.Eventually(t, func() bool {
		return stt.callCount() == 1
	}, time.Second, time.Millisecond*10)

	time.Sleep(time.Millisecond * 100)

	// only the startup announcement was spoken; the utterance was ignored
	assert.Len(t, synth.all(), 1)

	l.RequestStop()
	require.NoError(t, <-errC)
}

func TestRun_RecoveryBudgetIsBounded(t *testing.T) {
	cfg := testConfig()
	cfg.ErrorRecovery.MaxRestartAttempts = 1

	mic := newFakeMic()
	stt := &fakeSTT{err: errors.New("model exploded")}
	synth := &fakeSynth{}

	l := newTestListener(t, cfg, mic, stt, synth)
	errC := start(l)

	// each failing chunk burns one restart attempt
	mic.push(1000, 0.5)
	mic.push(1000, 0.5)

	select {
	case err := <-errC:
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRecoveryExhausted)
	case <-time.After(time.Second * 2):
		t.Fatal("run loop did not terminate after exhausting recovery")
	}

	assert.Equal(t, 2, stt.callCount())
}
