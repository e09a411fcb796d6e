package skills

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"voice-assistant/command_router"
	"voice-assistant/speech_synthesis"
	"voice-assistant/wake_word"
)

// Stopper lets the exit skill ask the run loop to wind down.
type Stopper interface {
	RequestStop()
}

type Config struct {
	Synthesizer speech_synthesis.Interface
	WakeWord    wake_word.Interface
	Stopper     Stopper
}

type skillSet struct {
	synth speech_synthesis.Interface
	wake  wake_word.Interface
	stop  Stopper
	rng   *rand.Rand
	now   func() time.Time
}

// Table returns the built-in command table in dispatch priority order.
func Table(cfg *Config) ([]command_router.Command, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Synthesizer == nil {
		return nil, fmt.Errorf("synthesizer is nil")
	}

	if cfg.WakeWord == nil {
		return nil, fmt.Errorf("wakeWord is nil")
	}

	if cfg.Stopper == nil {
		return nil, fmt.Errorf("stopper is nil")
	}

	s := &skillSet{
		synth: cfg.Synthesizer,
		wake:  cfg.WakeWord,
		stop:  cfg.Stopper,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:   time.Now,
	}

	return s.table(), nil
}

func (s *skillSet) table() []command_router.Command {
	return []command_router.Command{
		{Trigger: "joke", Handler: s.tellJoke},
		{Trigger: "time", Handler: s.tellTime},
		{Trigger: "date", Handler: s.tellTime},
		{Trigger: "stop", Handler: s.exit},
		{Trigger: "exit", Handler: s.exit},
		{Trigger: "goodbye", Handler: s.exit},
		{Trigger: "sleep", Handler: s.sleep},
	}
}

func (s *skillSet) tellJoke() error {
	joke := jokes[s.rng.Intn(len(jokes))]

	slog.Info("telling joke")
	s.synth.Speak(joke)

	return nil
}

func (s *skillSet) tellTime() error {
	phrase := s.now().Format("It is 3:04 PM, on Monday, January 2.")

	slog.Info("telling time", "phrase", phrase)
	s.synth.Speak(phrase)

	return nil
}

func (s *skillSet) sleep() error {
	s.wake.Reset()
	s.synth.Speak(fmt.Sprintf("Going to sleep. Say %s to wake me up.", s.wake.Phrase()))

	slog.Info("going to sleep")

	return nil
}

// exit speaks the farewell and drains the queue before asking the loop to
// stop, so shutdown never cuts the farewell off.
func (s *skillSet) exit() error {
	slog.Info("exit command received")

	s.synth.Speak("Goodbye! Shutting down now.")
	s.synth.WaitUntilDone()
	s.stop.RequestStop()

	return nil
}
