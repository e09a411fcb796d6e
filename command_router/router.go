package command_router

import (
	"fmt"
	"log/slog"
	"strings"

	"voice-assistant/speech_synthesis"
)

const apologyResponse = "Sorry, something went wrong."

type routerImpl struct {
	table []Command
	synth speech_synthesis.Interface
}

type Config struct {
	Table       []Command
	Synthesizer speech_synthesis.Interface
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if len(cfg.Table) == 0 {
		return nil, fmt.Errorf("command table is empty")
	}

	if cfg.Synthesizer == nil {
		return nil, fmt.Errorf("synthesizer is nil")
	}

	for _, cmd := range cfg.Table {
		if cmd.Trigger == "" || cmd.Handler == nil {
			return nil, fmt.Errorf("command table entry is incomplete")
		}
	}

	return &routerImpl{
		table: cfg.Table,
		synth: cfg.Synthesizer,
	}, nil
}

// Dispatch walks the table in order and runs the first command whose trigger
// appears as a substring of the utterance. At most one handler runs per
// utterance; when nothing matches, a spoken fallback is produced so the
// utterance is never dropped silently.
func (r *routerImpl) Dispatch(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))

	for _, cmd := range r.table {
		if !strings.Contains(text, cmd.Trigger) {
			continue
		}

		slog.Info("executing command", "trigger", cmd.Trigger)
		r.invoke(cmd)

		return true
	}

	slog.Debug("no matching command", "text", text)
	r.synth.Speak(fmt.Sprintf("I heard you say %s, but I don't know what to do with that yet.", text))

	return false
}

// invoke contains handler failures: errors and panics become a spoken
// apology instead of killing the run loop.
func (r *routerImpl) invoke(cmd Command) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("command handler panicked", "trigger", cmd.Trigger, "panic", rec)
			r.synth.Speak(apologyResponse)
		}
	}()

	if err := cmd.Handler(); err != nil {
		slog.Error("command handler failed", "trigger", cmd.Trigger, "err", err)
		r.synth.Speak(apologyResponse)
	}
}
