package wake_word

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// gateImpl is a two-state machine: ASLEEP until the activation phrase is
// heard, then AWAKE until the timeout since the last phrase match elapses.
// Expiry is lazy: the state only flips back on the next Check call.
type gateImpl struct {
	phrase   string
	timeout  time.Duration
	isAwake  bool
	lastWake time.Time
	now      func() time.Time
}

type Config struct {
	Phrase  string
	Timeout time.Duration
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Phrase == "" {
		return nil, fmt.Errorf("phrase is empty")
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive")
	}

	return &gateImpl{
		phrase:  strings.ToLower(cfg.Phrase),
		timeout: cfg.Timeout,
		now:     time.Now,
	}, nil
}

// Check reports whether an utterance is command-eligible. Matching is
// case-insensitive substring containment; a match restarts the timeout,
// while Check calls inside the window keep the gate open without touching
// the timer.
func (g *gateImpl) Check(text string) bool {
	lowered := strings.ToLower(strings.TrimSpace(text))

	if strings.Contains(lowered, g.phrase) {
		slog.Info("wake phrase detected")

		g.isAwake = true
		g.lastWake = g.now()

		return true
	}

	if g.isAwake {
		if g.now().Sub(g.lastWake) < g.timeout {
			return true
		}

		slog.Info("wake timeout elapsed, going to sleep")

		g.isAwake = false
	}

	return false
}

// Reset force-transitions the gate to ASLEEP.
func (g *gateImpl) Reset() {
	g.isAwake = false
	g.lastWake = time.Time{}
}

func (g *gateImpl) Awake() bool {
	return g.isAwake
}

func (g *gateImpl) Phrase() string {
	return g.phrase
}
