package config

import (
	"log/slog"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the assistant. It is loaded once at startup
// and passed by pointer into each component; nothing reads it ambiently.
type Config struct {
	WakeWord      WakeWord      `yaml:"wake_word"`
	Whisper       Whisper       `yaml:"whisper"`
	Piper         Piper         `yaml:"piper"`
	Audio         Audio         `yaml:"audio"`
	ErrorRecovery ErrorRecovery `yaml:"error_recovery"`
	Logging       Logging       `yaml:"logging"`
}

type WakeWord struct {
	Phrase         string  `yaml:"phrase"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	Threshold      float64 `yaml:"threshold"`
}

type Whisper struct {
	ModelPath string `yaml:"model_path"`
	Language  string `yaml:"language"`
	Threads   int    `yaml:"threads"`
}

type Piper struct {
	Binary    string `yaml:"binary"`
	ModelPath string `yaml:"model_path"`
}

type Audio struct {
	SampleRate           int     `yaml:"sample_rate"`
	ChunkDurationSeconds int     `yaml:"chunk_duration_seconds"`
	BlockSize            int     `yaml:"blocksize"`
	Channels             int     `yaml:"channels"`
	RMSThreshold         float64 `yaml:"rms_threshold"`
	PeakThreshold        float64 `yaml:"peak_threshold"`
	NoiseGateThreshold   float64 `yaml:"noise_gate_threshold"`
}

type ErrorRecovery struct {
	MaxRestartAttempts  int `yaml:"max_restart_attempts"`
	RestartDelaySeconds int `yaml:"restart_delay_seconds"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// Default returns the tunables the assistant runs with when no config file
// overrides them.
func Default() *Config {
	return &Config{
		WakeWord: WakeWord{
			Phrase:         "assistant",
			TimeoutSeconds: 10,
			Threshold:      0.7,
		},
		Whisper: Whisper{
			ModelPath: "models/ggml-base.en.bin",
			Language:  "en",
			Threads:   0,
		},
		Piper: Piper{
			Binary:    "piper",
			ModelPath: "voices/en_US-bryce-medium.onnx",
		},
		Audio: Audio{
			SampleRate:           16000,
			ChunkDurationSeconds: 3,
			BlockSize:            4096,
			Channels:             1,
			RMSThreshold:         0.015,
			PeakThreshold:        0.04,
			NoiseGateThreshold:   0.01,
		},
		ErrorRecovery: ErrorRecovery{
			MaxRestartAttempts:  3,
			RestartDelaySeconds: 1,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// Load reads the YAML config at path, falling back to defaults. A missing
// file gets the defaults persisted so there is something to edit; a
// malformed file is a warning, never a startup failure.
func Load(fs afero.Fs, path string) *Config {
	cfg := Default()

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		slog.Warn("config file not found, writing defaults", "path", path)

		if saveErr := Save(fs, path, cfg); saveErr != nil {
			slog.Error("could not save default config", "err", saveErr)
		}

		return cfg
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Warn("config file malformed, using defaults", "path", path, "err", err)

		return Default()
	}

	cfg.validate()

	slog.Info("configuration loaded", "path", path)

	return cfg
}

// Save writes the config as YAML to path.
func Save(fs afero.Fs, path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return afero.WriteFile(fs, path, data, 0o644)
}

// validate clamps out-of-range values back to their defaults so one bad
// tunable cannot take the whole assistant down.
func (c *Config) validate() {
	def := Default()

	if c.WakeWord.Phrase == "" {
		slog.Warn("wake_word.phrase is empty, using default", "default", def.WakeWord.Phrase)
		c.WakeWord.Phrase = def.WakeWord.Phrase
	}

	if c.WakeWord.TimeoutSeconds <= 0 {
		slog.Warn("wake_word.timeout_seconds must be positive, using default", "default", def.WakeWord.TimeoutSeconds)
		c.WakeWord.TimeoutSeconds = def.WakeWord.TimeoutSeconds
	}

	if c.WakeWord.Threshold < 0 || c.WakeWord.Threshold > 1 {
		slog.Warn("wake_word.threshold must be in [0,1], using default", "default", def.WakeWord.Threshold)
		c.WakeWord.Threshold = def.WakeWord.Threshold
	}

	if c.Audio.SampleRate <= 0 {
		slog.Warn("audio.sample_rate must be positive, using default", "default", def.Audio.SampleRate)
		c.Audio.SampleRate = def.Audio.SampleRate
	}

	if c.Audio.ChunkDurationSeconds <= 0 {
		slog.Warn("audio.chunk_duration_seconds must be positive, using default", "default", def.Audio.ChunkDurationSeconds)
		c.Audio.ChunkDurationSeconds = def.Audio.ChunkDurationSeconds
	}

	if c.Audio.BlockSize <= 0 {
		slog.Warn("audio.blocksize must be positive, using default", "default", def.Audio.BlockSize)
		c.Audio.BlockSize = def.Audio.BlockSize
	}

	if c.Audio.Channels <= 0 {
		slog.Warn("audio.channels must be positive, using default", "default", def.Audio.Channels)
		c.Audio.Channels = def.Audio.Channels
	}

	if c.Whisper.Threads < 0 {
		c.Whisper.Threads = def.Whisper.Threads
	}

	if c.ErrorRecovery.MaxRestartAttempts < 0 {
		c.ErrorRecovery.MaxRestartAttempts = def.ErrorRecovery.MaxRestartAttempts
	}

	if c.ErrorRecovery.RestartDelaySeconds < 0 {
		c.ErrorRecovery.RestartDelaySeconds = def.ErrorRecovery.RestartDelaySeconds
	}
}

// Timeout returns the wake timeout as a duration.
func (w *WakeWord) Timeout() time.Duration {
	return time.Duration(w.TimeoutSeconds) * time.Second
}

// RestartDelay returns the recovery backoff as a duration.
func (e *ErrorRecovery) RestartDelay() time.Duration {
	return time.Duration(e.RestartDelaySeconds) * time.Second
}
