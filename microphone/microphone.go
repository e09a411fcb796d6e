package microphone

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gordonklaus/portaudio"
)

const handoffDepth = 16

// micImpl is the capture producer. The device callback copies each delivered
// block into a bounded hand-off channel and returns immediately; it never
// blocks on downstream work.
type micImpl struct {
	sampleRate int
	blockSize  int
	channels   int

	stream   *portaudio.Stream
	blocks   chan Block
	overruns int
}

type Config struct {
	SampleRate int
	BlockSize  int
	Channels   int
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sampleRate must be positive")
	}

	if cfg.BlockSize <= 0 {
		return nil, fmt.Errorf("blockSize must be positive")
	}

	if cfg.Channels <= 0 {
		return nil, fmt.Errorf("channels must be positive")
	}

	return &micImpl{
		sampleRate: cfg.SampleRate,
		blockSize:  cfg.BlockSize,
		channels:   cfg.Channels,
		blocks:     make(chan Block, handoffDepth),
	}, nil
}

// Start opens and starts the default input stream. PortAudio must be
// initialized by the process first.
func (m *micImpl) Start() error {
	stream, err := portaudio.OpenDefaultStream(m.channels, 0, float64(m.sampleRate), m.blockSize, m.onAudio)
	if err != nil {
		return fmt.Errorf("opening input stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()

		return fmt.Errorf("starting input stream: %w", err)
	}

	m.stream = stream

	slog.Info("capture started", "sampleRate", m.sampleRate, "blockSize", m.blockSize, "channels", m.channels)

	return nil
}

// onAudio runs on the device callback. When the consumer falls behind the
// block is dropped and counted as an overrun; the callback must never wait.
func (m *micImpl) onAudio(in []float32) {
	samples := make([]float32, len(in))
	copy(samples, in)

	select {
	case m.blocks <- Block{Samples: samples, Time: time.Now()}:
	default:
		m.overruns++
		slog.Warn("capture overrun, dropping block", "overruns", m.overruns)
	}
}

func (m *micImpl) Stop() error {
	if m.stream == nil {
		return nil
	}

	stream := m.stream
	m.stream = nil

	if err := stream.Stop(); err != nil {
		stream.Close()

		return fmt.Errorf("stopping input stream: %w", err)
	}

	if err := stream.Close(); err != nil {
		return fmt.Errorf("closing input stream: %w", err)
	}

	slog.Info("capture stopped")

	return nil
}

func (m *micImpl) Blocks() <-chan Block {
	return m.blocks
}
