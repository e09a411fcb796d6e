package piper

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/go-audio/wav"
	"github.com/spf13/afero"

	"voice-assistant/speech_synthesis"
)

type engineImpl struct {
	binary    string
	modelPath string
}

type Config struct {
	FileSys   afero.Fs
	Binary    string
	ModelPath string
}

// New verifies the voice model exists up front, so a missing asset fails at
// startup with a clear message instead of on the first utterance.
func New(cfg *Config) (speech_synthesis.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.FileSys == nil {
		return nil, fmt.Errorf("fileSys is nil")
	}

	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("modelPath is empty")
	}

	if _, err := cfg.FileSys.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("piper voice model not found at %s: %w", cfg.ModelPath, err)
	}

	binary := cfg.Binary
	if binary == "" {
		binary = "piper"
	}

	return &engineImpl{
		binary:    binary,
		modelPath: cfg.ModelPath,
	}, nil
}

// Synthesize shells out to the piper binary with the text on stdin and
// decodes the WAV it writes to stdout into one clip.
func (e *engineImpl) Synthesize(text string) (*speech_synthesis.Clip, error) {
	var out bytes.Buffer

	cmd := exec.Command(e.binary, "--model", e.modelPath, "--output_file", "-")
	cmd.Stdin = strings.NewReader(text)
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("running piper: %w", err)
	}

	decoder := wav.NewDecoder(bytes.NewReader(out.Bytes()))

	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding piper output: %w", err)
	}

	if pcm.Format == nil || len(pcm.Data) == 0 {
		return nil, fmt.Errorf("piper produced no audio")
	}

	bitDepth := pcm.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}

	scale := float32(int(1) << (bitDepth - 1))

	samples := make([]float32, len(pcm.Data))
	for i, v := range pcm.Data {
		samples[i] = float32(v) / scale
	}

	return &speech_synthesis.Clip{
		Samples:    samples,
		SampleRate: pcm.Format.SampleRate,
	}, nil
}
