package playback

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"voice-assistant/speech_synthesis"
)

const frameSize = 1024

type playerImpl struct{}

// New returns a player for the default output device. PortAudio must be
// initialized by the process before Play is called.
func New() speech_synthesis.Player {
	return &playerImpl{}
}

// Play writes one clip to the default output device and blocks until the
// final frame has been handed to the stream.
func (p *playerImpl) Play(clip *speech_synthesis.Clip) error {
	if clip == nil || len(clip.Samples) == 0 {
		return nil
	}

	out := make([]float32, frameSize)

	stream, err := portaudio.OpenDefaultStream(0, 1, float64(clip.SampleRate), len(out), out)
	if err != nil {
		return fmt.Errorf("opening output stream: %w", err)
	}

	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting output stream: %w", err)
	}

	defer stream.Stop()

	for offset := 0; offset < len(clip.Samples); offset += frameSize {
		end := offset + frameSize
		if end > len(clip.Samples) {
			end = len(clip.Samples)
		}

		n := copy(out, clip.Samples[offset:end])

		// zero-pad the final partial frame
		for i := n; i < frameSize; i++ {
			out[i] = 0
		}

		if err := stream.Write(); err != nil {
			return fmt.Errorf("writing to output stream: %w", err)
		}
	}

	return nil
}
