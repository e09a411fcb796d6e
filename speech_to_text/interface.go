package speech_to_text

import "github.com/go-audio/audio"

// Segment is one finalized piece of recognized text for a chunk.
type Segment struct {
	Text string
}

type Interface interface {
	Transcribe(buf *audio.Float32Buffer) ([]Segment, error)
}
