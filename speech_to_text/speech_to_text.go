package speech_to_text

import (
	"fmt"
	"io"
	"strings"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/go-audio/audio"
)

type sttImpl struct {
	model    whisper.Model
	language string
	threads  uint
}

type Config struct {
	Model    whisper.Model
	Language string
	Threads  uint
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Model == nil {
		return nil, fmt.Errorf("model is nil")
	}

	return &sttImpl{
		model:    cfg.Model,
		language: cfg.Language,
		threads:  cfg.Threads,
	}, nil
}

// Transcribe runs one chunk through the model and collects its finalized
// segments. A silent chunk legitimately yields zero segments.
func (stt *sttImpl) Transcribe(buf *audio.Float32Buffer) ([]Segment, error) {
	context, err := stt.model.NewContext()
	if err != nil {
		return nil, err
	}

	if stt.language != "" {
		if err := context.SetLanguage(stt.language); err != nil {
			return nil, err
		}
	}

	if stt.threads > 0 {
		context.SetThreads(stt.threads)
	}

	var cb whisper.SegmentCallback

	if err := context.Process(buf.Data, cb); err != nil {
		return nil, err
	}

	return collectSegments(context)
}

func collectSegments(context whisper.Context) ([]Segment, error) {
	seenText := make(map[string]bool)

	segments := make([]Segment, 0)

	for {
		segment, err := context.NextSegment()
		if err == io.EOF {
			return segments, nil
		} else if err != nil {
			return nil, err
		}

		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}

		// whisper annotates non-speech events in parentheses or brackets
		if text[0] == '(' || text[0] == '[' || text[len(text)-1] == ')' || text[len(text)-1] == ']' {
			continue
		}

		// whisper occasionally repeats a segment on low-energy chunks
		if _, ok := seenText[text]; ok {
			continue
		} else {
			seenText[text] = true
		}

		segments = append(segments, Segment{Text: text})
	}
}
