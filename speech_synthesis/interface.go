package speech_synthesis

// Clip is one fully synthesized waveform ready for playback.
type Clip struct {
	Samples    []float32
	SampleRate int
}

// Engine turns text into one playable clip. Implementations sit at the
// process boundary (piper).
type Engine interface {
	Synthesize(text string) (*Clip, error)
}

// Player plays one clip on the output device and returns once playback has
// completed.
type Player interface {
	Play(clip *Clip) error
}

type Interface interface {
	Speak(text string)
	SpeakBlocking(text string)
	IsSpeaking() bool
	WaitUntilDone()
	Shutdown()
}
