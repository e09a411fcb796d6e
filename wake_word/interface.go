package wake_word

type Interface interface {
	Check(text string) bool
	Reset()
	Awake() bool
	Phrase() string
}
