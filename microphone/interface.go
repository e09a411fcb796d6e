package microphone

import "time"

// Block is one timestamped delivery from the capture device.
type Block struct {
	Samples []float32
	Time    time.Time
}

type Interface interface {
	Start() error
	Stop() error
	Blocks() <-chan Block
}
