package audio_chunker

// Chunker accumulates capture blocks of arbitrary length into one growing
// buffer and hands the whole buffer back once it reaches the chunk
// threshold. There is no sliding window: an emitted chunk resets the buffer
// to empty, and no remainder is carried over.
type Chunker struct {
	buffer    []float32
	threshold int
}

// New derives the chunk threshold from the capture sample rate and the
// configured chunk duration in seconds.
func New(sampleRate, chunkSeconds int) *Chunker {
	threshold := sampleRate * chunkSeconds

	return &Chunker{
		buffer:    make([]float32, 0, threshold),
		threshold: threshold,
	}
}

// Push appends one block of samples. When the accumulated length reaches the
// threshold the entire buffer is returned and the chunker resets; the
// returned slice is owned by the caller.
func (c *Chunker) Push(block []float32) ([]float32, bool) {
	c.buffer = append(c.buffer, block...)

	if len(c.buffer) < c.threshold {
		return nil, false
	}

	chunk := c.buffer
	c.buffer = make([]float32, 0, c.threshold)

	return chunk, true
}

// Len returns the number of samples accumulated so far.
func (c *Chunker) Len() int {
	return len(c.buffer)
}
