package ring_buffer

// Buffer is a fixed-size rolling window of level measurements. Writes past
// capacity overwrite the oldest entries.
type Buffer struct {
	values []float64
	head   int
	count  int
}

func New(size int) *Buffer {
	return &Buffer{
		values: make([]float64, size),
	}
}

func (b *Buffer) Add(v float64) {
	b.values[b.head] = v
	b.head = (b.head + 1) % len(b.values)

	if b.count < len(b.values) {
		b.count++
	}
}

// Read returns the window contents oldest-first.
func (b *Buffer) Read() []float64 {
	out := make([]float64, b.count)

	start := (b.head - b.count + len(b.values)) % len(b.values)
	for i := 0; i < b.count; i++ {
		out[i] = b.values[(start+i)%len(b.values)]
	}

	return out
}

func (b *Buffer) Len() int {
	return b.count
}

func (b *Buffer) Clear() {
	b.head = 0
	b.count = 0
}
