package ring_buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer_Add(t *testing.T) {
	t.Run("fill the window until it wraps, keeping the newest values", func(t *testing.T) {
		buffer := New(10)

		for i := 0; i < 20; i++ {
			buffer.Add(float64(i))
		}

		assert.Equal(t, []float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}, buffer.Read())
		assert.Equal(t, 10, buffer.Len())
	})

	t.Run("a partially filled window reads only what was written", func(t *testing.T) {
		buffer := New(10)

		buffer.Add(0.1)
		buffer.Add(0.2)

		assert.Equal(t, []float64{0.1, 0.2}, buffer.Read())
		assert.Equal(t, 2, buffer.Len())
	})
}

func TestBuffer_Clear(t *testing.T) {
	buffer := New(4)

	buffer.Add(1)
	buffer.Add(2)
	buffer.Clear()

	assert.Equal(t, 0, buffer.Len())
	assert.Empty(t, buffer.Read())
}
