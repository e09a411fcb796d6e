package wake_word

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T) (Interface, *time.Time) {
	t.Helper()

	gate, err := New(&Config{
		Phrase:  "assistant",
		Timeout: time.Second * 10,
	})
	require.NoError(t, err)

	current := time.Unix(1000, 0)
	gate.(*gateImpl).now = func() time.Time { return current }

	return gate, &current
}

func TestNew(t *testing.T) {
	t.Run("rejects nil config", func(t *testing.T) {
		_, err := New(nil)
		assert.Error(t, err)
	})

	t.Run("rejects empty phrase", func(t *testing.T) {
		_, err := New(&Config{Timeout: time.Second})
		assert.Error(t, err)
	})

	t.Run("rejects non-positive timeout", func(t *testing.T) {
		_, err := New(&Config{Phrase: "assistant"})
		assert.Error(t, err)
	})

	t.Run("lowercases the configured phrase", func(t *testing.T) {
		gate, err := New(&Config{Phrase: "Assistant", Timeout: time.Second})
		require.NoError(t, err)
		assert.Equal(t, "assistant", gate.Phrase())
	})
}

func TestGate_Check(t *testing.T) {
	t.Run("phrase match wakes the gate", func(t *testing.T) {
		gate, _ := newTestGate(t)

		assert.True(t, gate.Check("hello assistant"))
		assert.True(t, gate.Awake())
	})

	t.Run("matching is case-insensitive substring containment", func(t *testing.T) {
		gate, _ := newTestGate(t)

		assert.True(t, gate.Check("Hey ASSISTANT, you there?"))
	})

	t.Run("stays awake within the timeout without resetting the timer", func(t *testing.T) {
		gate, current := newTestGate(t)

		require.True(t, gate.Check("hello assistant"))

		*current = current.Add(time.Second * 5)
		assert.True(t, gate.Check("joke"))
		assert.True(t, gate.Awake())

		// 11s after the original activation; the 5s check above must not
		// have refreshed the window
		*current = time.Unix(1000, 0).Add(time.Second * 11)
		assert.False(t, gate.Check("joke"))
		assert.False(t, gate.Awake())
	})

	t.Run("asleep gate ignores non-phrase utterances", func(t *testing.T) {
		gate, _ := newTestGate(t)

		assert.False(t, gate.Check("tell me a joke"))
		assert.False(t, gate.Awake())
	})

	t.Run("a new phrase match restarts the window", func(t *testing.T) {
		gate, current := newTestGate(t)

		require.True(t, gate.Check("assistant"))

		*current = current.Add(time.Second * 8)
		require.True(t, gate.Check("assistant again"))

		*current = current.Add(time.Second * 9)
		assert.True(t, gate.Check("joke"))
	})
}

func TestGate_Reset(t *testing.T) {
	gate, _ := newTestGate(t)

	require.True(t, gate.Check("assistant"))
	require.True(t, gate.Awake())

	gate.Reset()

	assert.False(t, gate.Awake())
	assert.False(t, gate.Check("joke"))
}
