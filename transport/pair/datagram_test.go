package pair

import (
	"testing"

	"sockpair/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageQueuePartialConsume(t *testing.T) {
	q := newMessageQueue(32)

	require.True(t, q.enqueue([]byte("abcdef"), transport.Control("ctl")))
	require.True(t, q.enqueue([]byte("next"), nil))

	// A partial consume keeps the head message's identity.
	q.consumeHead(2)

	m, ok := q.front()
	require.True(t, ok)
	assert.Equal(t, []byte("cdef"), m.remaining())
	assert.Equal(t, transport.Control("ctl"), m.control)
	assert.Equal(t, uint(8), q.flow.buffered())

	// Draining the payload removes the message; the next one becomes
	// head.
	q.consumeHead(4)

	m, ok = q.front()
	require.True(t, ok)
	assert.Equal(t, []byte("next"), m.remaining())
	assert.Equal(t, uint(4), q.flow.buffered())
}

func TestMessageQueueConsumePastEnd(t *testing.T) {
	q := newMessageQueue(32)

	require.True(t, q.enqueue([]byte("abc"), nil))

	// Consuming more than remains is clamped to the head message.
	q.consumeHead(100)

	_, ok := q.front()
	assert.False(t, ok)
	assert.Equal(t, uint(0), q.flow.buffered())
}

func TestMessageQueueEnqueueFull(t *testing.T) {
	q := newMessageQueue(8)

	require.True(t, q.enqueue([]byte("12345"), nil))
	assert.False(t, q.enqueue([]byte("6789"), nil))

	// Enqueue is all-or-nothing: the rejected message left no trace.
	assert.Equal(t, uint(5), q.flow.buffered())
	assert.Equal(t, uint(1), q.msgs.Len())
}

func TestMessageQueueDropHeadReleasesTail(t *testing.T) {
	q := newMessageQueue(16)

	require.True(t, q.enqueue([]byte("abcdef"), nil))
	q.consumeHead(2)

	// dropHead releases the unread tail too.
	q.dropHead()
	assert.Equal(t, uint(0), q.flow.buffered())

	_, ok := q.front()
	assert.False(t, ok)
}

func TestMessageQueueCopiesPayload(t *testing.T) {
	q := newMessageQueue(16)

	payload := []byte("mutate me")
	require.True(t, q.enqueue(payload, nil))
	payload[0] = 'X'

	m, ok := q.front()
	require.True(t, ok)
	assert.Equal(t, []byte("mutate me"), m.remaining())
}
