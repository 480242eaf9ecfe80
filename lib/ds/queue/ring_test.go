package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingNew(t *testing.T) {
	q := NewRing[int](4)

	assert.Equal(t, uint(0), q.Len())
}

func TestRingEnqueueDequeue(t *testing.T) {
	q := NewRing[int](2)

	q.Enqueue(1)
	q.Enqueue(2)
	q.Enqueue(3) // forces growth past the initial capacity.

	val, err := q.Dequeue()
	assert.NoError(t, err)
	assert.Equal(t, 1, val)

	q.Enqueue(4)
	assert.Equal(t, uint(3), q.Len())
}

func TestRingPeek(t *testing.T) {
	q := NewRing[string](2)

	q.Enqueue("hello")
	q.Enqueue("world")

	val, err := q.Peek()
	assert.NoError(t, err)
	assert.Equal(t, "hello", val)

	// should not remove
	assert.Equal(t, uint(2), q.Len())
}

func TestRingEmpty(t *testing.T) {
	q := NewRing[int](0)

	val, err := q.Dequeue()
	assert.ErrorIs(t, err, ErrQueueEmpty)
	assert.Zero(t, val)

	val, err = q.Peek()
	assert.ErrorIs(t, err, ErrQueueEmpty)
	assert.Zero(t, val)
}

func TestRingWrapAround(t *testing.T) {
	q := NewRing[int](4)

	q.Enqueue(1)
	q.Enqueue(2)
	q.Dequeue() // head moves
	q.Enqueue(3)
	q.Enqueue(4)
	q.Enqueue(5) // tail wraps around

	assert.Equal(t, uint(4), q.Len())

	for want := 2; want <= 5; want++ {
		v, err := q.Dequeue()
		assert.NoError(t, err)
		assert.Equal(t, want, v)
	}

	assert.Equal(t, uint(0), q.Len())
}

func TestRingGrowKeepsOrder(t *testing.T) {
	q := NewRing[int](2)

	// Rotate so head is mid-slice, then grow.
	q.Enqueue(0)
	q.Dequeue()
	for i := 1; i <= 8; i++ {
		q.Enqueue(i)
	}

	for want := 1; want <= 8; want++ {
		v, err := q.Dequeue()
		assert.NoError(t, err)
		assert.Equal(t, want, v)
	}
}
