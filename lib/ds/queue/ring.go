package queue

// Ring is a FIFO queue backed by a circular slice that doubles in
// place when full. The zero number of elements is reachable again
// after arbitrary enqueue/dequeue interleavings without shrinking.
type Ring[T any] struct {
	buf        []T
	head, tail uint

	count uint
}

func NewRing[T any](initialCap uint) *Ring[T] {
	if initialCap == 0 {
		initialCap = 1
	}
	return &Ring[T]{buf: make([]T, initialCap)}
}

var _ Queue[int] = (*Ring[int])(nil)

// Enqueue adds an element to the tail, growing the ring if needed.
func (q *Ring[T]) Enqueue(v T) {
	if q.count == uint(len(q.buf)) {
		q.grow()
	}

	q.buf[q.tail] = v
	q.tail = q.advance(q.tail)
	q.count++
}

// Dequeue removes and returns the head element.
// If the queue is empty. It will return [ErrQueueEmpty].
func (q *Ring[T]) Dequeue() (T, error) {
	var zero T
	if q.count == 0 {
		return zero, ErrQueueEmpty
	}

	v := q.buf[q.head]
	q.buf[q.head] = zero // drop the reference so it can be collected.

	q.head = q.advance(q.head)
	q.count--

	return v, nil
}

// Peek returns the head element without removing it.
// If the queue is empty. It will return [ErrQueueEmpty].
func (q *Ring[T]) Peek() (T, error) {
	if q.count == 0 {
		var zero T
		return zero, ErrQueueEmpty
	}

	return q.buf[q.head], nil
}

// Len returns the number of elements in the queue.
func (q *Ring[T]) Len() uint {
	return q.count
}

func (q *Ring[T]) advance(n uint) uint {
	return (n + 1) % uint(len(q.buf))
}

func (q *Ring[T]) grow() {
	bigger := make([]T, 2*len(q.buf))

	n := copy(bigger, q.buf[q.head:])
	copy(bigger[n:], q.buf[:q.head])

	q.buf = bigger
	q.head, q.tail = 0, q.count
}
