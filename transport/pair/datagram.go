package pair

import (
	"bytes"
	"io"
	"sync"
	"time"

	"sockpair/lib/ds/queue"
	"sockpair/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// message is one atomic datagram: payload, an optional control blob
// attached to the message as a whole, and the cursors that keep its
// identity across peeks and partial consumption.
type message struct {
	payload []byte
	control transport.Control

	off      int  // consumed prefix of payload.
	ctlTaken bool // control is delivered once, on the first read.
}

func (m *message) remaining() []byte { return m.payload[m.off:] }

// messageQueue is one direction of a datagram pair: an ordered FIFO
// of messages, bounded by total buffered payload bytes.
type messageQueue struct {
	queueState
	msgs *queue.Ring[*message]
}

func newMessageQueue(capacity uint) *messageQueue {
	q := &messageQueue{msgs: queue.NewRing[*message](8)}
	q.init(capacity)
	return q
}

// enqueue admits payload+ctl as one message. All-or-nothing: false
// means there is no room right now. The caller holds q.mu and has
// already ruled out oversize payloads.
func (q *messageQueue) enqueue(payload []byte, ctl transport.Control) bool {
	if !q.flow.tryReserve(uint(len(payload))) {
		return false
	}

	q.msgs.Enqueue(&message{
		payload: bytes.Clone(payload),
		control: transport.Control(bytes.Clone(ctl)),
	})
	return true
}

// front returns the head message without removing it.
func (q *messageQueue) front() (*message, bool) {
	m, err := q.msgs.Peek()
	if err != nil {
		return nil, false
	}
	return m, true
}

// consumeHead drops up to n bytes of the head message's payload. The
// message keeps its identity (and its control-once marker) until the
// payload is fully drained, at which point it leaves the queue.
func (q *messageQueue) consumeHead(n int) {
	m, ok := q.front()
	if !ok {
		return
	}

	take := min(n, len(m.remaining()))
	m.off += take
	q.flow.release(uint(take))

	if m.off == len(m.payload) {
		q.msgs.Dequeue()
	}
}

// dropHead removes the head message entirely, unread tail included.
func (q *messageQueue) dropHead() {
	m, ok := q.front()
	if !ok {
		return
	}

	q.flow.release(uint(len(m.remaining())))
	q.msgs.Dequeue()
}

type datagramEndpoint struct {
	recv *messageQueue // owned; the peer sends into this.
	send *messageQueue // the peer's recv.

	addr, peerAddr Addr

	rdeadline, wdeadline *deadline

	closeOnce sync.Once
}

var _ transport.Endpoint = (*datagramEndpoint)(nil)

func newDatagramPair(capacity uint, clk clock.Clock, o options) (a, b *datagramEndpoint) {
	qa, qb := newMessageQueue(capacity), newMessageQueue(capacity)

	a = &datagramEndpoint{
		recv: qa, send: qb,
		addr: Addr{Name: o.nameA}, peerAddr: Addr{Name: o.nameB},
		rdeadline: newDeadline(clk), wdeadline: newDeadline(clk),
	}
	b = &datagramEndpoint{
		recv: qb, send: qa,
		addr: Addr{Name: o.nameB}, peerAddr: Addr{Name: o.nameA},
		rdeadline: newDeadline(clk), wdeadline: newDeadline(clk),
	}
	return a, b
}

func (e *datagramEndpoint) LocalAddr() transport.Addr  { return e.addr }
func (e *datagramEndpoint) RemoteAddr() transport.Addr { return e.peerAddr }

func (e *datagramEndpoint) Send(p []byte, ctl transport.Control, flags transport.Flags) (int, error) {
	if err := checkFlags(flags, sendFlagMask); err != nil {
		return 0, err
	}

	q := e.send

	// Oversize is judged against total capacity, not remaining space:
	// this payload can never fit, however empty the queue is.
	if uint(len(p)) > q.flow.capacity() {
		return 0, errors.Wrapf(transport.ErrMessageTooLarge,
			"payload is %d bytes, capacity is %d", len(p), q.flow.capacity())
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if q.eof {
			return 0, transport.ErrEndpointClosed
		}
		if q.done {
			return 0, transport.ErrPeerClosed
		}
		if e.wdeadline.exceeded() {
			return 0, transport.ErrDeadlineExceeded
		}

		if q.enqueue(p, ctl) {
			q.rd.Broadcast()
			return len(p), nil
		}

		if flags.Has(transport.DontWait) {
			return 0, transport.ErrWouldBlock
		}
		q.wr.Wait()
	}
}

func (e *datagramEndpoint) Receive(p []byte, flags transport.Flags) (int, transport.Receipt, error) {
	if err := checkFlags(flags, recvFlagMask(transport.Datagram)); err != nil {
		return 0, transport.Receipt{}, err
	}

	q := e.recv
	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if q.done {
			return 0, transport.Receipt{}, transport.ErrEndpointClosed
		}
		if e.rdeadline.exceeded() {
			return 0, transport.Receipt{}, transport.ErrDeadlineExceeded
		}

		if m, ok := q.front(); ok {
			return e.read(m, p, flags)
		}

		if q.eof {
			// The peer closed; this queue stays empty forever.
			return 0, transport.Receipt{}, io.EOF
		}
		if flags.Has(transport.DontWait) {
			return 0, transport.Receipt{}, transport.ErrWouldBlock
		}
		q.rd.Wait()
	}
}

// read delivers from the head message only. A peek never crosses the
// message boundary, whatever len(p) is. The caller holds q.mu.
func (e *datagramEndpoint) read(m *message, p []byte, flags transport.Flags) (int, transport.Receipt, error) {
	q := e.recv

	payload := m.remaining()
	n := copy(p, payload)

	rcpt := transport.Receipt{MsgLen: n}
	if flags.Has(transport.Trunc) {
		rcpt.MsgLen = len(m.payload)
	}
	if n < len(payload) {
		rcpt.Truncated = true
	}
	if !m.ctlTaken {
		rcpt.Control = m.control
		m.ctlTaken = true
	}

	if !flags.Has(transport.Peek) {
		// The unread tail is discarded with the message.
		q.dropHead()
		q.wr.Broadcast()
	}

	return n, rcpt, nil
}

func (e *datagramEndpoint) Close() error {
	e.closeOnce.Do(func() {
		// Receive side: abandon buffered messages, wake peer senders.
		e.recv.mu.Lock()
		e.recv.done = true
		for e.recv.msgs.Len() > 0 {
			e.recv.dropHead()
		}
		e.recv.wakeAll()
		e.recv.mu.Unlock()

		// Send side: buffered messages stay drainable by the peer.
		e.send.mu.Lock()
		e.send.eof = true
		e.send.wakeAll()
		e.send.mu.Unlock()
	})
	return nil
}

func (e *datagramEndpoint) State() transport.State {
	e.send.mu.Lock()
	defer e.send.mu.Unlock()

	switch {
	case !e.send.eof:
		return transport.Open
	case !e.send.done && e.send.msgs.Len() > 0:
		return transport.Closing
	default:
		return transport.Closed
	}
}

func (e *datagramEndpoint) SetReceiveDeadline(t time.Time) {
	e.rdeadline.set(t, func() { e.recv.rd.Broadcast() })
}

func (e *datagramEndpoint) SetSendDeadline(t time.Time) {
	e.wdeadline.set(t, func() { e.send.wr.Broadcast() })
}
