package pair

import (
	"bytes"
	"io"
	"sync"
	"time"

	"sockpair/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// streamQueue is one direction of a stream pair: a byte FIFO with no
// internal boundaries. Writes are clamped to the flow controller's
// room, so the buffer never grows past capacity.
type streamQueue struct {
	queueState
	buf *bytes.Buffer
}

func newStreamQueue(capacity uint) *streamQueue {
	q := &streamQueue{buf: bytes.NewBuffer(make([]byte, 0, capacity))}
	q.init(capacity)
	return q
}

type streamEndpoint struct {
	recv *streamQueue // owned; the peer sends into this.
	send *streamQueue // the peer's recv.

	addr, peerAddr Addr

	rdeadline, wdeadline *deadline

	strictWaitAll bool

	closeOnce sync.Once
}

var _ transport.Endpoint = (*streamEndpoint)(nil)

func newStreamPair(capacity uint, clk clock.Clock, o options) (a, b *streamEndpoint) {
	qa, qb := newStreamQueue(capacity), newStreamQueue(capacity)

	a = &streamEndpoint{
		recv: qa, send: qb,
		addr: Addr{Name: o.nameA}, peerAddr: Addr{Name: o.nameB},
		rdeadline: newDeadline(clk), wdeadline: newDeadline(clk),
		strictWaitAll: o.strictWaitAll,
	}
	b = &streamEndpoint{
		recv: qb, send: qa,
		addr: Addr{Name: o.nameB}, peerAddr: Addr{Name: o.nameA},
		rdeadline: newDeadline(clk), wdeadline: newDeadline(clk),
		strictWaitAll: o.strictWaitAll,
	}
	return a, b
}

func (e *streamEndpoint) LocalAddr() transport.Addr  { return e.addr }
func (e *streamEndpoint) RemoteAddr() transport.Addr { return e.peerAddr }

func (e *streamEndpoint) Send(p []byte, ctl transport.Control, flags transport.Flags) (int, error) {
	if err := checkFlags(flags, sendFlagMask); err != nil {
		return 0, err
	}
	if len(ctl) > 0 {
		return 0, errors.Wrap(transport.ErrInvalidArgument, "stream sends carry no control data")
	}

	q := e.send
	q.mu.Lock()
	defer q.mu.Unlock()

	// Ensure all the bytes are sent unless DontWait cuts us short.
	nn := 0
	for once := true; once || len(p) > 0; once = false {
		if q.eof {
			return nn, transport.ErrEndpointClosed
		}
		if q.done {
			return nn, transport.ErrPeerClosed
		}
		if e.wdeadline.exceeded() {
			return nn, transport.ErrDeadlineExceeded
		}

		// We don't want the peer's buffer to grow, so only the part
		// that fits right now is admitted.
		if chunk := min(uint(len(p)), q.flow.room()); chunk > 0 && q.flow.tryReserve(chunk) {
			q.buf.Write(p[:chunk])
			p = p[chunk:]
			nn += int(chunk)

			q.rd.Broadcast()
			continue
		}

		if len(p) == 0 {
			break
		}
		if flags.Has(transport.DontWait) {
			if nn == 0 {
				return 0, transport.ErrWouldBlock
			}
			return nn, nil // partial send, reported via the count.
		}
		q.wr.Wait()
	}

	return nn, nil
}

func (e *streamEndpoint) Receive(p []byte, flags transport.Flags) (int, transport.Receipt, error) {
	if err := checkFlags(flags, recvFlagMask(transport.Stream)); err != nil {
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

		if avail := q.buf.Len(); avail > 0 {
			// WaitAll holds out for a full read while the peer is
			// still open.
			if flags.Has(transport.WaitAll) && avail < len(p) && !q.eof {
				if !flags.Has(transport.DontWait) {
					q.rd.Wait()
					continue
				}
				if e.strictWaitAll {
					return 0, transport.Receipt{}, errors.Wrap(transport.ErrWouldBlock, "waitall needs a full buffer")
				}
			}
			return e.read(p, flags)
		}

		if q.eof {
			// Orderly shutdown: the peer closed and everything it
			// sent has been drained.
			return 0, transport.Receipt{}, io.EOF
		}
		if flags.Has(transport.DontWait) {
			return 0, transport.Receipt{}, transport.ErrWouldBlock
		}
		q.rd.Wait()
	}
}

// read copies from the head of the queue. The caller holds q.mu and
// has checked that data is buffered.
func (e *streamEndpoint) read(p []byte, flags transport.Flags) (int, transport.Receipt, error) {
	q := e.recv

	var n int
	if flags.Has(transport.Peek) {
		n = copy(p, q.buf.Bytes())
	} else {
		n, _ = q.buf.Read(p)
		q.flow.release(uint(n))
		q.wr.Broadcast()
	}

	return n, transport.Receipt{MsgLen: n}, nil
}

func (e *streamEndpoint) Close() error {
	e.closeOnce.Do(func() {
		// Receive side: nobody will read this queue anymore, so the
		// buffered data is abandoned and blocked peer senders wake.
		e.recv.mu.Lock()
		e.recv.done = true
		e.recv.flow.release(uint(e.recv.buf.Len()))
		e.recv.buf.Reset()
		e.recv.wakeAll()
		e.recv.mu.Unlock()

		// Send side: what's buffered stays drainable by the peer,
		// then it observes end-of-stream.
		e.send.mu.Lock()
		e.send.eof = true
		e.send.wakeAll()
		e.send.mu.Unlock()
	})
	return nil
}

func (e *streamEndpoint) State() transport.State {
	e.send.mu.Lock()
	defer e.send.mu.Unlock()

	switch {
	case !e.send.eof:
		return transport.Open
	case !e.send.done && e.send.flow.buffered() > 0:
		return transport.Closing
	default:
		return transport.Closed
	}
}

func (e *streamEndpoint) SetReceiveDeadline(t time.Time) {
	e.rdeadline.set(t, func() { e.recv.rd.Broadcast() })
}

func (e *streamEndpoint) SetSendDeadline(t time.Time) {
	e.wdeadline.set(t, func() { e.send.wr.Broadcast() })
}
