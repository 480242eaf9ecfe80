package transport

import (
	"errors"
	"time"
)

var (
	// ErrWouldBlock is returned when an operation would have suspended
	// the caller but [DontWait] was set. The caller may retry.
	ErrWouldBlock = errors.New("operation would block")
	// ErrMessageTooLarge is returned for a datagram send whose payload
	// can never fit the pair's buffer capacity, regardless of how much
	// of the buffer is currently in use.
	ErrMessageTooLarge = errors.New("message exceeds buffer capacity")
	// ErrEndpointClosed is returned for operations on a locally closed
	// endpoint.
	ErrEndpointClosed = errors.New("endpoint is closed")
	// ErrPeerClosed is returned for sends after the peer has closed.
	// Receives signal a closed peer with io.EOF once drained instead.
	ErrPeerClosed = errors.New("peer endpoint is closed")
	// ErrInvalidArgument is returned for malformed flags or flag
	// combinations. It is never retried internally.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDeadlineExceeded is returned once an endpoint's send or
	// receive deadline has passed, until the deadline is reset.
	ErrDeadlineExceeded = errors.New("deadline exceeded")
)

// State describes an endpoint's position in its lifecycle. Transitions
// are monotonic: Open → Closing → Closed.
type State uint8

const (
	// Open endpoints send and receive normally.
	Open State = iota
	// Closing endpoints are locally closed while the peer still has
	// buffered data of theirs left to drain.
	Closing
	// Closed endpoints are done; nothing remains for the peer.
	Closed
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// Endpoint is one side of a connected pair. Send enqueues into the
// peer's receive queue; Receive dequeues from this endpoint's own.
//
// An Endpoint may be driven from multiple goroutines. Concurrent sends
// on the same endpoint are not serialized against each other: bytes
// from two simultaneous stream sends may interleave, as they would on
// a real socket.
type Endpoint interface {
	// Send enqueues p (and, for datagram pairs, ctl) toward the peer.
	// It reports the number of payload bytes accepted. Stream sends
	// may be partial under [DontWait]; datagram sends are
	// all-or-nothing.
	Send(p []byte, ctl Control, flags Flags) (n int, err error)

	// Receive fills p from this endpoint's queue according to flags
	// and reports the bytes copied plus per-message metadata. A peer
	// that closed with nothing left buffered is reported as (0, io.EOF).
	Receive(p []byte, flags Flags) (n int, rcpt Receipt, err error)

	// Close marks the endpoint closed and wakes both sides. It is
	// idempotent. Data already buffered toward the peer remains
	// drainable by the peer.
	Close() error

	State() State

	LocalAddr() Addr
	RemoteAddr() Addr

	SetReceiveDeadline(t time.Time)
	SetSendDeadline(t time.Time)
}
