// Package pair implements an in-process socket pair: two endpoints
// cross-wired through a pair of capacity-bounded queues, reproducing
// OS socket semantics for stream and datagram disciplines without a
// kernel underneath.
package pair

import (
	"sync"

	"sockpair/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

type Addr struct {
	Name string
}

func (a Addr) Identifier() any { return a.Name }
func (a Addr) String() string  { return a.Name }

var _ transport.Addr = Addr{}

type options struct {
	nameA, nameB  string
	strictWaitAll bool
}

type Option func(*options)

// WithNames sets the two endpoints' addresses.
func WithNames(a, b string) Option {
	return func(o *options) { o.nameA, o.nameB = a, b }
}

// WithStrictWaitAll makes WaitAll|DontWait receives fail with
// [transport.ErrWouldBlock] unless the full request is already
// buffered. The default favors returning whatever is available.
func WithStrictWaitAll() Option {
	return func(o *options) { o.strictWaitAll = true }
}

// New creates a connected endpoint pair of the given kind. capacity
// bounds each direction's buffered bytes (the send buffer size) and
// MUST be more than 0.
func New(kind transport.Kind, capacity uint, clock clock.Clock, opts ...Option) (transport.Endpoint, transport.Endpoint) {
	if capacity == 0 {
		panic("buffer capacity cannot be 0")
	}

	o := options{nameA: "pair-a", nameB: "pair-b"}
	for _, opt := range opts {
		opt(&o)
	}

	switch kind {
	case transport.Stream:
		a, b := newStreamPair(capacity, clock, o)
		return a, b
	case transport.Datagram:
		a, b := newDatagramPair(capacity, clock, o)
		return a, b
	}
	panic("unknown pair kind: " + string(kind))
}

// queueState is the synchronization shared by the two ends of one
// direction queue: the queue mutex, the readable/writable conditions,
// flow accounting, and the two close markers.
type queueState struct {
	mu     sync.Mutex
	rd, wr sync.Cond // readable / writable

	flow flowController

	eof  bool // writer end closed; drain then end-of-stream.
	done bool // reader end closed; buffered data is abandoned.
}

func (q *queueState) init(capacity uint) {
	q.rd.L, q.wr.L = &q.mu, &q.mu
	q.flow = flowController{cap: capacity}
}

// wakeAll is used on close and deadline expiry: every waiter must
// re-check queue state.
func (q *queueState) wakeAll() {
	q.rd.Broadcast()
	q.wr.Broadcast()
}

const sendFlagMask = transport.DontWait

func checkFlags(f, allowed transport.Flags) error {
	if bad := f &^ allowed; bad != 0 {
		return errors.Wrapf(transport.ErrInvalidArgument, "unsupported flags: %s", bad)
	}
	return nil
}

func recvFlagMask(kind transport.Kind) transport.Flags {
	mask := transport.Peek | transport.Trunc | transport.DontWait
	if kind == transport.Stream {
		mask |= transport.WaitAll
	}
	return mask
}
