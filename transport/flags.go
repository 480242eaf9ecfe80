package transport

import "strings"

// Flags adjust a single Send or Receive call. They form a bitset so
// that combinations (Peek|Trunc, Trunc|DontWait, ...) stay first-class.
type Flags uint8

const (
	// Peek reads without removing data from the queue.
	Peek Flags = 1 << iota
	// Trunc reports a datagram's original payload length even when the
	// destination buffer is smaller.
	Trunc
	// DontWait fails with [ErrWouldBlock] instead of suspending.
	DontWait
	// WaitAll makes a stream receive wait until the full buffer can be
	// filled or the peer closes. Stream-only.
	WaitAll
)

// Has reports whether every flag in want is set.
func (f Flags) Has(want Flags) bool { return f&want == want }

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}

	names := make([]string, 0, 4)
	for _, e := range [...]struct {
		flag Flags
		name string
	}{
		{Peek, "peek"},
		{Trunc, "trunc"},
		{DontWait, "dontwait"},
		{WaitAll, "waitall"},
	} {
		if f.Has(e.flag) {
			names = append(names, e.name)
			f &^= e.flag
		}
	}
	if f != 0 {
		names = append(names, "invalid")
	}

	return strings.Join(names, "|")
}

// Control is an opaque out-of-band blob attached to a datagram as a
// whole. It is delivered at most once per message, on the first read
// of that message.
type Control []byte

// Receipt carries receive-side metadata alongside the copied bytes.
type Receipt struct {
	// Control holds the head message's control blob if this call was
	// the first read of that message, nil otherwise.
	Control Control
	// MsgLen reports the received message's length: with Trunc set it
	// is the original payload length even when fewer bytes were
	// copied, otherwise it is the number of bytes copied. For streams
	// it always equals the number of bytes copied.
	MsgLen int
	// Truncated is set when the destination buffer was too small for
	// the message and the tail was dropped (or withheld, under Peek).
	Truncated bool
}
