package transport

// Kind selects the discipline of an endpoint pair.
type Kind string

const (
	// Stream is connection-oriented and carries no message boundaries.
	Stream Kind = "stream"
	// Datagram preserves the boundary of every send.
	Datagram Kind = "datagram"
)

type Addr interface {
	Identifier() any // Extra identifier (e.g. pair slot name)
	String() string
}
