package pair

import (
	"errors"
	"io"
	"net"
	"os"
	"time"

	"sockpair/transport"
)

// NetConn adapts one side of a stream pair to [net.Conn] so the pair
// can stand in for a real connection wherever one is expected.
// Datagram endpoints are not adaptable: net.Conn has no message
// boundaries.
func NetConn(ep transport.Endpoint) net.Conn {
	return &netConn{ep: ep}
}

type netConn struct {
	ep transport.Endpoint
}

var _ net.Conn = (*netConn)(nil)

func (c *netConn) Read(p []byte) (int, error) {
	n, _, err := c.ep.Receive(p, 0)
	return n, mapNetErr(err)
}

func (c *netConn) Write(p []byte) (int, error) {
	n, err := c.ep.Send(p, nil, 0)
	return n, mapNetErr(err)
}

func (c *netConn) Close() error { return c.ep.Close() }

func (c *netConn) LocalAddr() net.Addr  { return netAddr{name: c.ep.LocalAddr().String()} }
func (c *netConn) RemoteAddr() net.Addr { return netAddr{name: c.ep.RemoteAddr().String()} }

func (c *netConn) SetDeadline(t time.Time) error {
	c.ep.SetReceiveDeadline(t)
	c.ep.SetSendDeadline(t)
	return nil
}

func (c *netConn) SetReadDeadline(t time.Time) error {
	c.ep.SetReceiveDeadline(t)
	return nil
}

func (c *netConn) SetWriteDeadline(t time.Time) error {
	c.ep.SetSendDeadline(t)
	return nil
}

// mapNetErr translates endpoint errors into the errors net.Conn
// callers match on. os.ErrDeadlineExceeded satisfies net.Error with
// Timeout() == true, so it must be returned unwrapped.
func mapNetErr(err error) error {
	switch {
	case err == nil || err == io.EOF:
		return err
	case errors.Is(err, transport.ErrDeadlineExceeded):
		return os.ErrDeadlineExceeded
	case errors.Is(err, transport.ErrEndpointClosed),
		errors.Is(err, transport.ErrPeerClosed):
		return net.ErrClosed
	}
	return err
}

type netAddr struct {
	name string
}

func (a netAddr) Network() string { return "pair" }
func (a netAddr) String() string  { return a.name }
