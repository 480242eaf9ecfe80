package pair

import (
	"io"
	"net"
	"os"
	"testing"
	"time"

	"sockpair/transport"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/nettest"
)

func TestNetConn(t *testing.T) {
	nettest.TestConn(t, func() (c1, c2 net.Conn, stop func(), err error) {
		a, b := New(transport.Stream, 1<<16, clock.New())
		c1, c2 = NetConn(a), NetConn(b)
		stop = func() {
			c1.Close()
			c2.Close()
		}
		return c1, c2, stop, nil
	})
}

func TestNetConnEOF(t *testing.T) {
	a, b := New(transport.Stream, 16, clock.New())
	c1, c2 := NetConn(a), NetConn(b)
	defer c2.Close()

	_, err := c1.Write([]byte("bye"))
	require.NoError(t, err)
	require.NoError(t, c1.Close())

	buf := make([]byte, 16)
	n, err := c2.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("bye"), buf[:n])

	_, err = c2.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestNetConnDeadlineError(t *testing.T) {
	a, b := New(transport.Stream, 16, clock.New())
	c1 := NetConn(a)
	defer c1.Close()
	defer b.Close()

	require.NoError(t, c1.SetReadDeadline(time.Now().Add(-time.Second)))

	_, err := c1.Read(make([]byte, 1))
	assert.ErrorIs(t, err, os.ErrDeadlineExceeded)

	var nerr net.Error
	require.ErrorAs(t, err, &nerr)
	assert.True(t, nerr.Timeout())
}

func TestNetConnClosedError(t *testing.T) {
	a, b := New(transport.Stream, 16, clock.New())
	c1 := NetConn(a)
	defer b.Close()

	require.NoError(t, c1.Close())

	_, err := c1.Write([]byte("x"))
	assert.ErrorIs(t, err, net.ErrClosed)
}

func TestNetConnAddrs(t *testing.T) {
	a, _ := New(transport.Stream, 16, clock.New(), WithNames("left", "right"))
	c1 := NetConn(a)

	assert.Equal(t, "pair", c1.LocalAddr().Network())
	assert.Equal(t, "left", c1.LocalAddr().String())
	assert.Equal(t, "right", c1.RemoteAddr().String())
}
