package pair

import (
	"testing"

	"sockpair/transport"
	"sockpair/transport/test"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StreamPairTestSuite struct {
	test.StreamEndpointTestSuite
}

func TestStreamPairTestSuite(t *testing.T) {
	suite.Run(t, new(StreamPairTestSuite))
}

func (s *StreamPairTestSuite) SetupTest() {
	s.StreamEndpointTestSuite.SetupTest()
	s.Capacity = 128
	s.A, s.B = New(transport.Stream, s.Capacity, s.Clock)
}

type DatagramPairTestSuite struct {
	test.DatagramEndpointTestSuite
}

func TestDatagramPairTestSuite(t *testing.T) {
	suite.Run(t, new(DatagramPairTestSuite))
}

func (s *DatagramPairTestSuite) SetupTest() {
	s.DatagramEndpointTestSuite.SetupTest()
	s.Capacity = 256
	s.A, s.B = New(transport.Datagram, s.Capacity, s.Clock)
}

func TestNewZeroCapacityPanics(t *testing.T) {
	assert.Panics(t, func() {
		New(transport.Stream, 0, clock.New())
	})
}

func TestNewUnknownKindPanics(t *testing.T) {
	assert.Panics(t, func() {
		New(transport.Kind("seqpacket"), 16, clock.New())
	})
}

func TestWithNames(t *testing.T) {
	a, b := New(transport.Stream, 16, clock.New(), WithNames("left", "right"))

	assert.Equal(t, "left", a.LocalAddr().String())
	assert.Equal(t, "right", a.RemoteAddr().String())
	assert.Equal(t, "right", b.LocalAddr().String())
	assert.Equal(t, "left", b.RemoteAddr().String())
}

func TestStrictWaitAll(t *testing.T) {
	a, b := New(transport.Stream, 64, clock.New(), WithStrictWaitAll())
	defer a.Close()
	defer b.Close()

	_, err := a.Send([]byte("hello"), nil, 0)
	require.NoError(t, err)

	// Under the strict policy a short buffer is a failure, not a
	// partial read.
	buf := make([]byte, 10)
	_, _, err = b.Receive(buf, transport.WaitAll|transport.DontWait)
	assert.ErrorIs(t, err, transport.ErrWouldBlock)

	// The full request goes through untouched.
	n, _, err := b.Receive(buf[:5], transport.WaitAll|transport.DontWait)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), buf[:n])
}

func TestStreamRejectsControlData(t *testing.T) {
	a, b := New(transport.Stream, 16, clock.New())
	defer a.Close()
	defer b.Close()

	_, err := a.Send([]byte("x"), transport.Control("ctl"), 0)
	assert.ErrorIs(t, err, transport.ErrInvalidArgument)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "open", transport.Open.String())
	assert.Equal(t, "closing", transport.Closing.String())
	assert.Equal(t, "closed", transport.Closed.String())
}

func TestFlagsString(t *testing.T) {
	assert.Equal(t, "none", transport.Flags(0).String())
	assert.Equal(t, "peek|dontwait", (transport.Peek | transport.DontWait).String())
	assert.Equal(t, "invalid", transport.Flags(1<<6).String())
}
