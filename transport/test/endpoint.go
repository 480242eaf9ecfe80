// Package test carries reusable suites that any [transport.Endpoint]
// implementation must pass, regardless of how the pair is built.
package test

import (
	"io"
	"sync"
	"time"

	"sockpair/transport"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

// EndpointTestSuite holds the behaviors common to both disciplines.
// Embedders create the pair in SetupTest and fill A, B and Capacity.
// Tests assume Capacity is at least 128.
type EndpointTestSuite struct {
	suite.Suite
	A, B     transport.Endpoint
	Capacity uint
	Clock    clock.Clock

	done  chan struct{}
	timer *time.Timer
}

func (s *EndpointTestSuite) SetupTest() {
	s.done = make(chan struct{})
	s.Clock = clock.New() // Use real-time timer for now.

	s.timer = time.AfterFunc(2*time.Second, func() {
		select {
		case <-s.done:
		default:
			s.FailNow("timeout exceeded")
		}
	})
}

func (s *EndpointTestSuite) TearDownTest() {
	defer goleak.VerifyNone(s.T())
	s.NoError(s.A.Close())
	s.NoError(s.B.Close())
	close(s.done)
	s.timer.Stop()
}

func (s *EndpointTestSuite) TestSendReceive() {
	data := []byte("Hello, World!")

	n, err := s.A.Send(data, nil, 0)
	s.Require().NoError(err)
	s.Equal(len(data), n)

	buf := make([]byte, 64)
	n, _, err = s.B.Receive(buf, 0)
	s.Require().NoError(err)
	s.Equal(data, buf[:n])
}

func (s *EndpointTestSuite) TestReceiveDontWaitEmpty() {
	buf := make([]byte, 16)
	n, _, err := s.B.Receive(buf, transport.DontWait)
	s.ErrorIs(err, transport.ErrWouldBlock)
	s.Zero(n)
}

func (s *EndpointTestSuite) TestCloseIdempotent() {
	s.Require().NoError(s.A.Close())
	s.Require().NoError(s.A.Close())
}

func (s *EndpointTestSuite) TestOpsAfterLocalClose() {
	s.Require().NoError(s.A.Close())

	buf := make([]byte, 16)

	n, _, err := s.A.Receive(buf, 0)
	s.ErrorIs(err, transport.ErrEndpointClosed)
	s.Zero(n)

	n, err = s.A.Send(buf, nil, 0)
	s.ErrorIs(err, transport.ErrEndpointClosed)
	s.Zero(n)
}

func (s *EndpointTestSuite) TestSendAfterPeerClose() {
	s.Require().NoError(s.B.Close())

	n, err := s.A.Send([]byte("hey"), nil, 0)
	s.ErrorIs(err, transport.ErrPeerClosed)
	s.Zero(n)
}

func (s *EndpointTestSuite) TestDrainAfterPeerClose() {
	data := []byte("parting words")

	n, err := s.A.Send(data, nil, 0)
	s.Require().NoError(err)
	s.Require().Equal(len(data), n)

	s.Require().NoError(s.A.Close())

	// Buffered data survives the peer's close...
	buf := make([]byte, 64)
	n, _, err = s.B.Receive(buf, 0)
	s.Require().NoError(err)
	s.Equal(data, buf[:n])

	// ...then the receiver observes orderly shutdown.
	n, _, err = s.B.Receive(buf, 0)
	s.ErrorIs(err, io.EOF)
	s.Zero(n)
}

func (s *EndpointTestSuite) TestBlockedReceiveWokenBySend() {
	data := []byte("wake up")

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := make([]byte, 64)
		n, _, err := s.B.Receive(buf, 0)
		s.Require().NoError(err)
		s.Equal(data, buf[:n])
	}()

	time.Sleep(50 * time.Millisecond)
	_, err := s.A.Send(data, nil, 0)
	s.Require().NoError(err)
}

func (s *EndpointTestSuite) TestBlockedReceiveWokenByPeerClose() {
	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		n, _, err := s.B.Receive(make([]byte, 16), 0)
		s.ErrorIs(err, io.EOF)
		s.Zero(n)
	}()

	time.Sleep(50 * time.Millisecond)
	s.Require().NoError(s.A.Close())
}

func (s *EndpointTestSuite) TestBlockedReceiveWokenByLocalClose() {
	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _, err := s.B.Receive(make([]byte, 16), 0)
		s.ErrorIs(err, transport.ErrEndpointClosed)
	}()

	time.Sleep(50 * time.Millisecond)
	s.Require().NoError(s.B.Close())
}

func (s *EndpointTestSuite) TestReceiveDeadline() {
	s.B.SetReceiveDeadline(s.Clock.Now().Add(-time.Second))

	n, _, err := s.B.Receive(make([]byte, 1), 0)
	s.ErrorIs(err, transport.ErrDeadlineExceeded)
	s.Zero(n)
}

func (s *EndpointTestSuite) TestSendDeadline() {
	s.A.SetSendDeadline(s.Clock.Now().Add(-time.Second))

	n, err := s.A.Send(make([]byte, 1), nil, 0)
	s.ErrorIs(err, transport.ErrDeadlineExceeded)
	s.Zero(n)
}

func (s *EndpointTestSuite) TestDeadlineWakesBlockedReceive() {
	s.B.SetReceiveDeadline(s.Clock.Now().Add(50 * time.Millisecond))

	_, _, err := s.B.Receive(make([]byte, 16), 0)
	s.ErrorIs(err, transport.ErrDeadlineExceeded)

	// Clearing the deadline makes the endpoint usable again.
	s.B.SetReceiveDeadline(time.Time{})

	_, err = s.A.Send([]byte("late"), nil, 0)
	s.Require().NoError(err)

	n, _, err := s.B.Receive(make([]byte, 16), 0)
	s.Require().NoError(err)
	s.Equal(4, n)
}

func (s *EndpointTestSuite) TestInvalidFlags() {
	_, err := s.A.Send([]byte("x"), nil, transport.Peek)
	s.ErrorIs(err, transport.ErrInvalidArgument)

	_, _, err = s.B.Receive(make([]byte, 1), transport.Flags(1<<7))
	s.ErrorIs(err, transport.ErrInvalidArgument)
}

func (s *EndpointTestSuite) TestAddr() {
	local1, remote1 := s.A.LocalAddr(), s.A.RemoteAddr()
	local2, remote2 := s.B.LocalAddr(), s.B.RemoteAddr()

	s.Equal(local1, remote2)
	s.Equal(local2, remote1)
}

func (s *EndpointTestSuite) TestStateLifecycle() {
	s.Equal(transport.Open, s.A.State())
	s.Equal(transport.Open, s.B.State())

	_, err := s.A.Send([]byte("tail"), nil, 0)
	s.Require().NoError(err)

	s.Require().NoError(s.A.Close())
	s.Equal(transport.Closing, s.A.State())

	// Draining the leftover completes the shutdown.
	n, _, err := s.B.Receive(make([]byte, 64), 0)
	s.Require().NoError(err)
	s.Equal(4, n)

	s.Equal(transport.Closed, s.A.State())
}
