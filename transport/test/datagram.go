package test

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"sockpair/transport"
)

// DatagramEndpointTestSuite adds the behaviors only datagram pairs
// have: message boundaries, truncation, oversize rejection and
// control-once delivery.
type DatagramEndpointTestSuite struct {
	EndpointTestSuite
}

func (s *DatagramEndpointTestSuite) TestOversizeRejectedWhenEmpty() {
	// Oversize is relative to capacity, not to current occupancy.
	n, err := s.A.Send(make([]byte, s.Capacity+1), nil, 0)
	s.ErrorIs(err, transport.ErrMessageTooLarge)
	s.Zero(n)

	// The queue is untouched.
	_, _, err = s.B.Receive(make([]byte, 1), transport.DontWait)
	s.ErrorIs(err, transport.ErrWouldBlock)
}

func (s *DatagramEndpointTestSuite) TestSingleRecv() {
	// Two sends never collapse into one receive.
	first, second := bytes.Repeat([]byte("1"), 20), bytes.Repeat([]byte("2"), 20)

	_, err := s.A.Send(first, nil, 0)
	s.Require().NoError(err)
	_, err = s.A.Send(second, nil, 0)
	s.Require().NoError(err)

	buf := make([]byte, 40)
	n, _, err := s.B.Receive(buf, 0)
	s.Require().NoError(err)
	s.Equal(first, buf[:n])

	n, _, err = s.B.Receive(buf, 0)
	s.Require().NoError(err)
	s.Equal(second, buf[:n])
}

func (s *DatagramEndpointTestSuite) TestSinglePeek() {
	// A peek never crosses the head message boundary, however big the
	// buffer is, and repeats identically.
	first, second := bytes.Repeat([]byte("1"), 20), bytes.Repeat([]byte("2"), 20)

	_, err := s.A.Send(first, nil, 0)
	s.Require().NoError(err)
	_, err = s.A.Send(second, nil, 0)
	s.Require().NoError(err)

	buf := make([]byte, 40)
	for range 3 {
		n, _, err := s.B.Receive(buf, transport.Peek)
		s.Require().NoError(err)
		s.Equal(first, buf[:n])
	}

	n, _, err := s.B.Receive(buf, 0)
	s.Require().NoError(err)
	s.Equal(first, buf[:n])

	n, _, err = s.B.Receive(buf, 0)
	s.Require().NoError(err)
	s.Equal(second, buf[:n])
}

func (s *DatagramEndpointTestSuite) TestTruncReportsFullLength() {
	sent := bytes.Repeat([]byte("x"), 64)
	_, err := s.A.Send(sent, nil, 0)
	s.Require().NoError(err)

	buf := make([]byte, 32)
	n, rcpt, err := s.B.Receive(buf, transport.Trunc)
	s.Require().NoError(err)
	s.Equal(32, n)
	s.Equal(64, rcpt.MsgLen)
	s.True(rcpt.Truncated)
	s.Equal(sent[:32], buf)
}

func (s *DatagramEndpointTestSuite) TestTruncSameSize() {
	sent := bytes.Repeat([]byte("x"), 64)
	_, err := s.A.Send(sent, nil, 0)
	s.Require().NoError(err)

	buf := make([]byte, 64)
	n, rcpt, err := s.B.Receive(buf, transport.Trunc)
	s.Require().NoError(err)
	s.Equal(64, n)
	s.Equal(64, rcpt.MsgLen)
	s.False(rcpt.Truncated)
}

func (s *DatagramEndpointTestSuite) TestTruncNotFull() {
	sent := bytes.Repeat([]byte("x"), 64)
	_, err := s.A.Send(sent, nil, 0)
	s.Require().NoError(err)

	buf := make([]byte, 128)
	n, rcpt, err := s.B.Receive(buf, transport.Trunc)
	s.Require().NoError(err)
	s.Equal(64, n)
	s.Equal(64, rcpt.MsgLen)
	s.False(rcpt.Truncated)
}

func (s *DatagramEndpointTestSuite) TestTruncatedTailDiscarded() {
	// Without Trunc the reported length is what was copied; either
	// way the unread tail is gone and the next receive starts a fresh
	// message.
	_, err := s.A.Send([]byte("longer message"), nil, 0)
	s.Require().NoError(err)
	_, err = s.A.Send([]byte("next"), nil, 0)
	s.Require().NoError(err)

	buf := make([]byte, 6)
	n, rcpt, err := s.B.Receive(buf, 0)
	s.Require().NoError(err)
	s.Equal(6, n)
	s.Equal(6, rcpt.MsgLen)
	s.True(rcpt.Truncated)

	big := make([]byte, 64)
	n, _, err = s.B.Receive(big, 0)
	s.Require().NoError(err)
	s.Equal([]byte("next"), big[:n])
}

func (s *DatagramEndpointTestSuite) TestControlDeliveredOnce() {
	ctl := transport.Control("rights")

	_, err := s.A.Send([]byte("with control"), ctl, 0)
	s.Require().NoError(err)

	// First read of the message carries the control blob, peek or not.
	buf := make([]byte, 4)
	_, rcpt, err := s.B.Receive(buf, transport.Peek)
	s.Require().NoError(err)
	s.Equal(ctl, rcpt.Control)

	// Re-reading the same message must not re-deliver it.
	_, rcpt, err = s.B.Receive(make([]byte, 64), 0)
	s.Require().NoError(err)
	s.Nil(rcpt.Control)

	// The next message's control is fresh.
	_, err = s.A.Send([]byte("again"), ctl, 0)
	s.Require().NoError(err)

	_, rcpt, err = s.B.Receive(make([]byte, 64), 0)
	s.Require().NoError(err)
	s.Equal(ctl, rcpt.Control)
}

func (s *DatagramEndpointTestSuite) TestZeroLengthMessage() {
	_, err := s.A.Send(nil, nil, 0)
	s.Require().NoError(err)

	n, _, err := s.B.Receive(make([]byte, 16), 0)
	s.Require().NoError(err)
	s.Zero(n)

	// An empty message is not end-of-stream.
	_, _, err = s.B.Receive(make([]byte, 16), transport.DontWait)
	s.ErrorIs(err, transport.ErrWouldBlock)
}

func (s *DatagramEndpointTestSuite) TestWaitAllRejected() {
	_, _, err := s.B.Receive(make([]byte, 16), transport.WaitAll)
	s.ErrorIs(err, transport.ErrInvalidArgument)
}

func (s *DatagramEndpointTestSuite) TestBackpressure() {
	// Fill the buffer message by message, then check that a blocked
	// send is woken by consumption.
	msg := make([]byte, s.Capacity/2)

	_, err := s.A.Send(msg, nil, 0)
	s.Require().NoError(err)
	_, err = s.A.Send(msg, nil, 0)
	s.Require().NoError(err)

	_, err = s.A.Send([]byte("x"), nil, transport.DontWait)
	s.ErrorIs(err, transport.ErrWouldBlock)

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		n, err := s.A.Send([]byte("x"), nil, 0)
		s.Require().NoError(err)
		s.Equal(1, n)
	}()

	time.Sleep(50 * time.Millisecond)

	buf := make([]byte, s.Capacity)
	_, _, err = s.B.Receive(buf, 0)
	s.Require().NoError(err)
}

func (s *DatagramEndpointTestSuite) TestMessageAtomicityConcurrent() {
	// Concurrent same-side senders may be delivered in any order, but
	// every message arrives whole.
	const senders = 8

	sent := make(map[string]bool, senders)
	for i := range senders {
		sent[fmt.Sprintf("message-%d", i)] = false
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := make([]byte, 64)
		for {
			n, _, err := s.B.Receive(buf, 0)
			if err != nil {
				s.Require().ErrorIs(err, io.EOF)
				for msg, seen := range sent {
					s.True(seen, "missing message: %s", msg)
				}
				return
			}

			got := string(buf[:n])
			seen, ok := sent[got]
			s.Require().True(ok, "unexpected message: %q", got)
			s.Require().False(seen, "duplicated message: %q", got)
			sent[got] = true
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		var swg sync.WaitGroup
		for i := range senders {
			swg.Add(1)
			go func() {
				defer swg.Done()
				_, err := s.A.Send([]byte(fmt.Sprintf("message-%d", i)), nil, 0)
				s.Require().NoError(err)
			}()
		}
		swg.Wait()
		s.Require().NoError(s.A.Close())
	}()
}
