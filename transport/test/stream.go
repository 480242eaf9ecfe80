package test

import (
	"bytes"
	"io"
	"sync"
	"time"

	"sockpair/transport"
)

// StreamEndpointTestSuite adds the behaviors only stream pairs have:
// boundary-free chunking, partial sends, backpressure and WaitAll.
type StreamEndpointTestSuite struct {
	EndpointTestSuite
}

func (s *StreamEndpointTestSuite) TestOrderPreservation() {
	// However reads are chunked, the receiver sees the exact
	// concatenation of what was sent.
	chunks := [][]byte{
		[]byte("He"), []byte("llo, "), []byte("World"), []byte("!"),
	}
	want := bytes.Join(chunks, nil)

	for _, c := range chunks {
		n, err := s.A.Send(c, nil, 0)
		s.Require().NoError(err)
		s.Require().Equal(len(c), n)
	}

	got := make([]byte, 0, len(want))
	for _, size := range []int{1, 4, 2, 64} {
		buf := make([]byte, size)
		n, _, err := s.B.Receive(buf, 0)
		s.Require().NoError(err)
		got = append(got, buf[:n]...)
	}

	s.Equal(want, got)
}

func (s *StreamEndpointTestSuite) TestReceiveAcrossSendBoundary() {
	_, err := s.A.Send([]byte("ab"), nil, 0)
	s.Require().NoError(err)
	_, err = s.A.Send([]byte("cd"), nil, 0)
	s.Require().NoError(err)

	// One read spans both sends.
	buf := make([]byte, 4)
	n, _, err := s.B.Receive(buf, 0)
	s.Require().NoError(err)
	s.Equal([]byte("abcd"), buf[:n])
}

func (s *StreamEndpointTestSuite) TestPeekIdempotent() {
	data := []byte("peekaboo")
	_, err := s.A.Send(data, nil, 0)
	s.Require().NoError(err)

	buf := make([]byte, 4)
	for range 3 {
		n, _, err := s.B.Receive(buf, transport.Peek)
		s.Require().NoError(err)
		s.Equal(data[:4], buf[:n])
	}

	// Peeking didn't consume anything.
	big := make([]byte, 64)
	n, _, err := s.B.Receive(big, 0)
	s.Require().NoError(err)
	s.Equal(data, big[:n])
}

func (s *StreamEndpointTestSuite) TestPartialSendDontWait() {
	buf := make([]byte, s.Capacity+8)

	n, err := s.A.Send(buf, nil, transport.DontWait)
	s.Require().NoError(err)
	s.Equal(int(s.Capacity), n)

	n, err = s.A.Send([]byte("x"), nil, transport.DontWait)
	s.ErrorIs(err, transport.ErrWouldBlock)
	s.Zero(n)
}

func (s *StreamEndpointTestSuite) TestBackpressure() {
	// A payload bigger than the buffer forces the sender to block
	// until the receiver frees space; everything still arrives in
	// order.
	payload := bytes.Repeat([]byte("abcdefgh"), int(s.Capacity/8)+4)

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		n, err := s.A.Send(payload, nil, 0)
		s.Require().NoError(err)
		s.Equal(len(payload), n)
	}()

	time.Sleep(50 * time.Millisecond)

	got := make([]byte, 0, len(payload))
	buf := make([]byte, 32)
	for len(got) < len(payload) {
		n, _, err := s.B.Receive(buf, 0)
		s.Require().NoError(err)
		got = append(got, buf[:n]...)
	}

	s.Equal(payload, got)
}

func (s *StreamEndpointTestSuite) TestWaitAll() {
	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := make([]byte, 10)
		n, _, err := s.B.Receive(buf, transport.WaitAll)
		s.Require().NoError(err)
		s.Equal(10, n)
		s.Equal([]byte("helloworld"), buf)
	}()

	_, err := s.A.Send([]byte("hello"), nil, 0)
	s.Require().NoError(err)

	time.Sleep(50 * time.Millisecond)

	_, err = s.A.Send([]byte("world"), nil, 0)
	s.Require().NoError(err)
}

func (s *StreamEndpointTestSuite) TestWaitAllPeerClose() {
	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := make([]byte, 10)

		// The peer closing releases the holdout with what's there.
		n, _, err := s.B.Receive(buf, transport.WaitAll)
		s.Require().NoError(err)
		s.Equal([]byte("hello"), buf[:n])

		_, _, err = s.B.Receive(buf, transport.WaitAll)
		s.ErrorIs(err, io.EOF)
	}()

	_, err := s.A.Send([]byte("hello"), nil, 0)
	s.Require().NoError(err)

	time.Sleep(50 * time.Millisecond)
	s.Require().NoError(s.A.Close())
}

func (s *StreamEndpointTestSuite) TestWaitAllDontWait() {
	// Default policy: DontWait wins and partial data comes back
	// immediately.
	_, err := s.A.Send([]byte("hello"), nil, 0)
	s.Require().NoError(err)

	buf := make([]byte, 10)
	n, _, err := s.B.Receive(buf, transport.WaitAll|transport.DontWait)
	s.Require().NoError(err)
	s.Equal([]byte("hello"), buf[:n])
}

func (s *StreamEndpointTestSuite) TestConcurrentSendsDeliverAllBytes() {
	// Interleaving between same-side senders is unspecified, but no
	// byte may be lost or invented.
	const senders, each = 8, 16

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		total := 0
		buf := make([]byte, 64)
		for {
			n, _, err := s.B.Receive(buf, 0)
			total += n
			if err != nil {
				s.Require().ErrorIs(err, io.EOF)
				s.Equal(senders*each, total)
				return
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		var swg sync.WaitGroup
		for range senders {
			swg.Add(1)
			go func() {
				defer swg.Done()
				n, err := s.A.Send(bytes.Repeat([]byte("z"), each), nil, 0)
				s.Require().NoError(err)
				s.Equal(each, n)
			}()
		}
		swg.Wait()
		s.Require().NoError(s.A.Close())
	}()
}
