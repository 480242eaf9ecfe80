package pair

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

func TestDeadlineUnsetNeverExceeds(t *testing.T) {
	d := newDeadline(clock.NewMock())
	assert.False(t, d.exceeded())
}

func TestDeadlineExceeds(t *testing.T) {
	mock := clock.NewMock()
	d := newDeadline(mock)

	fired := make(chan struct{}, 1)
	d.set(mock.Now().Add(time.Second), func() { fired <- struct{}{} })

	assert.False(t, d.exceeded())

	mock.Add(time.Second)
	assert.True(t, d.exceeded())

	select {
	case <-fired:
	default:
		t.Fatal("onExceed was not called")
	}
}

func TestDeadlineInThePast(t *testing.T) {
	mock := clock.NewMock()
	d := newDeadline(mock)

	d.set(mock.Now().Add(-time.Second), func() {})
	assert.True(t, d.exceeded())
}

func TestDeadlineClear(t *testing.T) {
	mock := clock.NewMock()
	d := newDeadline(mock)

	d.set(mock.Now().Add(-time.Second), func() {})
	assert.True(t, d.exceeded())

	// Zero value means no limit.
	d.set(time.Time{}, func() {})
	assert.False(t, d.exceeded())
}

func TestDeadlineReplaceStopsOldTimer(t *testing.T) {
	mock := clock.NewMock()
	d := newDeadline(mock)

	fired := make(chan struct{}, 1)
	d.set(mock.Now().Add(time.Second), func() { fired <- struct{}{} })
	d.set(mock.Now().Add(time.Minute), func() {})

	mock.Add(2 * time.Second)
	select {
	case <-fired:
		t.Fatal("stopped timer still fired")
	default:
	}
	assert.False(t, d.exceeded())
}
