package pair

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

func newDeadline(clock clock.Clock) *deadline { return &deadline{clock: clock} }

type deadline struct {
	clock clock.Clock
	m     sync.Mutex

	timer *clock.Timer
	t     time.Time
}

// set arms the deadline. onExceed runs once the deadline passes so
// blocked callers can be woken to observe it. Zero time clears.
func (d *deadline) set(t time.Time, onExceed func()) {
	d.m.Lock()
	defer d.m.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	d.t = t

	if !t.IsZero() {
		d.timer = d.clock.AfterFunc(d.clock.Until(t), func() {
			d.m.Lock()
			defer d.m.Unlock()
			onExceed()
		})
	}
}

func (d *deadline) exceeded() bool {
	d.m.Lock()
	defer d.m.Unlock()

	if d.t.IsZero() {
		return false
	}

	return d.clock.Until(d.t) <= 0
}
