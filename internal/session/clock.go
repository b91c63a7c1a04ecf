package session

import "time"

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so timer-driven behaviour can be tested.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// handle is a controller-owned timer. It is only touched on the event
// loop, so a firing that was already queued when stop was called is
// dropped.
type handle struct {
	t       Timer
	stopped bool
}

func (h *handle) stop() {
	if h == nil || h.stopped {
		return
	}
	h.stopped = true
	if h.t != nil {
		h.t.Stop()
	}
}

// after runs f on the loop once d has passed.
func (c *Controller) after(d time.Duration, f func()) *handle {
	h := &handle{}
	h.t = c.clock.AfterFunc(d, func() {
		c.post(func() {
			if h.stopped {
				return
			}
			h.stopped = true
			f()
		})
	})
	return h
}

// every runs f on the loop each time d passes until the handle is stopped.
func (c *Controller) every(d time.Duration, f func()) *handle {
	h := &handle{}
	var schedule func()
	schedule = func() {
		h.t = c.clock.AfterFunc(d, func() {
			c.post(func() {
				if h.stopped {
					return
				}
				f()
				if !h.stopped {
					schedule()
				}
			})
		})
	}
	schedule()
	return h
}
