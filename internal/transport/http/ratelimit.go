package http

import "time"

// eventLimiter caps inbound events per connection. The counter resets once
// a minute; a zero limit disables the cap entirely.
type eventLimiter struct {
	limit   int
	counter int
	reset   *time.Ticker
}

func newEventLimiter(limit int) *eventLimiter {
	if limit <= 0 {
		return &eventLimiter{limit: 0}
	}
	return &eventLimiter{
		limit: limit,
		reset: time.NewTicker(time.Minute),
	}
}

// allow is called from the connection's read loop only, so the counter
// needs no synchronization.
func (l *eventLimiter) allow() bool {
	if l == nil || l.limit <= 0 {
		return true
	}
	l.counter++
	return l.counter <= l.limit
}

func (l *eventLimiter) startReset(stop <-chan struct{}) {
	if l == nil || l.reset == nil {
		return
	}
	go func() {
		for {
			select {
			case <-l.reset.C:
				l.counter = 0
			case <-stop:
				l.reset.Stop()
				return
			}
		}
	}()
}
