// Package timer implements the stack's periodic-callback scheduler: timers
// are registered with an (interval, last-fire) pair and a sweep fires every
// timer whose deadline has passed. The sweep itself is driven externally,
// by the dispatcher on a reserved TIMER interrupt; this package owns no
// goroutine of its own.
package timer

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/netstackgo/gonet/internal/interfaces"
)

// entry mirrors the original's struct net_timer: an interval, the
// timestamp it last fired, and the zero-arg handler to invoke.
type entry struct {
	interval unix.Timeval
	last     time.Time
	handler  func()
}

// Registry holds every registered timer and sweeps them on demand.
type Registry struct {
	mu       sync.Mutex
	timers   []*entry
	logger   interfaces.Logger
	observer interfaces.Observer
}

// New creates an empty timer registry. logger and observer may be nil.
func New(logger interfaces.Logger, observer interfaces.Observer) *Registry {
	return &Registry{logger: logger, observer: observer}
}

// intervalDuration converts a (seconds, microseconds) Timeval to a
// time.Duration for comparison against elapsed wall-clock time.
func intervalDuration(tv unix.Timeval) time.Duration {
	return time.Duration(tv.Sec)*time.Second + time.Duration(tv.Usec)*time.Microsecond
}

// Register records a new timer with its interval and handler. last is
// initialized to now, matching the original's gettimeofday() at
// registration time.
func (r *Registry) Register(interval unix.Timeval, handler func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timers = append(r.timers, &entry{
		interval: interval,
		last:     time.Now(),
		handler:  handler,
	})
	if r.logger != nil {
		r.logger.Infof("timer registered: interval={%d, %d}", interval.Sec, interval.Usec)
	}
}

// Sweep samples now once and fires every timer whose elapsed time since its
// last fire strictly exceeds its interval, per the original's
// "interval < diff" comparison: firing on a strict inequality prevents a
// timer from firing again at the instant it was registered, before any time
// has actually elapsed.
func (r *Registry) Sweep() {
	r.mu.Lock()
	due := make([]*entry, 0, len(r.timers))
	now := time.Now()
	for _, t := range r.timers {
		if intervalDuration(t.interval) < now.Sub(t.last) {
			due = append(due, t)
			t.last = now
		}
	}
	r.mu.Unlock()

	for _, t := range due {
		if r.observer != nil {
			r.observer.ObserveTimerFired()
		}
		t.handler()
	}
}

// Len reports the number of registered timers, mainly useful for tests.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}
