// Package dispatch implements the stack's single-consumer interrupt/soft-IRQ
// worker: a dedicated goroutine that serializes asynchronous interrupt
// notifications into per-IRQ handler calls and into the reserved soft-IRQ,
// event, and timer entry points.
//
// The "interrupt source" the original backs with POSIX signals is modeled
// here as a buffered Go channel, the portable substitute the design notes
// call for explicitly.
package dispatch

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/netstackgo/gonet/internal/constants"
	"github.com/netstackgo/gonet/internal/interfaces"
)

// Handler is invoked for a non-reserved IRQ. Its return value is logged but
// not acted upon, matching the original "(irq, dev) -> int" signature.
type Handler func(irq uint, dev any) int

// notificationBacklog bounds the dispatcher's interrupt mailbox. A full
// mailbox drops the newest notification rather than blocking the raiser;
// acceptable because the soft-IRQ drain always empties every protocol queue
// regardless of how many SOFTIRQ notifications coalesced into one wake-up.
const notificationBacklog = 256

var (
	// ErrAlreadyRunning is returned by Run if the worker is already active.
	ErrAlreadyRunning = errors.New("dispatcher already running")
)

type irqEntry struct {
	irq     uint
	handler Handler
	flags   constants.IRQFlag
	name    string
	dev     any
}

// conflicts reports whether registering an IRQ entry with newFlags alongside
// one already registered with existingFlags should fail. The original used
// `flags ^ INTR_IRQ_SHARED`, which is nonzero for any flags other than
// exactly IRQShared, effectively always rejecting a second registration.
// The corrected rule, per the spec's flagged redesign, is: sharing is
// allowed only when BOTH sides requested it.
func conflicts(existingFlags, newFlags constants.IRQFlag) bool {
	return existingFlags&constants.IRQShared == 0 || newFlags&constants.IRQShared == 0
}

// Config configures a Dispatcher.
type Config struct {
	// SoftIRQ is invoked on the worker when the reserved SOFTIRQ interrupt
	// fires. Required.
	SoftIRQ func()
	// Event is invoked on the worker when the reserved EVENT interrupt
	// fires. Required.
	Event func()
	// Timer is invoked on the worker when the reserved TIMER interrupt
	// fires. Required.
	Timer func()
	// CPUAffinity, if non-empty, pins the worker goroutine's OS thread to
	// the first listed CPU. Optional; failure to set affinity is logged
	// and non-fatal.
	CPUAffinity []int
	Logger      interfaces.Logger
	Observer    interfaces.Observer
}

// Dispatcher owns the IRQ table and the worker goroutine that drains it.
type Dispatcher struct {
	mu      sync.Mutex
	irqs    []*irqEntry
	running bool

	notifications chan uint
	done          chan struct{}

	softirq func()
	event   func()
	timer   func()

	cpuAffinity []int
	logger      interfaces.Logger
	observer    interfaces.Observer
}

// New prepares an empty IRQ table. Equivalent to the original's intr_init:
// there is no separate initialization step in Go, construction and
// initialization are the same act.
func New(cfg Config) *Dispatcher {
	return &Dispatcher{
		notifications: make(chan uint, notificationBacklog),
		softirq:       cfg.SoftIRQ,
		event:         cfg.Event,
		timer:         cfg.Timer,
		cpuAffinity:   cfg.CPUAffinity,
		logger:        cfg.Logger,
		observer:      cfg.Observer,
	}
}

// RequestIRQ registers handler for irq. Registration fails, without
// modifying the table, if an entry already exists for irq and either side
// did not request IRQShared.
func (d *Dispatcher) RequestIRQ(irq uint, handler Handler, flags constants.IRQFlag, name string, dev any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, e := range d.irqs {
		if e.irq == irq && conflicts(e.flags, flags) {
			return fmt.Errorf("dispatch: irq %d conflicts with already registered handler %q", irq, e.name)
		}
	}

	d.irqs = append(d.irqs, &irqEntry{irq: irq, handler: handler, flags: flags, name: name, dev: dev})
	if d.logger != nil {
		d.logger.Infof("irq registered: irq=%d name=%s flags=%d", irq, name, flags)
	}
	return nil
}

// RaiseIRQ asynchronously notifies the worker that irq fired. Safe to call
// from any goroutine. Never blocks: if the mailbox is full, the
// notification is dropped, relying on the soft-IRQ/timer/event handlers
// being level-triggered (they act on accumulated state, not the count of
// notifications received).
func (d *Dispatcher) RaiseIRQ(irq uint) {
	select {
	case d.notifications <- irq:
	default:
		if d.logger != nil {
			d.logger.Warnf("dispatch: notification backlog full, dropping irq=%d", irq)
		}
	}
}

// raiseBlocking delivers irq even if the mailbox is momentarily full. Used
// internally for Shutdown, where losing the TERMINATE notification would
// hang the caller forever.
func (d *Dispatcher) raiseBlocking(irq uint) {
	d.notifications <- irq
}

// Run spawns the worker goroutine and blocks until it is confirmed running,
// mirroring the original's pthread_barrier_wait rendezvous between the
// caller and the newly created worker thread.
func (d *Dispatcher) Run() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return ErrAlreadyRunning
	}
	d.running = true
	d.done = make(chan struct{})
	d.mu.Unlock()

	ready := make(chan struct{})
	go d.worker(ready)
	<-ready
	return nil
}

// Shutdown signals the worker to terminate and joins it. Safe to call on a
// Dispatcher that was never run.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	running := d.running
	done := d.done
	d.mu.Unlock()
	if !running {
		return
	}

	d.raiseBlocking(constants.IRQTerminate)
	<-done

	d.mu.Lock()
	d.running = false
	d.mu.Unlock()
}

// worker is the single consumer that serializes every interrupt delivery.
// It pins itself to its OS thread for the lifetime of the loop and,
// optionally, to a specific CPU, the same affinity pattern the teacher's
// per-queue I/O loop applies, kept here for deterministic scheduling under
// load even though nothing in this design requires it for correctness.
func (d *Dispatcher) worker(ready chan<- struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if len(d.cpuAffinity) > 0 {
		var mask unix.CPUSet
		mask.Set(d.cpuAffinity[0])
		if err := unix.SchedSetaffinity(0, &mask); err != nil && d.logger != nil {
			d.logger.Warnf("dispatch: failed to set worker CPU affinity: %v", err)
		}
	}

	close(ready)

	for irq := range d.notifications {
		switch irq {
		case constants.IRQTerminate:
			close(d.done)
			return
		case constants.IRQSoftIRQ:
			d.softirq()
		case constants.IRQEvent:
			d.event()
		case constants.IRQTimer:
			d.timer()
		default:
			d.dispatchUserIRQ(irq)
		}
		if d.observer != nil {
			d.observer.ObserveIRQDispatched(irq)
		}
	}
}

// dispatchUserIRQ invokes every handler registered for irq, in
// reverse-registration order: the most recently requested handler for a
// shared line runs first, matching the original's list-push-front semantics
// for irq_register (new entries are prepended, then the list is walked head
// to tail on dispatch).
func (d *Dispatcher) dispatchUserIRQ(irq uint) {
	d.mu.Lock()
	var matches []*irqEntry
	for i := len(d.irqs) - 1; i >= 0; i-- {
		e := d.irqs[i]
		if e.irq == irq {
			matches = append(matches, e)
		}
	}
	d.mu.Unlock()

	for _, e := range matches {
		ret := e.handler(e.irq, e.dev)
		if d.logger != nil {
			d.logger.Debugf("irq handled: irq=%d name=%s ret=%d", e.irq, e.name, ret)
		}
	}
}
