package gonet

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/netstackgo/gonet/internal/constants"
	"github.com/netstackgo/gonet/internal/dispatch"
	"github.com/netstackgo/gonet/internal/event"
	"github.com/netstackgo/gonet/internal/interfaces"
	"github.com/netstackgo/gonet/internal/logging"
	"github.com/netstackgo/gonet/internal/queue"
	"github.com/netstackgo/gonet/internal/subproto"
	"github.com/netstackgo/gonet/internal/timer"
)

// toTimeval converts a time.Duration into the (seconds, microseconds) pair
// the timer registry stores, mirroring the original's struct timeval
// interval representation.
func toTimeval(d time.Duration) unix.Timeval {
	sec := d / time.Second
	usec := (d % time.Second) / time.Microsecond
	return unix.Timeval{Sec: int64(sec), Usec: int64(usec)}
}

// Config configures a Stack.
type Config struct {
	// MaxQueueLen bounds each protocol's receive FIFO. 0 selects the
	// default (constants.DefaultMaxQueueLen); negative is unbounded.
	MaxQueueLen int
	// CPUAffinity optionally pins the dispatcher worker to a CPU.
	CPUAffinity []int
	// Logger receives structured log output. Defaults to logging.Default()
	// if nil.
	Logger *logging.Logger
	// Observer receives metrics callbacks. Optional.
	Observer interfaces.Observer
}

// Stack bundles the device registry, protocol registry, timer registry,
// event registry, and interrupt dispatcher into the top-half scaffolding of
// a toy network stack.
type Stack struct {
	Devices   *Registry
	protocols *queue.Registry
	timers    *timer.Registry
	events    *event.Registry
	dispatch  *dispatch.Dispatcher

	logger   *logging.Logger
	observer interfaces.Observer

	timerStop chan struct{}
}

// New constructs a Stack. Equivalent to allocating every subsystem; no
// goroutines are started yet (that happens in Run).
func New(cfg Config) *Stack {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	s := &Stack{
		logger:   logger,
		observer: cfg.Observer,
	}
	s.Devices = NewRegistry(logger.WithPrefix("device"))
	s.protocols = queue.New(cfg.MaxQueueLen, logger.WithPrefix("queue"), cfg.Observer)
	s.timers = timer.New(logger.WithPrefix("timer"), cfg.Observer)
	s.events = event.New()

	s.dispatch = dispatch.New(dispatch.Config{
		SoftIRQ:     s.protocols.Drain,
		Event:       s.events.Broadcast,
		Timer:       s.timerTick,
		CPUAffinity: cfg.CPUAffinity,
		Logger:      logger.WithPrefix("dispatch"),
		Observer:    cfg.Observer,
	})
	return s
}

func (s *Stack) timerTick() {
	s.timers.Sweep()
}

// Init registers ARP, IP, ICMP, and UDP in that order, matching net_init.
// Construction already initializes the dispatcher itself, so Init's only
// remaining job is driving the sub-protocols' self-registration.
func (s *Stack) Init() error {
	if err := subproto.InitARP(s.protocols, s.logger.WithPrefix("arp"), s.observer); err != nil {
		return WrapError("Init", ErrCodeProtocolDuplicate, err)
	}
	if err := subproto.InitIP(s.protocols, s.logger.WithPrefix("ip"), s.observer); err != nil {
		return WrapError("Init", ErrCodeProtocolDuplicate, err)
	}
	if err := subproto.InitICMP(s.protocols, s.logger.WithPrefix("icmp"), s.observer); err != nil {
		return WrapError("Init", ErrCodeProtocolDuplicate, err)
	}
	if err := subproto.InitUDP(s.protocols, s.logger.WithPrefix("udp"), s.observer); err != nil {
		return WrapError("Init", ErrCodeProtocolDuplicate, err)
	}
	return nil
}

// Run starts the dispatcher worker and the periodic timer-sweep ticker,
// then opens every registered device. Per-device open failures are logged
// but do not abort the remaining devices, matching net_run.
func (s *Stack) Run() error {
	if err := s.dispatch.Run(); err != nil {
		return WrapError("Run", ErrCodeAlreadyRunning, err)
	}

	s.timerStop = make(chan struct{})
	go s.runTimerTicker(s.timerStop)

	for _, dev := range s.Devices.All() {
		if err := s.Devices.Open(dev); err != nil {
			s.logger.Warnf("stack: failed to open device %s: %v", dev.Name, err)
		}
	}
	return nil
}

func (s *Stack) runTimerTicker(stop <-chan struct{}) {
	ticker := time.NewTicker(constants.TimerSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.dispatch.RaiseIRQ(constants.IRQTimer)
		case <-stop:
			return
		}
	}
}

// Shutdown closes every registered device, stops the timer ticker, and
// terminates the dispatcher, matching net_shutdown's ordering.
func (s *Stack) Shutdown() {
	for _, dev := range s.Devices.All() {
		if dev.IsUp() {
			if err := s.Devices.Close(dev); err != nil {
				s.logger.Warnf("stack: failed to close device %s: %v", dev.Name, err)
			}
		}
	}

	if s.timerStop != nil {
		close(s.timerStop)
	}
	s.dispatch.Shutdown()
}

// RegisterProtocol registers handler for protocolType. Fails if the type is
// already registered.
func (s *Stack) RegisterProtocol(protocolType uint16, handler func(data []byte, dev *Device)) error {
	wrapped := func(data []byte, dev any) {
		d, _ := dev.(*Device)
		handler(data, d)
	}
	if err := s.protocols.RegisterProtocol(protocolType, wrapped); err != nil {
		return WrapError("RegisterProtocol", ErrCodeProtocolDuplicate, err)
	}
	return nil
}

// InputHandler is invoked by device drivers when they receive a frame of
// the given link-layer type. Enqueues the frame on the matching protocol's
// FIFO and raises SOFTIRQ; an unmatched type is silently dropped, not an
// error.
func (s *Stack) InputHandler(protocolType uint16, data []byte, dev *Device) {
	s.protocols.Enqueue(protocolType, dev, data)
	s.dispatch.RaiseIRQ(constants.IRQSoftIRQ)
}

// Output transmits data toward dst through dev, delegating to the device
// registry. Exposed on Stack for symmetry with InputHandler.
func (s *Stack) Output(dev *Device, protocolType uint16, data []byte, dst []byte) error {
	return s.Devices.Output(dev, protocolType, data, dst)
}

// RequestIRQ registers handler for irq on behalf of dev. Two entries may
// share an irq only if both requested constants.IRQShared.
func (s *Stack) RequestIRQ(irq uint, handler func(irq uint, dev *Device) int, flags constants.IRQFlag, name string, dev *Device) error {
	wrapped := func(irq uint, rawDev any) int {
		d, _ := rawDev.(*Device)
		return handler(irq, d)
	}
	if err := s.dispatch.RequestIRQ(irq, wrapped, flags, name, dev); err != nil {
		return WrapError("RequestIRQ", ErrCodeIRQConflict, err)
	}
	return nil
}

// RaiseIRQ asynchronously notifies the dispatcher that irq fired.
func (s *Stack) RaiseIRQ(irq uint) {
	s.dispatch.RaiseIRQ(irq)
}

// RegisterTimer records a periodic callback, matching timer_register.
func (s *Stack) RegisterTimer(interval time.Duration, handler func()) {
	s.timers.Register(toTimeval(interval), handler)
}

// Subscribe registers handler to be invoked, with arg, on every Broadcast.
func (s *Stack) Subscribe(handler func(arg any), arg any) {
	s.events.Subscribe(handler, arg)
}

// RaiseEvent notifies the dispatcher that an event occurred; on the
// dispatcher thread this broadcasts to every subscriber.
func (s *Stack) RaiseEvent() {
	s.dispatch.RaiseIRQ(constants.IRQEvent)
}
