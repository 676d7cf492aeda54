package gonet

import (
	"sync"
	"sync/atomic"
)

// Metrics tracks operational counters for a running Stack. All fields are
// safe for concurrent use.
type Metrics struct {
	FramesIn      atomic.Uint64
	FramesOut     atomic.Uint64
	FramesDropped atomic.Uint64
	TimerFires    atomic.Uint64
	IRQDispatches atomic.Uint64

	mu         sync.Mutex
	perProto   map[uint16]*protoCounters
	queueDepth map[uint16]uint32
}

type protoCounters struct {
	in      atomic.Uint64
	out     atomic.Uint64
	dropped atomic.Uint64
}

// NewMetrics creates an empty Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		perProto:   make(map[uint16]*protoCounters),
		queueDepth: make(map[uint16]uint32),
	}
}

func (m *Metrics) protoEntry(protocolType uint16) *protoCounters {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.perProto[protocolType]
	if !ok {
		c = &protoCounters{}
		m.perProto[protocolType] = c
	}
	return c
}

// ObserveFrameIn implements interfaces.Observer.
func (m *Metrics) ObserveFrameIn(protocolType uint16, bytes int) {
	m.FramesIn.Add(1)
	m.protoEntry(protocolType).in.Add(1)
}

// ObserveFrameOut implements interfaces.Observer.
func (m *Metrics) ObserveFrameOut(protocolType uint16, bytes int) {
	m.FramesOut.Add(1)
	m.protoEntry(protocolType).out.Add(1)
}

// ObserveFrameDropped implements interfaces.Observer.
func (m *Metrics) ObserveFrameDropped(protocolType uint16) {
	m.FramesDropped.Add(1)
	m.protoEntry(protocolType).dropped.Add(1)
}

// ObserveTimerFired implements interfaces.Observer.
func (m *Metrics) ObserveTimerFired() {
	m.TimerFires.Add(1)
}

// ObserveIRQDispatched implements interfaces.Observer.
func (m *Metrics) ObserveIRQDispatched(irq uint) {
	m.IRQDispatches.Add(1)
}

// ProtocolSnapshot is a point-in-time view of one protocol's counters.
type ProtocolSnapshot struct {
	ProtocolType uint16
	FramesIn     uint64
	FramesOut    uint64
	Dropped      uint64
}

// Snapshot returns a stable copy of every protocol's counters observed so
// far, ordered arbitrarily (callers that need ordering should sort by
// ProtocolType).
func (m *Metrics) Snapshot() []ProtocolSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ProtocolSnapshot, 0, len(m.perProto))
	for t, c := range m.perProto {
		out = append(out, ProtocolSnapshot{
			ProtocolType: t,
			FramesIn:     c.in.Load(),
			FramesOut:    c.out.Load(),
			Dropped:      c.dropped.Load(),
		})
	}
	return out
}

// Metrics satisfies internal/interfaces.Observer structurally. There is no
// compile-time assertion of that here or elsewhere in the package; this
// file avoids importing internal/interfaces to keep the public API free of
// internal types.
