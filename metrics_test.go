package gonet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsObserveFrameCounters(t *testing.T) {
	m := NewMetrics()
	m.ObserveFrameIn(0x0800, 64)
	m.ObserveFrameIn(0x0800, 64)
	m.ObserveFrameOut(0x0800, 64)
	m.ObserveFrameDropped(0x0806)

	assert.Equal(t, uint64(2), m.FramesIn.Load())
	assert.Equal(t, uint64(1), m.FramesOut.Load())
	assert.Equal(t, uint64(1), m.FramesDropped.Load())
}

func TestMetricsSnapshotPerProtocol(t *testing.T) {
	m := NewMetrics()
	m.ObserveFrameIn(0x0800, 10)
	m.ObserveFrameIn(0x0800, 10)
	m.ObserveFrameOut(0x0800, 10)
	m.ObserveFrameDropped(0x0806)

	snap := m.Snapshot()
	require.Len(t, snap, 2)

	byType := make(map[uint16]ProtocolSnapshot)
	for _, s := range snap {
		byType[s.ProtocolType] = s
	}

	ip := byType[0x0800]
	assert.Equal(t, uint64(2), ip.FramesIn)
	assert.Equal(t, uint64(1), ip.FramesOut)

	arp := byType[0x0806]
	assert.Equal(t, uint64(1), arp.Dropped)
}

func TestMetricsTimerAndIRQCounters(t *testing.T) {
	m := NewMetrics()
	m.ObserveTimerFired()
	m.ObserveTimerFired()
	m.ObserveIRQDispatched(64)

	assert.Equal(t, uint64(2), m.TimerFires.Load())
	assert.Equal(t, uint64(1), m.IRQDispatches.Load())
}
