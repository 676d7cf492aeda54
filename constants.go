package gonet

import "github.com/netstackgo/gonet/internal/constants"

// Re-exported for the public API surface; the underlying values live in
// internal/constants so the internal subsystems share a single definition.
const (
	IRQTerminate = constants.IRQTerminate
	IRQSoftIRQ   = constants.IRQSoftIRQ
	IRQEvent     = constants.IRQEvent
	IRQTimer     = constants.IRQTimer
	IRQBase      = constants.IRQBase

	IRQShared = constants.IRQShared

	DeviceUp = constants.DeviceUp

	DefaultMTU         = constants.DefaultMTU
	DefaultMaxQueueLen = constants.DefaultMaxQueueLen
	TimerSweepInterval = constants.TimerSweepInterval
)
