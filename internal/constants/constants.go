// Package constants holds the numeric and timing constants shared across
// the dispatcher, device registry, and queueing subsystems.
package constants

import "time"

// Reserved interrupt identifiers. These occupy the lowest IDs of the
// dispatcher's subscription set; user-registered IRQs start at IRQBase,
// leaving headroom the way the original platform reserved the low 32
// POSIX signal numbers for the kernel/libc.
const (
	IRQTerminate uint = iota
	IRQSoftIRQ
	IRQEvent
	IRQTimer

	// IRQBase is the first IRQ number available to driver registrations.
	IRQBase
)

// IRQFlag values for intr_request_irq-style registration.
type IRQFlag int

const (
	// IRQShared allows more than one handler to be registered on the same
	// IRQ number, provided every registrant sets this flag.
	IRQShared IRQFlag = 1 << iota
)

// Device status flags.
type DeviceFlag uint32

const (
	// DeviceUp marks a device as transmit-capable.
	DeviceUp DeviceFlag = 1 << iota
)

// DefaultMTU is used by devices that don't set an explicit MTU (matches the
// original dummy driver's UINT16_MAX "maximum size of IP datagram").
const DefaultMTU = 65535

// Default queue/pool sizing. The original is unbounded; SPEC_FULL resolves
// the open question in favor of drop-tail once a protocol queue reaches
// DefaultMaxQueueLen, with the limit itself configurable per protocol
// registry (one bound shared by every protocol's queue).
const DefaultMaxQueueLen = 1024

// TimerSweepInterval is the cadence at which the Stack's ticker goroutine,
// started by Run, raises IRQTimer; the timer subsystem itself imposes no
// polling loop of its own (see Timer subsystem contract).
const TimerSweepInterval = 10 * time.Millisecond

// Buffer pool bucket sizes for protocol-queue frame copies, scaled to
// Ethernet-class frames rather than the block-I/O scale the pool design was
// originally tuned for.
const (
	PoolBucketSmall  = 2 * 1024
	PoolBucketMedium = 8 * 1024
	PoolBucketLarge  = 16 * 1024
	PoolBucketJumbo  = 64 * 1024
)
