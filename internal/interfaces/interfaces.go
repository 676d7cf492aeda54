// Package interfaces provides the small set of ambient interfaces shared by
// the dispatcher, queue, timer, and event subsystems, kept separate from the
// root package to avoid circular imports between it and these internal
// subpackages.
package interfaces

// Logger is the minimal logging surface every subsystem depends on.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Observer receives optional metrics callbacks. A nil Observer is always
// valid; callers must nil-check before use, the same convention the
// teacher's queue runner uses for its Observer field.
type Observer interface {
	ObserveFrameIn(protocolType uint16, bytes int)
	ObserveFrameOut(protocolType uint16, bytes int)
	ObserveFrameDropped(protocolType uint16)
	ObserveTimerFired()
	ObserveIRQDispatched(irq uint)
}
