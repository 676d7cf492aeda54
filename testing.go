package gonet

import "sync"

// MockDevice is a DeviceOps implementation for tests. It implements Opener
// and Closer and records every call for later assertions, the same
// tracking pattern the dummy driver exercises informally by logging every
// transmit.
type MockDevice struct {
	mu sync.RWMutex

	transmitted    [][]byte
	transmitCalls  int
	openCalls      int
	closeCalls     int
	failTransmit   bool
	failOpen       bool
	failClose      bool
	raiseOnTransmit func()
}

// NewMockDevice creates a MockDevice with no failure injection configured.
func NewMockDevice() *MockDevice {
	return &MockDevice{}
}

// Transmit implements DeviceOps. It records the payload and, if configured
// via OnTransmit, invokes a side-effect callback, used by tests to model
// the dummy driver raising its own IRQ synchronously from inside transmit.
func (m *MockDevice) Transmit(protocolType uint16, data []byte, dst []byte) error {
	m.mu.Lock()
	m.transmitCalls++
	if m.failTransmit {
		m.mu.Unlock()
		return ErrInvalidParameters
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.transmitted = append(m.transmitted, cp)
	cb := m.raiseOnTransmit
	m.mu.Unlock()

	if cb != nil {
		cb()
	}
	return nil
}

// Open implements Opener.
func (m *MockDevice) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openCalls++
	if m.failOpen {
		return ErrInvalidParameters
	}
	return nil
}

// Close implements Closer.
func (m *MockDevice) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalls++
	if m.failClose {
		return ErrInvalidParameters
	}
	return nil
}

// FailTransmit configures every subsequent Transmit call to fail.
func (m *MockDevice) FailTransmit(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failTransmit = fail
}

// FailOpen configures Open to fail.
func (m *MockDevice) FailOpen(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOpen = fail
}

// FailClose configures Close to fail.
func (m *MockDevice) FailClose(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failClose = fail
}

// OnTransmit installs a callback invoked synchronously at the end of every
// successful Transmit call.
func (m *MockDevice) OnTransmit(cb func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raiseOnTransmit = cb
}

// Transmitted returns a copy of every payload handed to Transmit so far, in
// call order.
func (m *MockDevice) Transmitted() [][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([][]byte, len(m.transmitted))
	copy(out, m.transmitted)
	return out
}

// CallCounts returns the number of times each hook has been invoked.
func (m *MockDevice) CallCounts() (transmit, open, close int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.transmitCalls, m.openCalls, m.closeCalls
}

var (
	_ DeviceOps = (*MockDevice)(nil)
	_ Opener    = (*MockDevice)(nil)
	_ Closer    = (*MockDevice)(nil)
)
