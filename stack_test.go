package gonet

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/netstackgo/gonet/internal/constants"
)

func waitForStack(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// TestDummyTransmitLoop covers spec.md scenario 1: a dummy device whose
// transmit callback raises its own IRQ, and whose registered ISR fires
// exactly once on the dispatcher thread.
func TestDummyTransmitLoop(t *testing.T) {
	s := New(Config{})
	require.NoError(t, s.Init())

	mock := NewMockDevice()
	dev := s.Devices.Register(NewDevice(mock, 65535))

	var isrCalls int
	var mu sync.Mutex
	require.NoError(t, s.RequestIRQ(constants.IRQBase, func(irq uint, d *Device) int {
		mu.Lock()
		isrCalls++
		mu.Unlock()
		return 0
	}, 0, "dummy", dev))

	mock.OnTransmit(func() { s.RaiseIRQ(constants.IRQBase) })

	require.NoError(t, s.Run())
	defer s.Shutdown()

	require.NoError(t, s.Devices.Output(dev, 0x0800, []byte("HELLO"), nil))

	waitForStack(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return isrCalls == 1
	})

	require.Equal(t, [][]byte{[]byte("HELLO")}, mock.Transmitted())
}

// TestProtocolDispatchOrder covers spec.md scenario 2.
func TestProtocolDispatchOrder(t *testing.T) {
	s := New(Config{})
	var mu sync.Mutex
	var payloads []string
	var indices []int

	require.NoError(t, s.RegisterProtocol(0x0800, func(data []byte, dev *Device) {
		mu.Lock()
		payloads = append(payloads, string(data))
		indices = append(indices, dev.Index)
		mu.Unlock()
	}))

	require.NoError(t, s.Run())
	defer s.Shutdown()

	// The payloads are identical, so each frame arrives on a distinct device
	// whose Index records the send position.
	for i := 0; i < 3; i++ {
		s.InputHandler(0x0800, []byte("X"), &Device{Index: i})
	}

	waitForStack(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(payloads) == 3
	})

	mu.Lock()
	defer mu.Unlock()
	for _, p := range payloads {
		require.Equal(t, "X", p)
	}
	require.Equal(t, []int{0, 1, 2}, indices)
}

// TestUnknownProtocolIsSilentlyDropped covers spec.md scenario 3.
func TestUnknownProtocolIsSilentlyDropped(t *testing.T) {
	s := New(Config{})
	var mu sync.Mutex
	count := 0

	require.NoError(t, s.RegisterProtocol(0x0800, func(data []byte, dev *Device) {
		mu.Lock()
		count++
		mu.Unlock()
	}))

	require.NoError(t, s.Run())
	defer s.Shutdown()

	s.InputHandler(0x0800, []byte("X"), nil)
	waitForStack(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	})

	s.InputHandler(0x0806, []byte("Y"), nil)
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, count)
}

// TestSharedIRQReverseOrder covers spec.md scenario 4.
func TestSharedIRQReverseOrder(t *testing.T) {
	s := New(Config{})
	var mu sync.Mutex
	var order []string

	require.NoError(t, s.RequestIRQ(64, func(irq uint, dev *Device) int {
		mu.Lock()
		order = append(order, "a")
		mu.Unlock()
		return 0
	}, constants.IRQShared, "a", nil))

	require.NoError(t, s.RequestIRQ(64, func(irq uint, dev *Device) int {
		mu.Lock()
		order = append(order, "b")
		mu.Unlock()
		return 0
	}, constants.IRQShared, "b", nil))

	require.NoError(t, s.Run())
	defer s.Shutdown()

	s.RaiseIRQ(64)
	waitForStack(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 2
	})

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"b", "a"}, order)
}

// TestConflictingIRQFails covers spec.md scenario 5.
func TestConflictingIRQFails(t *testing.T) {
	s := New(Config{})
	require.NoError(t, s.RequestIRQ(65, func(uint, *Device) int { return 0 }, 0, "first", nil))
	err := s.RequestIRQ(65, func(uint, *Device) int { return 0 }, constants.IRQShared, "second", nil)
	require.Error(t, err)
}

// TestTimerFireCountBounded covers spec.md scenario 6: a 100ms timer, with
// TIMER raised every 40ms for 1s on top of the ticker Run starts (every
// TimerSweepInterval), fires between 9 and 10 times.
func TestTimerFireCountBounded(t *testing.T) {
	s := New(Config{})
	var count int
	var mu sync.Mutex
	s.RegisterTimer(100*time.Millisecond, func() {
		mu.Lock()
		count++
		mu.Unlock()
	})

	require.NoError(t, s.Run())
	defer s.Shutdown()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		s.dispatch.RaiseIRQ(constants.IRQTimer)
		time.Sleep(40 * time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, count, 9)
	require.LessOrEqual(t, count, 10)
}

// TestLifecycleInitRunOutputShutdown mirrors the dummy harness's
// init -> register -> run -> periodic send -> shutdown sequence.
func TestLifecycleInitRunOutputShutdown(t *testing.T) {
	s := New(Config{})
	require.NoError(t, s.Init())

	mock := NewMockDevice()
	dev := s.Devices.Register(NewDevice(mock, 1500))

	require.NoError(t, s.Run())

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Devices.Output(dev, 0x0800, []byte("ping"), nil))
		time.Sleep(time.Millisecond)
	}

	s.Shutdown()
	require.Len(t, mock.Transmitted(), 3)
}
