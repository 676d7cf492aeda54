package queue

import (
	"sync"
	"testing"
)

func TestRegisterProtocolDuplicateFails(t *testing.T) {
	r := New(0, nil, nil)
	if err := r.RegisterProtocol(0x0800, func([]byte, any) {}); err != nil {
		t.Fatalf("unexpected error on first registration: %v", err)
	}
	if err := r.RegisterProtocol(0x0800, func([]byte, any) {}); err != ErrDuplicateProtocol {
		t.Fatalf("expected ErrDuplicateProtocol, got %v", err)
	}
}

func TestEnqueueUnknownProtocolIsNotAnError(t *testing.T) {
	r := New(0, nil, nil)
	called := false
	if err := r.RegisterProtocol(0x0800, func([]byte, any) { called = true }); err != nil {
		t.Fatal(err)
	}

	matched := r.Enqueue(0x0806, "dev0", []byte("X"))
	if matched {
		t.Fatal("expected no protocol match for unregistered type")
	}
	r.Drain()
	if called {
		t.Fatal("handler for a different protocol must not be invoked")
	}
}

func TestFIFOOrderingAndPayloadFidelity(t *testing.T) {
	r := New(0, nil, nil)
	var mu sync.Mutex
	var received []string
	var devs []any

	if err := r.RegisterProtocol(0x0800, func(data []byte, dev any) {
		mu.Lock()
		received = append(received, string(data))
		devs = append(devs, dev)
		mu.Unlock()
	}); err != nil {
		t.Fatal(err)
	}

	// The payloads are identical, so the enqueue position is carried in the
	// device argument to check delivery order.
	for i := 0; i < 3; i++ {
		if !r.Enqueue(0x0800, i, []byte("X")) {
			t.Fatalf("expected frame %d to match registered protocol", i)
		}
	}

	r.Drain()

	if len(received) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(received))
	}
	for i, v := range received {
		if v != "X" {
			t.Fatalf("expected payload 'X', got %q", v)
		}
		if devs[i] != i {
			t.Fatalf("expected FIFO delivery order [0 1 2], got %v", devs)
		}
	}
}

func TestDrainOrderIsRegistrationOrderNoInterleave(t *testing.T) {
	r := New(0, nil, nil)
	var order []string

	if err := r.RegisterProtocol(1, func(data []byte, dev any) {
		order = append(order, "p1:"+string(data))
	}); err != nil {
		t.Fatal(err)
	}
	if err := r.RegisterProtocol(2, func(data []byte, dev any) {
		order = append(order, "p2:"+string(data))
	}); err != nil {
		t.Fatal(err)
	}

	r.Enqueue(2, nil, []byte("a"))
	r.Enqueue(1, nil, []byte("b"))
	r.Enqueue(1, nil, []byte("c"))
	r.Enqueue(2, nil, []byte("d"))

	r.Drain()

	want := []string{"p1:b", "p1:c", "p2:a", "p2:d"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestQueueFullDropsFrame(t *testing.T) {
	r := New(1, nil, nil)
	if err := r.RegisterProtocol(0x0800, func([]byte, any) {}); err != nil {
		t.Fatal(err)
	}

	if !r.Enqueue(0x0800, nil, []byte("a")) {
		t.Fatal("expected first enqueue to succeed")
	}
	if !r.Enqueue(0x0800, nil, []byte("b")) {
		t.Fatal("expected second enqueue to report a protocol match even though dropped")
	}
	if got := r.QueueLen(0x0800); got != 1 {
		t.Fatalf("expected queue depth capped at 1, got %d", got)
	}
}

func TestUnboundedQueue(t *testing.T) {
	r := New(-1, nil, nil)
	if err := r.RegisterProtocol(0x0800, func([]byte, any) {}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5000; i++ {
		r.Enqueue(0x0800, nil, []byte("x"))
	}
	if got := r.QueueLen(0x0800); got != 5000 {
		t.Fatalf("expected 5000 queued frames, got %d", got)
	}
}
