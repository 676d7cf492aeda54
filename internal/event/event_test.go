package event

import "testing"

func TestBroadcastReverseRegistrationOrder(t *testing.T) {
	r := New()
	var order []int

	r.Subscribe(func(arg any) { order = append(order, arg.(int)) }, 1)
	r.Subscribe(func(arg any) { order = append(order, arg.(int)) }, 2)
	r.Subscribe(func(arg any) { order = append(order, arg.(int)) }, 3)

	r.Broadcast()

	want := []int{3, 2, 1}
	if len(order) != len(want) {
		t.Fatalf("expected %d calls, got %d", len(want), len(order))
	}
	for i, v := range want {
		if order[i] != v {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
}

func TestBroadcastCapturedArg(t *testing.T) {
	r := New()
	var got string
	r.Subscribe(func(arg any) { got = arg.(string) }, "hello")
	r.Broadcast()
	if got != "hello" {
		t.Fatalf("expected captured arg 'hello', got %q", got)
	}
}

func TestLen(t *testing.T) {
	r := New()
	if r.Len() != 0 {
		t.Fatalf("expected 0, got %d", r.Len())
	}
	r.Subscribe(func(any) {}, nil)
	if r.Len() != 1 {
		t.Fatalf("expected 1, got %d", r.Len())
	}
}
