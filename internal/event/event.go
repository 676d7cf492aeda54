// Package event implements the stack's broadcast event subscription list.
// Subscribers are notified, in reverse registration order, when the
// dispatcher delivers the reserved EVENT interrupt.
package event

import "sync"

type entry struct {
	handler func(arg any)
	arg     any
}

// Registry holds every subscriber and broadcasts to them on demand.
type Registry struct {
	mu   sync.Mutex
	subs []*entry
}

// New creates an empty event registry.
func New() *Registry {
	return &Registry{}
}

// Subscribe adds a new subscriber. The original prepends new subscribers to
// the head of an intrusive list; a slice append here with reverse-order
// iteration at broadcast time preserves the same most-recently-registered-
// first delivery order.
func (r *Registry) Subscribe(handler func(arg any), arg any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, &entry{handler: handler, arg: arg})
}

// Broadcast invokes every subscriber with its captured argument, most
// recently registered first. No return value is propagated back to the
// caller, matching the original contract.
func (r *Registry) Broadcast() {
	r.mu.Lock()
	subs := make([]*entry, len(r.subs))
	copy(subs, r.subs)
	r.mu.Unlock()

	for i := len(subs) - 1; i >= 0; i-- {
		subs[i].handler(subs[i].arg)
	}
}

// Len reports the number of subscribers, mainly useful for tests.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}
