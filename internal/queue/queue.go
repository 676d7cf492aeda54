package queue

import (
	"errors"
	"sync"

	"github.com/netstackgo/gonet/internal/constants"
	"github.com/netstackgo/gonet/internal/interfaces"
)

// ErrDuplicateProtocol is returned by RegisterProtocol when the type tag is
// already registered.
var ErrDuplicateProtocol = errors.New("protocol already registered")

// Handler is invoked once per queued frame during a drain. It owns neither
// the payload nor the device reference beyond the call.
type Handler func(data []byte, dev any)

// frameEntry is a single queued receive: a copy of the driver's buffer plus
// the device it arrived on. Created by Enqueue, consumed and discarded by
// Drain.
type frameEntry struct {
	dev     any
	payload []byte
}

// protoFIFO is one protocol's bounded receive queue.
type protoFIFO struct {
	protocolType uint16
	handler      Handler
	mu           sync.Mutex
	frames       []*frameEntry
	maxLen       int
}

func (q *protoFIFO) push(e *frameEntry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.maxLen > 0 && len(q.frames) >= q.maxLen {
		return false
	}
	q.frames = append(q.frames, e)
	return true
}

// pop removes and returns the oldest entry, or nil if the queue is empty.
func (q *protoFIFO) pop() *frameEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.frames) == 0 {
		return nil
	}
	e := q.frames[0]
	q.frames[0] = nil
	q.frames = q.frames[1:]
	return e
}

func (q *protoFIFO) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}

// Registry holds every registered protocol's handler and FIFO, and drains
// them on soft-IRQ.
type Registry struct {
	mu       sync.Mutex
	order    []uint16 // registration order, preserved for drain ordering
	fifos    map[uint16]*protoFIFO
	maxLen   int
	logger   interfaces.Logger
	observer interfaces.Observer
}

// New creates an empty protocol registry. maxLen bounds each protocol's
// queue; 0 selects the default bound (DefaultMaxQueueLen), a negative value
// means unbounded. logger and observer may be nil.
func New(maxLen int, logger interfaces.Logger, observer interfaces.Observer) *Registry {
	if maxLen == 0 {
		maxLen = constants.DefaultMaxQueueLen
	} else if maxLen < 0 {
		maxLen = 0
	}
	return &Registry{
		fifos:    make(map[uint16]*protoFIFO),
		maxLen:   maxLen,
		logger:   logger,
		observer: observer,
	}
}

// RegisterProtocol associates handler with protocolType. Registering the
// same type twice fails without modifying the registry.
func (r *Registry) RegisterProtocol(protocolType uint16, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.fifos[protocolType]; exists {
		return ErrDuplicateProtocol
	}
	r.fifos[protocolType] = &protoFIFO{protocolType: protocolType, handler: handler, maxLen: r.maxLen}
	r.order = append(r.order, protocolType)
	if r.logger != nil {
		r.logger.Infof("protocol registered: type=0x%04x", protocolType)
	}
	return nil
}

// Enqueue copies data into the matching protocol's FIFO and reports whether
// a protocol matched. An unmatched type is not an error: the frame is
// silently dropped, per the input-handler contract. A matched protocol
// whose queue is full is also dropped, but logged, per the
// resource-exhaustion error category.
func (r *Registry) Enqueue(protocolType uint16, dev any, data []byte) bool {
	r.mu.Lock()
	fifo, ok := r.fifos[protocolType]
	r.mu.Unlock()
	if !ok {
		return false
	}

	payload := getBuffer(len(data))
	copy(payload, data)

	if !fifo.push(&frameEntry{dev: dev, payload: payload}) {
		putBuffer(payload)
		if r.logger != nil {
			r.logger.Warnf("queue full, dropping frame: type=0x%04x", protocolType)
		}
		if r.observer != nil {
			r.observer.ObserveFrameDropped(protocolType)
		}
		return true
	}

	if r.observer != nil {
		r.observer.ObserveFrameIn(protocolType, len(data))
	}
	return true
}

// Drain walks every registered protocol in registration order and empties
// its FIFO before moving to the next, so a single soft-IRQ invocation never
// interleaves deliveries across protocols.
func (r *Registry) Drain() {
	r.mu.Lock()
	order := make([]uint16, len(r.order))
	copy(order, r.order)
	r.mu.Unlock()

	for _, t := range order {
		r.mu.Lock()
		fifo := r.fifos[t]
		r.mu.Unlock()
		for {
			e := fifo.pop()
			if e == nil {
				break
			}
			fifo.handler(e.payload, e.dev)
			putBuffer(e.payload)
		}
	}
}

// QueueLen reports the current depth of protocolType's FIFO, or 0 if the
// type isn't registered. Mainly useful for tests and metrics.
func (r *Registry) QueueLen(protocolType uint16) int {
	r.mu.Lock()
	fifo, ok := r.fifos[protocolType]
	r.mu.Unlock()
	if !ok {
		return 0
	}
	return fifo.len()
}
