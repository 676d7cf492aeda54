// Package queue implements the per-protocol input FIFOs and the soft-IRQ
// drain that delivers queued frames to their protocol handlers.
package queue

import (
	"sync"

	"github.com/netstackgo/gonet/internal/constants"
)

// globalPool provides pooled byte slices for frame payload copies, avoiding
// a fresh allocation on every InputHandler call. Adapted from the teacher's
// block-I/O buffer pool: same size-bucketed sync.Pool shape, retuned from
// block-I/O scale (128KB-1MB) to Ethernet-frame scale, since a device's MTU
// is bounded by uint16 (65535) rather than a multi-megabyte I/O request.
var globalPool = struct {
	small  sync.Pool
	medium sync.Pool
	large  sync.Pool
	jumbo  sync.Pool
}{
	small:  sync.Pool{New: func() any { b := make([]byte, constants.PoolBucketSmall); return &b }},
	medium: sync.Pool{New: func() any { b := make([]byte, constants.PoolBucketMedium); return &b }},
	large:  sync.Pool{New: func() any { b := make([]byte, constants.PoolBucketLarge); return &b }},
	jumbo:  sync.Pool{New: func() any { b := make([]byte, constants.PoolBucketJumbo); return &b }},
}

// getBuffer returns a pooled buffer of at least the requested size. Sizes
// beyond the largest bucket fall back to a plain allocation rather than
// growing the jumbo pool's buffers. Received frames reach this path through
// Enqueue without any MTU check, so the fallback can be taken.
func getBuffer(size int) []byte {
	switch {
	case size <= constants.PoolBucketSmall:
		return (*globalPool.small.Get().(*[]byte))[:size]
	case size <= constants.PoolBucketMedium:
		return (*globalPool.medium.Get().(*[]byte))[:size]
	case size <= constants.PoolBucketLarge:
		return (*globalPool.large.Get().(*[]byte))[:size]
	case size <= constants.PoolBucketJumbo:
		return (*globalPool.jumbo.Get().(*[]byte))[:size]
	default:
		return make([]byte, size)
	}
}

// putBuffer returns a buffer to the pool it came from, keyed on capacity.
// Buffers with non-standard capacity (the make() fallback above, or a
// caller-supplied slice) are simply dropped, not pooled.
func putBuffer(buf []byte) {
	c := cap(buf)
	buf = buf[:c]
	switch c {
	case constants.PoolBucketSmall:
		globalPool.small.Put(&buf)
	case constants.PoolBucketMedium:
		globalPool.medium.Put(&buf)
	case constants.PoolBucketLarge:
		globalPool.large.Put(&buf)
	case constants.PoolBucketJumbo:
		globalPool.jumbo.Put(&buf)
	}
}
