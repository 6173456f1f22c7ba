// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>

package pool

import "sync"

// BytePool recycles fixed-size read buffers through a sync.Pool.
// One size class is enough here: every connection reads into buffers
// large enough for a maximal inbound frame.
type BytePool struct {
	size int
	p    sync.Pool
}

// NewBytePool creates a pool of buffers of the given size.
func NewBytePool(size int) *BytePool {
	bp := &BytePool{size: size}
	bp.p.New = func() any {
		return make([]byte, size)
	}
	return bp
}

// Acquire returns a buffer of at least n bytes. Requests beyond the
// pool's size class are served by a one-off allocation.
func (b *BytePool) Acquire(n int) []byte {
	if n > b.size {
		return make([]byte, n)
	}
	return b.p.Get().([]byte)[:b.size]
}

// Release returns a buffer to the pool. Oversized one-off buffers and
// foreign slices are left to the GC.
func (b *BytePool) Release(buf []byte) {
	if cap(buf) != b.size {
		return
	}
	b.p.Put(buf[:b.size])
}

// Size reports the pool's buffer size class.
func (b *BytePool) Size() int {
	return b.size
}
