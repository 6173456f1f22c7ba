// File: api/pool.go
// Author: momentics <momentics@gmail.com>
//
// Defines the pooling API for read buffer reuse.

package api

// BytePool provides reusable []byte buffers for connection reads.
type BytePool interface {
	// Acquire returns a slice of at least n bytes.
	Acquire(n int) []byte

	// Release returns a buffer to the pool
	Release(buf []byte)
}
