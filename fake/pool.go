// File: fake/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fake

import "sync"

// Pool is a counting api.BytePool. It allocates fresh buffers and
// records every Acquire and Release so tests can check that callers
// return what they take.
type Pool struct {
	mu       sync.Mutex
	acquires int
	releases int
}

// NewPool returns an empty counting pool.
func NewPool() *Pool {
	return &Pool{}
}

// Acquire returns a fresh buffer of n bytes.
func (p *Pool) Acquire(n int) []byte {
	p.mu.Lock()
	p.acquires++
	p.mu.Unlock()
	return make([]byte, n)
}

// Release records the return of a buffer.
func (p *Pool) Release(_ []byte) {
	p.mu.Lock()
	p.releases++
	p.mu.Unlock()
}

// Acquires reports how many buffers were handed out.
func (p *Pool) Acquires() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquires
}

// Releases reports how many buffers were returned.
func (p *Pool) Releases() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.releases
}
