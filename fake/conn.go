// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the driver's
// transport contract.

package fake

import (
	"io"
	"sync"
)

// Conn is a scripted api.NetConn. Reads return the queued chunks in
// order, then the configured read error or io.EOF; writes are captured
// per call and can be made to fail after a set number of successes.
type Conn struct {
	mu       sync.Mutex
	wake     *sync.Cond
	reads    [][]byte
	written  [][]byte
	readErr  error
	writeErr error
	writeOK  int
	block    bool
	closed   bool
	closes   int
	remote   string
}

// NewConn creates an empty fake connection.
func NewConn() *Conn {
	c := &Conn{remote: "fake:0"}
	c.wake = sync.NewCond(&c.mu)
	return c
}

// AddReadChunk queues data to be returned by one future Read call.
func (c *Conn) AddReadChunk(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	chunk := make([]byte, len(data))
	copy(chunk, data)
	c.reads = append(c.reads, chunk)
	c.wake.Broadcast()
}

// SetReadError makes Read fail once the scripted chunks are drained.
func (c *Conn) SetReadError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readErr = err
}

// SetWriteError makes every subsequent Write fail.
func (c *Conn) SetWriteError(err error) {
	c.SetWriteErrorAfter(0, err)
}

// SetWriteErrorAfter lets the next n writes succeed, then makes every
// later Write fail with err.
func (c *Conn) SetWriteErrorAfter(n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
	c.writeOK = n
}

// BlockOnEmpty makes Read wait for data or Close once the script is
// drained, like an idle socket, instead of reporting io.EOF.
func (c *Conn) BlockOnEmpty() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.block = true
}

// Read implements api.NetConn. A chunk larger than p is drained across
// several calls, like a TCP stream would be.
func (c *Conn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		if c.closed {
			return 0, io.EOF
		}
		if len(c.reads) > 0 {
			break
		}
		if c.readErr != nil {
			return 0, c.readErr
		}
		if !c.block {
			return 0, io.EOF
		}
		c.wake.Wait()
	}
	chunk := c.reads[0]
	n := copy(p, chunk)
	if n < len(chunk) {
		c.reads[0] = chunk[n:]
	} else {
		c.reads = c.reads[1:]
	}
	return n, nil
}

// Write implements api.NetConn and captures the written bytes.
func (c *Conn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		if c.writeOK == 0 {
			return 0, c.writeErr
		}
		c.writeOK--
	}
	buf := make([]byte, len(p))
	copy(buf, p)
	c.written = append(c.written, buf)
	return len(p), nil
}

// Close implements api.NetConn and unblocks pending reads.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.closes++
	c.wake.Broadcast()
	return nil
}

// RemoteAddr implements api.NetConn.
func (c *Conn) RemoteAddr() string {
	return c.remote
}

// Written returns the captured writes in call order.
func (c *Conn) Written() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.written))
	copy(out, c.written)
	return out
}

// WrittenBytes returns every captured write concatenated.
func (c *Conn) WrittenBytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []byte
	for _, w := range c.written {
		out = append(out, w...)
	}
	return out
}

// IsClosed reports whether Close has been called.
func (c *Conn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// CloseCount reports how many times Close has been called.
func (c *Conn) CloseCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}
