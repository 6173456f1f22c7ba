// File: server/conn.go
// Per-connection state machine: handshake phase, then frame phase.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"errors"
	"io"
	"sync"

	"github.com/eapache/queue"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/momentics/strictws/api"
	"github.com/momentics/strictws/control"
	"github.com/momentics/strictws/protocol"
)

// conn owns one client connection. A reader goroutine walks the
// handshake and frame phases; a writer goroutine drains the outbound
// queue. Either side failing tears the connection down without
// touching any other connection.
type conn struct {
	id      string
	nc      api.NetConn
	cfg     *Config
	pool    api.BytePool
	handler api.Handler
	metrics *control.Metrics
	log     *logrus.Entry

	// bytesRead counts wire bytes consumed by the reader goroutine;
	// teardown reads it only after the reader has returned.
	bytesRead int64

	mu         sync.Mutex
	wake       *sync.Cond
	outbox     *queue.Queue
	closed     bool
	writerDone chan struct{}
}

func newConn(s *Server, nc api.NetConn) *conn {
	c := &conn{
		id:         uuid.NewString(),
		nc:         nc,
		cfg:        s.cfg,
		pool:       s.pool,
		handler:    s.handler,
		metrics:    s.metrics,
		outbox:     queue.New(),
		writerDone: make(chan struct{}),
	}
	c.wake = sync.NewCond(&c.mu)
	c.log = s.log.WithFields(logrus.Fields{
		"conn_id":     c.id,
		"remote_addr": nc.RemoteAddr(),
	})
	return c
}

// run blocks until the connection is finished. It is the only place
// the connection lifecycle is sequenced: writer up, handshake, frames,
// teardown.
func (c *conn) run() {
	defer c.teardown()
	c.metrics.OnConnOpen()
	c.log.Info("client connected")

	go c.writeLoop()

	if c.handshake() {
		c.frameLoop()
	}
}

// handshake performs the single-read upgrade exchange. It reports
// whether frame traffic may follow.
func (c *conn) handshake() bool {
	buf := c.pool.Acquire(c.cfg.ReadBufferSize)
	defer c.pool.Release(buf)

	n, err := c.nc.Read(buf)
	if err != nil || n == 0 {
		c.log.Debug("closed before handshake")
		return false
	}
	c.bytesRead += int64(n)

	res, err := protocol.Upgrade(buf[:n])
	if err != nil {
		c.metrics.OnHandshake(control.HandshakeMalformed)
		c.log.WithError(err).Warn("dropping connection: unreadable handshake")
		return false
	}
	if err := c.enqueue(res.Response); err != nil {
		return false
	}
	if !res.Accepted {
		c.metrics.OnHandshake(control.HandshakeRejected)
		c.log.Info("handshake rejected")
		return false
	}
	c.metrics.OnHandshake(control.HandshakeAccepted)
	c.log.Info("handshake complete")
	return true
}

// frameLoop reads frame traffic until the peer disconnects or a frame
// is rejected.
func (c *conn) frameLoop() {
	buf := c.pool.Acquire(c.cfg.ReadBufferSize)
	defer c.pool.Release(buf)

	for {
		n, err := c.nc.Read(buf)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.log.WithError(err).Debug("read failed")
			}
			return
		}
		if n == 0 {
			return
		}
		c.bytesRead += int64(n)
		if !c.consume(buf[:n]) {
			return
		}
	}
}

// consume decodes every frame in data and dispatches the payloads.
// One read may carry several coalesced frames; a partial frame at the
// tail is a truncation and ends the connection.
func (c *conn) consume(data []byte) bool {
	for len(data) > 0 {
		payload, n, err := protocol.Decode(data)
		if err != nil {
			reason := "unknown"
			var fe *protocol.FrameError
			if errors.As(err, &fe) {
				reason = fe.Reason()
			}
			c.metrics.OnFrameError(reason)
			c.log.WithField("reason", reason).WithError(err).Warn("dropping connection: rejected frame")
			return false
		}
		c.metrics.OnFrame(len(payload))
		data = data[n:]

		reply, err := c.handler.Handle(payload)
		if err != nil {
			c.log.WithError(err).Warn("handler failed")
			return false
		}
		if reply == nil {
			continue
		}
		frame, err := protocol.Encode(reply)
		if err != nil {
			c.log.WithError(err).Warn("reply does not fit a frame")
			return false
		}
		if err := c.enqueue(frame); err != nil {
			c.log.WithError(err).Warn("dropping connection: writer overrun")
			return false
		}
		c.metrics.OnEcho(len(reply))
	}
	return true
}

// enqueue hands frame bytes to the writer in FIFO order.
func (c *conn) enqueue(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return api.ErrConnClosed
	}
	if c.outbox.Length() >= c.cfg.MaxQueuedReplies {
		return api.ErrQueueOverflow
	}
	c.outbox.Add(frame)
	c.wake.Signal()
	return nil
}

// writeLoop drains the outbox until the connection closes and the
// queue is empty. A failed write closes the transport so the reader
// unblocks.
func (c *conn) writeLoop() {
	defer close(c.writerDone)
	for {
		c.mu.Lock()
		for c.outbox.Length() == 0 && !c.closed {
			c.wake.Wait()
		}
		if c.outbox.Length() == 0 {
			c.mu.Unlock()
			return
		}
		frame := c.outbox.Remove().([]byte)
		c.mu.Unlock()

		if _, err := c.nc.Write(frame); err != nil {
			c.log.WithError(err).Debug("write failed")
			c.mu.Lock()
			c.closed = true
			c.mu.Unlock()
			_ = c.nc.Close()
			return
		}
	}
}

// closeTransport unblocks a reader stuck in Read. Used by Shutdown.
func (c *conn) closeTransport() {
	_ = c.nc.Close()
}

// teardown flushes the writer, closes the socket and settles metrics.
func (c *conn) teardown() {
	c.mu.Lock()
	c.closed = true
	c.wake.Broadcast()
	c.mu.Unlock()
	<-c.writerDone

	_ = c.nc.Close()
	c.metrics.OnConnClose()
	c.log.WithField("bytes", c.bytesRead).Info("client disconnected")
}
