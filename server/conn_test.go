// File: server/conn_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
	"gotest.tools/v3/poll"

	"github.com/momentics/strictws/api"
	"github.com/momentics/strictws/fake"
	"github.com/momentics/strictws/protocol"
)

const upgradeRequest = "GET /chat HTTP/1.1\r\n" +
	"Host: server.example.com\r\n" +
	"Upgrade: websocket\r\n" +
	"Connection: Upgrade\r\n" +
	"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n" +
	"Sec-WebSocket-Version: 13\r\n" +
	"\r\n"

// maskFrame builds a client-side masked binary frame around payload.
func maskFrame(payload []byte) []byte {
	key := [4]byte{0x12, 0x34, 0xAB, 0xCD}
	var frame []byte
	if len(payload) <= 125 {
		frame = append(frame, 0x82, 0x80|byte(len(payload)))
	} else {
		frame = append(frame, 0x82, 0x80|126)
		var ext [2]byte
		binary.BigEndian.PutUint16(ext[:], uint16(len(payload)))
		frame = append(frame, ext[:]...)
	}
	frame = append(frame, key[:]...)
	for i, b := range payload {
		frame = append(frame, b^key[i%4])
	}
	return frame
}

func newTestServer(t *testing.T, cfg *Config, opts ...ServerOption) *Server {
	t.Helper()
	s, err := NewServer(cfg, opts...)
	assert.NilError(t, err)
	return s
}

func TestConnEchoWalkthrough(t *testing.T) {
	s := newTestServer(t, nil)
	nc := fake.NewConn()
	nc.AddReadChunk([]byte(upgradeRequest))
	nc.AddReadChunk(maskFrame([]byte("Hello")))

	c := newConn(s, nc)
	c.run()

	writes := nc.Written()
	assert.Equal(t, len(writes), 2)
	assert.Check(t, strings.HasPrefix(string(writes[0]), "HTTP/1.1 101 Switching Protocols\r\n"))
	assert.Check(t, is.Contains(string(writes[0]), "Sec-WebSocket-Accept: s3pPLMBiTxaQ9kYGzzhZRbK+xOo="))
	assert.DeepEqual(t, writes[1], append([]byte{0x82, 0x05}, "Hello"...))
	assert.Check(t, nc.IsClosed())

	assert.Equal(t, testutil.ToFloat64(s.metrics.ConnectionsTotal), 1.0)
	assert.Equal(t, testutil.ToFloat64(s.metrics.ConnectionsActive), 0.0)
	assert.Equal(t, testutil.ToFloat64(s.metrics.FramesDecoded), 1.0)
	assert.Equal(t, testutil.ToFloat64(s.metrics.MessagesEchoed), 1.0)
}

func TestConnPipelinedFramesInOneRead(t *testing.T) {
	s := newTestServer(t, nil)
	nc := fake.NewConn()
	nc.AddReadChunk([]byte(upgradeRequest))
	chunk := append(maskFrame([]byte("one")), maskFrame([]byte("two"))...)
	nc.AddReadChunk(chunk)

	c := newConn(s, nc)
	c.run()

	writes := nc.Written()
	assert.Equal(t, len(writes), 3)
	assert.DeepEqual(t, writes[1], append([]byte{0x82, 0x03}, "one"...))
	assert.DeepEqual(t, writes[2], append([]byte{0x82, 0x03}, "two"...))
}

func TestConnRejectsNonGet(t *testing.T) {
	s := newTestServer(t, nil)
	nc := fake.NewConn()
	nc.AddReadChunk([]byte("POST /chat HTTP/1.1\r\nHost: x\r\nSec-WebSocket-Key: k\r\n\r\n"))
	nc.AddReadChunk(maskFrame([]byte("never read")))

	c := newConn(s, nc)
	c.run()

	writes := nc.Written()
	assert.Equal(t, len(writes), 1)
	assert.Equal(t, string(writes[0]), "HTTP/1.1 400 Bad Request\r\n\r\n")
	assert.Check(t, nc.IsClosed())
	assert.Equal(t, testutil.ToFloat64(s.metrics.Handshakes.WithLabelValues("rejected")), 1.0)
}

func TestConnMalformedHandshakeWritesNothing(t *testing.T) {
	s := newTestServer(t, nil)
	nc := fake.NewConn()
	nc.AddReadChunk([]byte{0x16, 0x03, 0x01, 0x00, 0x00})

	c := newConn(s, nc)
	c.run()

	assert.Equal(t, len(nc.Written()), 0)
	assert.Check(t, nc.IsClosed())
	assert.Equal(t, testutil.ToFloat64(s.metrics.Handshakes.WithLabelValues("malformed")), 1.0)
}

func TestConnFrameErrorIsFatal(t *testing.T) {
	s := newTestServer(t, nil)
	nc := fake.NewConn()
	nc.AddReadChunk([]byte(upgradeRequest))
	nc.AddReadChunk(append([]byte{0x82, 0x05}, "Hello"...)) // unmasked
	nc.AddReadChunk(maskFrame([]byte("never read")))

	c := newConn(s, nc)
	c.run()

	writes := nc.Written()
	assert.Equal(t, len(writes), 1) // handshake response only
	assert.Check(t, nc.IsClosed())
	assert.Equal(t, testutil.ToFloat64(s.metrics.FrameErrors.WithLabelValues("unmasked")), 1.0)
}

func TestConnTruncatedTailIsFatal(t *testing.T) {
	s := newTestServer(t, nil)
	nc := fake.NewConn()
	nc.AddReadChunk([]byte(upgradeRequest))
	full := maskFrame([]byte("one"))
	half := maskFrame([]byte("two"))[:4]
	nc.AddReadChunk(append(append([]byte{}, full...), half...))

	c := newConn(s, nc)
	c.run()

	writes := nc.Written()
	assert.Equal(t, len(writes), 2) // handshake response plus one echo
	assert.DeepEqual(t, writes[1], append([]byte{0x82, 0x03}, "one"...))
	assert.Equal(t, testutil.ToFloat64(s.metrics.FrameErrors.WithLabelValues("truncated")), 1.0)
}

func TestConnHandlerCanSuppressReplies(t *testing.T) {
	silent := api.HandlerFunc(func(msg []byte) ([]byte, error) {
		return nil, nil
	})
	s := newTestServer(t, nil, WithHandler(silent))
	nc := fake.NewConn()
	nc.AddReadChunk([]byte(upgradeRequest))
	nc.AddReadChunk(maskFrame([]byte("quiet")))

	c := newConn(s, nc)
	c.run()

	assert.Equal(t, len(nc.Written()), 1)
	assert.Equal(t, testutil.ToFloat64(s.metrics.FramesDecoded), 1.0)
	assert.Equal(t, testutil.ToFloat64(s.metrics.MessagesEchoed), 0.0)
}

func TestConnHandlerErrorIsFatal(t *testing.T) {
	failing := api.HandlerFunc(func(msg []byte) ([]byte, error) {
		return nil, fmt.Errorf("refused")
	})
	s := newTestServer(t, nil, WithHandler(failing))
	nc := fake.NewConn()
	nc.AddReadChunk([]byte(upgradeRequest))
	nc.AddReadChunk(maskFrame([]byte("boom")))
	nc.AddReadChunk(maskFrame([]byte("never read")))

	c := newConn(s, nc)
	c.run()

	assert.Equal(t, len(nc.Written()), 1)
	assert.Check(t, nc.IsClosed())
}

func TestConnOutboxOverflow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxQueuedReplies = 1
	s := newTestServer(t, cfg)
	nc := fake.NewConn()

	// No writer goroutine: enqueue directly to exercise the bound.
	c := newConn(s, nc)
	assert.NilError(t, c.enqueue([]byte("a")))
	assert.ErrorIs(t, c.enqueue([]byte("b")), api.ErrQueueOverflow)

	// A full queue ends the frame loop.
	assert.Check(t, !c.consume(maskFrame([]byte("x"))))
}

func TestConnEnqueueAfterCloseFails(t *testing.T) {
	s := newTestServer(t, nil)
	nc := fake.NewConn()
	c := newConn(s, nc)
	c.run() // no script: closes immediately

	assert.ErrorIs(t, c.enqueue([]byte("late")), api.ErrConnClosed)
}

func TestConnMaxPayloadRoundTrip(t *testing.T) {
	s := newTestServer(t, nil)
	nc := fake.NewConn()
	payload := make([]byte, protocol.MaxFramePayload)
	for i := range payload {
		payload[i] = byte(i)
	}
	nc.AddReadChunk([]byte(upgradeRequest))
	nc.AddReadChunk(maskFrame(payload))

	c := newConn(s, nc)
	c.run()

	writes := nc.Written()
	assert.Equal(t, len(writes), 2)
	want, err := protocol.Encode(payload)
	assert.NilError(t, err)
	assert.DeepEqual(t, writes[1], want)
}

func TestConnRecyclesReadBuffers(t *testing.T) {
	fp := fake.NewPool()
	s := newTestServer(t, nil, WithBufferPool(fp))
	nc := fake.NewConn()
	nc.AddReadChunk([]byte(upgradeRequest))
	nc.AddReadChunk(maskFrame([]byte("Hello")))

	c := newConn(s, nc)
	c.run()

	assert.Check(t, fp.Acquires() > 0)
	assert.Equal(t, fp.Releases(), fp.Acquires())
}

func TestConnHandshakeWriteFailureDropsConn(t *testing.T) {
	s := newTestServer(t, nil)
	nc := fake.NewConn()
	nc.AddReadChunk([]byte(upgradeRequest))
	nc.AddReadChunk(maskFrame([]byte("never echoed")))
	nc.SetWriteError(fmt.Errorf("pipe broken"))

	c := newConn(s, nc)
	c.run()

	assert.Equal(t, len(nc.WrittenBytes()), 0)
	assert.Check(t, nc.IsClosed())
	// Writer closes on the failed response, teardown closes again.
	assert.Equal(t, nc.CloseCount(), 2)
}

func TestConnMidStreamWriteFailureDropsConn(t *testing.T) {
	s := newTestServer(t, nil)
	nc := fake.NewConn()
	nc.AddReadChunk([]byte(upgradeRequest))
	nc.AddReadChunk(maskFrame([]byte("one")))
	nc.AddReadChunk(maskFrame([]byte("never sent")))
	nc.SetWriteErrorAfter(1, fmt.Errorf("pipe broken"))

	c := newConn(s, nc)
	c.run()

	writes := nc.Written()
	assert.Equal(t, len(writes), 1) // handshake response only
	assert.Check(t, strings.HasPrefix(string(writes[0]), "HTTP/1.1 101 Switching Protocols\r\n"))
	assert.Check(t, nc.IsClosed())
	assert.Equal(t, nc.CloseCount(), 2)
}

func TestConnReadErrorDropsConn(t *testing.T) {
	s := newTestServer(t, nil)
	nc := fake.NewConn()
	nc.AddReadChunk([]byte(upgradeRequest))
	nc.SetReadError(fmt.Errorf("connection reset"))

	c := newConn(s, nc)
	c.run()

	// The response still goes out; the read failure ends the frame
	// phase and only teardown closes the transport.
	writes := nc.Written()
	assert.Equal(t, len(writes), 1)
	assert.Check(t, nc.IsClosed())
	assert.Equal(t, nc.CloseCount(), 1)
}

func TestConnMetricsLandInSharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := newTestServer(t, nil, WithRegistry(reg))
	nc := fake.NewConn()
	nc.AddReadChunk([]byte(upgradeRequest))
	nc.AddReadChunk(maskFrame([]byte("Hello")))

	newConn(s, nc).run()

	n, err := testutil.GatherAndCount(reg,
		"strictws_connections_total",
		"strictws_messages_echoed_total",
	)
	assert.NilError(t, err)
	assert.Equal(t, n, 2)
}

func TestShutdownWaitsForActiveConns(t *testing.T) {
	s := newTestServer(t, nil)
	nc := fake.NewConn()
	nc.AddReadChunk([]byte(upgradeRequest))
	nc.BlockOnEmpty()

	c := newConn(s, nc)
	assert.Check(t, s.track(c))

	done := make(chan struct{})
	go func() {
		defer s.wg.Done()
		defer s.untrack(c.id)
		c.run()
		close(done)
	}()

	poll.WaitOn(t, func(poll.LogT) poll.Result {
		if len(nc.Written()) == 1 {
			return poll.Success()
		}
		return poll.Continue("handshake response not flushed yet")
	}, poll.WithTimeout(5*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NilError(t, s.Shutdown(ctx))

	select {
	case <-done:
	default:
		t.Fatal("shutdown returned while the connection goroutine was still running")
	}
	assert.Check(t, nc.IsClosed())

	late := newConn(s, fake.NewConn())
	assert.Check(t, !s.track(late))
}
