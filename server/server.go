// File: server/server.go
// Package server drives connections through the handshake engine and
// the frame codec.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"net"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/momentics/strictws/api"
	"github.com/momentics/strictws/control"
	"github.com/momentics/strictws/internal/transport"
	"github.com/momentics/strictws/pool"
)

// Server owns the listener, the per-connection goroutines and the
// control plane wiring.
type Server struct {
	cfg      *Config
	log      *logrus.Entry
	handler  api.Handler
	pool     api.BytePool
	registry *prometheus.Registry
	metrics  *control.Metrics
	probes   *control.DebugProbes

	listener *transport.Listener

	mu     sync.Mutex
	conns  map[string]*conn
	wg     sync.WaitGroup
	closed bool
}

// NewServer builds a Server from cfg and options. A nil cfg means
// DefaultConfig; zero fields are filled in.
func NewServer(cfg *Config, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.normalize()

	s := &Server{
		cfg:     cfg,
		log:     logrus.StandardLogger().WithField("component", "server"),
		handler: api.EchoHandler(),
		probes:  control.NewDebugProbes(),
		conns:   make(map[string]*conn),
	}
	for _, o := range opts {
		o(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = control.NewMetrics(s.registry)
	if s.pool == nil {
		s.pool = pool.NewBytePool(cfg.ReadBufferSize)
	}

	control.RegisterPlatformProbes(s.probes)
	s.probes.RegisterProbe("active_connections", func() any {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.conns)
	})
	s.probes.RegisterProbe("config", func() any {
		return map[string]any{
			"listen_addr":        cfg.ListenAddr,
			"debug_addr":         cfg.DebugAddr,
			"read_buffer_size":   cfg.ReadBufferSize,
			"max_queued_replies": cfg.MaxQueuedReplies,
		}
	})
	return s, nil
}

// Listen binds the configured address. Run calls it implicitly; tests
// call it directly to learn the bound port before serving.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	ln, err := transport.Listen(s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	s.listener = ln
	return nil
}

// Addr reports the bound listener address, nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Probes exposes the debug probe registry for callers that want to
// register their own hooks next to the built-in ones.
func (s *Server) Probes() *control.DebugProbes {
	return s.probes
}

// track registers a running connection and reserves its slot in the
// shutdown wait group; it refuses new connections once shutdown has
// begun. The Add runs under s.mu, which orders every reservation
// before Shutdown flips closed and calls Wait.
func (s *Server) track(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c.id] = c
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	delete(s.conns, id)
	s.mu.Unlock()
}
