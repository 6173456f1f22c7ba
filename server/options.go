// File: server/options.go
// Package server defines functional options for the Server.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/momentics/strictws/api"
)

// ServerOption customizes server initialization.
type ServerOption func(*Server)

// WithHandler sets the message handler. The default echoes every
// message back unchanged.
func WithHandler(h api.Handler) ServerOption {
	return func(s *Server) {
		if h != nil {
			s.handler = h
		}
	}
}

// WithLogger routes server logging through the given logger.
func WithLogger(l *logrus.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l.WithField("component", "server")
		}
	}
}

// WithRegistry registers the server's collectors with an existing
// prometheus registry instead of a private one.
func WithRegistry(reg *prometheus.Registry) ServerOption {
	return func(s *Server) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// WithBufferPool overrides the read buffer pool.
func WithBufferPool(p api.BytePool) ServerOption {
	return func(s *Server) {
		if p != nil {
			s.pool = p
		}
	}
}
