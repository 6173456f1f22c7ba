// File: server/run.go
// Package server implements startup, the connection acceptor and
// graceful shutdown.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/momentics/strictws/api"
	"github.com/momentics/strictws/control"
)

// Run listens and serves until ctx is canceled, then shuts down
// gracefully. The optional debug endpoint shares the lifecycle.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.log.WithField("addr", s.listener.Addr().String()).Info("listening")

	g, gctx := errgroup.WithContext(ctx)

	var debug *control.DebugServer
	if s.cfg.DebugAddr != "" {
		debug = control.NewDebugServer(s.cfg.DebugAddr, s.registry, s.probes)
		g.Go(debug.ListenAndServe)
		s.log.WithField("addr", s.cfg.DebugAddr).Info("debug endpoint up")
	}

	g.Go(s.acceptLoop)

	g.Go(func() error {
		<-gctx.Done()
		sdCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if debug != nil {
			_ = debug.Shutdown(sdCtx)
		}
		return s.Shutdown(sdCtx)
	})

	return g.Wait()
}

// acceptLoop spawns one goroutine per accepted connection.
func (s *Server) acceptLoop() error {
	for {
		nc, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, api.ErrServerClosed) {
				return nil
			}
			return err
		}
		c := newConn(s, nc)
		if !s.track(c) {
			_ = nc.Close()
			return nil
		}
		go func() {
			defer s.wg.Done()
			defer s.untrack(c.id)
			c.run()
		}()
	}
}

// Shutdown stops accepting, closes live connections and waits for
// their goroutines until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conns := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	for _, c := range conns {
		c.closeTransport()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.log.Info("server stopped")
	return err
}
