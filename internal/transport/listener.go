// File: internal/transport/listener.go
// TCP listener for the strictws connection driver.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/momentics/strictws/api"
)

// Listener accepts TCP connections and hands them to the driver as
// api.NetConn values with socket tuning already applied.
type Listener struct {
	ln net.Listener
}

// Listen binds addr with SO_REUSEADDR set before bind, so a restarted
// server can reclaim its port immediately.
func Listen(addr string) (*Listener, error) {
	lc := net.ListenConfig{Control: controlListener}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return &Listener{ln: ln}, nil
}

// Accept returns the next connection. After Close it reports
// api.ErrServerClosed.
func (l *Listener) Accept() (api.NetConn, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			return nil, api.ErrServerClosed
		}
		return nil, fmt.Errorf("accept connection: %w", err)
	}
	return newConn(conn), nil
}

// Close shuts down the listener to stop Accept.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Addr returns the bound listener address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}
