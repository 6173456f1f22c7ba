// File: internal/transport/conn.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import "net"

// Conn adapts a net.Conn to api.NetConn. Socket options are applied
// once at construction.
type Conn struct {
	nc net.Conn
}

func newConn(nc net.Conn) *Conn {
	tuneConn(nc)
	return &Conn{nc: nc}
}

// Read reads into a preallocated buffer.
func (c *Conn) Read(p []byte) (int, error) {
	return c.nc.Read(p)
}

// Write writes buffer contents into the connection.
func (c *Conn) Write(p []byte) (int, error) {
	return c.nc.Write(p)
}

// Close shuts down the connection.
func (c *Conn) Close() error {
	return c.nc.Close()
}

// RemoteAddr reports the peer address.
func (c *Conn) RemoteAddr() string {
	return c.nc.RemoteAddr().String()
}
