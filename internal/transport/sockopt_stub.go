// File: internal/transport/sockopt_stub.go
//go:build !linux
// +build !linux

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Socket tuning stubs for platforms without the Linux syscall surface.

package transport

import (
	"net"
	"syscall"
)

func controlListener(network, address string, c syscall.RawConn) error {
	return nil
}

func tuneConn(conn net.Conn) {}
