// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Defines the transport socket abstraction (NetConn) so the connection
// driver can run over real sockets and over in-memory test doubles.

package api

// NetConn abstracts a full-duplex network connection object
// that may or may not be backed by Go's net.Conn.
type NetConn interface {
	// Read reads into a preallocated buffer
	Read(p []byte) (n int, err error)

	// Write writes buffer contents into the connection
	Write(p []byte) (n int, err error)

	// Close shuts down the connection and notifies upstream layers
	Close() error

	// RemoteAddr reports the peer address for logging
	RemoteAddr() string
}
