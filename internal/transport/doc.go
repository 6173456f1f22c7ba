// File: internal/transport/doc.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// TCP transport layer for strictws. Owns the listening socket, applies
// platform socket options behind build tags (linux/stub), and hands
// accepted connections to the driver as api.NetConn values.

package transport
