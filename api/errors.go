// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error values shared across the strictws library.

package api

import "fmt"

// Common errors used across the library.
var (
	ErrServerClosed  = fmt.Errorf("server is closed")
	ErrConnClosed    = fmt.Errorf("connection is closed")
	ErrQueueOverflow = fmt.Errorf("outbound queue overflow")
)
