// File: server/types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"time"

	"github.com/momentics/strictws/protocol"
)

// Config holds all server-side configuration parameters. Every value
// is consumed once at startup; there is no runtime reconfiguration.
type Config struct {
	ListenAddr       string        // TCP bind address, e.g. ":9001"
	DebugAddr        string        // debug endpoint bind address, "" disables
	ReadBufferSize   int           // per-connection read buffer size
	MaxQueuedReplies int           // outbound frames queued per connection before it is dropped
	ShutdownTimeout  time.Duration // graceful shutdown timeout
}

// DefaultConfig returns sensible defaults. The read buffer covers the
// largest frame the decoder accepts, so a maximal message fits in one
// read.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:       ":9001",
		DebugAddr:        "",
		ReadBufferSize:   protocol.MaxFrameWireSize,
		MaxQueuedReplies: 256,
		ShutdownTimeout:  30 * time.Second,
	}
}

// normalize fills zero values with defaults.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.ListenAddr == "" {
		c.ListenAddr = def.ListenAddr
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = def.ReadBufferSize
	}
	if c.MaxQueuedReplies <= 0 {
		c.MaxQueuedReplies = def.MaxQueuedReplies
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
}
