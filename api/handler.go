// File: api/handler.go
// Package api defines the message Handler interface.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Handler consumes one decoded inbound message and produces the reply
// payload for it. A nil reply with nil error means no reply is sent.
type Handler interface {
	Handle(msg []byte) ([]byte, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(msg []byte) ([]byte, error)

// Handle calls f(msg).
func (f HandlerFunc) Handle(msg []byte) ([]byte, error) {
	return f(msg)
}

// EchoHandler returns every message unchanged.
func EchoHandler() Handler {
	return HandlerFunc(func(msg []byte) ([]byte, error) {
		return msg, nil
	})
}
