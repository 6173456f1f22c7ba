// Package protocol
// Author: momentics <momentics@gmail.com>
//
// Implements the strict server-side subset of RFC 6455 for strictws:
// the HTTP Upgrade handshake and a single-frame binary codec.
//
// Everything in this package is a pure function over byte slices. No
// sockets, no goroutines, no shared state. The accepted frame shape is
// deliberately narrow: FIN set, binary opcode, client-masked, payload
// up to 65535 bytes. Every other header combination maps to a named
// rejection so callers can report exactly why a peer was dropped.
//
// Includes:
//   - Upgrade: raw request bytes -> HandshakeResult with exact response bytes
//   - ComputeAcceptKey: Sec-WebSocket-Accept derivation
//   - Decode/Encode: wire frames <-> payloads
package protocol
