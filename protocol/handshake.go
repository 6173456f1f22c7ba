// File: protocol/handshake.go
// Package protocol implements the server-side WebSocket upgrade.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The handshake engine consumes one raw request buffer and yields the
// exact response bytes for it. HTTP parsing itself is delegated to
// net/http; everything after the parse is fixed-order byte building so
// the responses stay bit-identical across runs.

package protocol

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
)

// Constants used for handshake processing.
const (
	// WebSocketGUID is the fixed RFC 6455 concatenation constant.
	WebSocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

	// HeaderSecWebSocketKey names the client nonce header. The parser
	// canonicalizes header names, so lookup is case-insensitive.
	HeaderSecWebSocketKey = "Sec-WebSocket-Key"
)

// Response literals. Clients and tests match these byte for byte, so
// the header order never varies.
const (
	responseBadRequest = "HTTP/1.1 400 Bad Request\r\n\r\n"

	responseSwitchingPrefix = "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: "
)

// ErrMalformedRequest reports a buffer that does not parse as an HTTP
// request at all. There are no response bytes for it; the caller drops
// the connection without writing anything.
var ErrMalformedRequest = fmt.Errorf("malformed handshake request")

// HandshakeResult carries the outcome of one upgrade attempt. Response
// holds the exact bytes to write back; Accepted tells the caller
// whether frame traffic may follow.
type HandshakeResult struct {
	Response []byte
	Accepted bool
}

// Upgrade validates a raw HTTP Upgrade request and produces the
// response for it. Non-GET requests and requests without a
// Sec-WebSocket-Key header are rejected with a 400; anything that does
// not parse returns ErrMalformedRequest. Upgrade never touches a
// socket and keeps no state between calls.
func Upgrade(request []byte) (HandshakeResult, error) {
	req, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(request)))
	if err != nil {
		return HandshakeResult{}, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}

	if req.Method != http.MethodGet {
		return HandshakeResult{Response: []byte(responseBadRequest)}, nil
	}

	keys := req.Header.Values(HeaderSecWebSocketKey)
	if len(keys) == 0 {
		return HandshakeResult{Response: []byte(responseBadRequest)}, nil
	}

	var buf bytes.Buffer
	buf.Grow(len(responseSwitchingPrefix) + 32)
	buf.WriteString(responseSwitchingPrefix)
	buf.WriteString(ComputeAcceptKey(keys[0]))
	buf.WriteString("\r\n\r\n")
	return HandshakeResult{Response: buf.Bytes(), Accepted: true}, nil
}

// ComputeAcceptKey derives the Sec-WebSocket-Accept value for a client
// key: base64 of SHA-1 over the key concatenated with WebSocketGUID.
func ComputeAcceptKey(key string) string {
	h := sha1.New()
	h.Write([]byte(key + WebSocketGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
