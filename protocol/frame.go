// File: protocol/frame.go
// Package protocol implements the single-frame binary codec.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The decoder accepts exactly one frame shape: FIN set, binary opcode,
// masked by the client, payload length expressible in 16 bits. The
// encoder emits the mirror shape, unmasked, for the server role.

package protocol

import "encoding/binary"

// WebSocket wire protocol constants.
const (
	OpcodeContinuation = 0x0
	OpcodeText         = 0x1
	OpcodeBinary       = 0x2
	OpcodeClose        = 0x8
	OpcodePing         = 0x9
	OpcodePong         = 0xA

	// Bit masks
	FinBit  = 0x80
	MaskBit = 0x80

	opcodeBits = 0x0F
	lengthBits = 0x7F

	maxInlineLen = 125
	len16Marker  = 126
	len64Marker  = 127

	maskKeyLen = 4

	// MaxFramePayload is the largest payload this codec carries in
	// either direction: the full 16-bit extended length range.
	MaxFramePayload = 0xFFFF

	// MaxFrameWireSize is the on-wire size of the largest acceptable
	// inbound frame: two header bytes, two extended length bytes, the
	// mask key and a maximal payload.
	MaxFrameWireSize = 2 + 2 + maskKeyLen + MaxFramePayload
)

// Decode parses one client frame from the front of buf and returns the
// unmasked payload together with the number of bytes consumed. Trailing
// bytes beyond the frame are left for the caller, which lets coalesced
// frames in a single read be drained one by one.
//
// The checks run in a fixed order so that every malformed input maps to
// one deterministic rejection:
//
//	short header            -> ErrTruncated
//	FIN clear               -> ErrFragmentationUnsupported
//	opcode != binary        -> ErrUnsupportedOpcode
//	mask bit clear          -> ErrMaskRequired
//	length field 127        -> ErrPayloadTooLarge
//	missing length/key/body -> ErrTruncated
//
// Bounds violations always surface as ErrTruncated, never as a panic.
func Decode(buf []byte) ([]byte, int, error) {
	if len(buf) < 2 {
		return nil, 0, newFrameError(ErrTruncated, 0, len(buf))
	}

	b0 := buf[0]
	opcode := b0 & opcodeBits
	if b0&FinBit == 0 {
		return nil, 0, newFrameError(ErrFragmentationUnsupported, opcode, 0)
	}
	if opcode != OpcodeBinary {
		return nil, 0, newFrameError(ErrUnsupportedOpcode, opcode, 0)
	}

	b1 := buf[1]
	if b1&MaskBit == 0 {
		return nil, 0, newFrameError(ErrMaskRequired, opcode, int(b1&lengthBits))
	}

	length := int(b1 & lengthBits)
	maskOffset := 2
	switch length {
	case len64Marker:
		// 64-bit lengths are out of range for this codec.
		return nil, 0, newFrameError(ErrPayloadTooLarge, opcode, length)
	case len16Marker:
		if len(buf) < 4 {
			return nil, 0, newFrameError(ErrTruncated, opcode, len(buf))
		}
		length = int(binary.BigEndian.Uint16(buf[2:4]))
		maskOffset = 4
	}

	payloadOffset := maskOffset + maskKeyLen
	total := payloadOffset + length
	if len(buf) < total {
		return nil, 0, newFrameError(ErrTruncated, opcode, length)
	}

	var key [maskKeyLen]byte
	copy(key[:], buf[maskOffset:payloadOffset])

	payload := make([]byte, length)
	for i := 0; i < length; i++ {
		payload[i] = buf[payloadOffset+i] ^ key[i%maskKeyLen]
	}
	return payload, total, nil
}

// Encode serializes payload into a server-to-client binary frame:
// FIN set, binary opcode, no masking. Payloads above MaxFramePayload
// are refused rather than silently mis-framed.
func Encode(payload []byte) ([]byte, error) {
	n := len(payload)
	if n > MaxFramePayload {
		return nil, newFrameError(ErrPayloadTooLarge, OpcodeBinary, n)
	}

	b0 := byte(FinBit | OpcodeBinary)
	var buf []byte
	switch {
	case n <= maxInlineLen:
		buf = make([]byte, 2+n)
		buf[0] = b0
		buf[1] = byte(n)
		copy(buf[2:], payload)
	default:
		buf = make([]byte, 4+n)
		buf[0] = b0
		buf[1] = len16Marker
		binary.BigEndian.PutUint16(buf[2:4], uint16(n))
		copy(buf[4:], payload)
	}
	return buf, nil
}
