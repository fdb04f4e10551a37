/*
 * Copyright (c) 2014, Yawning Angel <yawning at torproject dot org>
 * All rights reserved.
 *
 * Redistribution and use in source and binary forms, with or without
 * modification, are permitted provided that the following conditions are met:
 *
 *  * Redistributions of source code must retain the above copyright notice,
 *    this list of conditions and the following disclaimer.
 *
 *  * Redistributions in binary form must reproduce the above copyright notice,
 *    this list of conditions and the following disclaimer in the documentation
 *    and/or other materials provided with the distribution.
 *
 * THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
 * AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
 * IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
 * ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
 * LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
 * CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
 * SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
 * INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
 * CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
 * ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
 * POSSIBILITY OF SUCH DAMAGE.
 */

// Package framing implements the box stream frame codec and the
// per-direction nonce sequence it consumes: sealing a plaintext body
// into a 34-byte authenticated header plus ciphertext body, and
// opening a sealed header or body back into plaintext. It performs no
// I/O; callers (package boxstream) own reading and writing the wire
// bytes and simply hand this package whole headers and whole bodies.
package framing

import (
	"encoding/binary"
	"errors"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// KeyLength is the length in bytes of a box stream secret key.
	KeyLength = 32

	// TagLength is the length in bytes of a detached secretbox
	// authentication tag.
	TagLength = secretbox.Overhead

	// MaxBody is the largest plaintext body a writer will ever seal
	// into a single frame.
	MaxBody = 4096

	// HeadPayloadSize is the length in bytes of a header's plaintext:
	// a big-endian uint16 body size followed by the body's tag.
	HeadPayloadSize = 2 + TagLength

	// HeadSize is the length in bytes of a sealed header on the wire:
	// the header's own detached tag followed by its sealed payload.
	HeadSize = TagLength + HeadPayloadSize
)

// ErrHeaderOpenFailed indicates that authenticating a 34-byte sealed
// header failed. The stream this occurred on is no longer usable.
var ErrHeaderOpenFailed = errors.New("framing: header authentication failed")

// ErrBodyOpenFailed indicates that authenticating a sealed body
// failed. The stream this occurred on is no longer usable.
var ErrBodyOpenFailed = errors.New("framing: body authentication failed")

// Key is the 32-byte secretbox key for one direction of a stream.
type Key [KeyLength]byte

// HeadPayload is the 18-byte plaintext of a header: the size of the
// body it describes and that body's detached authentication tag. A
// HeadPayload with BodySize == 0 and an all-zero BodyTag is the
// distinguished goodbye marker.
type HeadPayload struct {
	BodySize uint16
	BodyTag  [TagLength]byte
}

// IsGoodbye reports whether this payload is the goodbye sentinel.
func (h HeadPayload) IsGoodbye() bool {
	if h.BodySize != 0 {
		return false
	}
	for _, b := range h.BodyTag {
		if b != 0 {
			return false
		}
	}
	return true
}

func (h HeadPayload) bytes() [HeadPayloadSize]byte {
	var b [HeadPayloadSize]byte
	binary.BigEndian.PutUint16(b[0:2], h.BodySize)
	copy(b[2:], h.BodyTag[:])
	return b
}

func headPayloadFromBytes(b []byte) HeadPayload {
	var h HeadPayload
	h.BodySize = binary.BigEndian.Uint16(b[0:2])
	copy(h.BodyTag[:], b[2:])
	return h
}

// SealBody encrypts body in place with a nonce drawn from nonces and
// returns the 34-byte sealed Head describing it. len(body) must be at
// most MaxBody; the caller (the writer state machine) is responsible
// for never exceeding it.
func SealBody(body []byte, key Key, nonces NonceSequence) [HeadSize]byte {
	headNonce := nonces.Next()
	bodyNonce := nonces.Next()

	bodyTag := sealDetached(body, bodyNonce, key)
	payload := HeadPayload{BodySize: uint16(len(body)), BodyTag: bodyTag}
	return sealHead(payload, headNonce, key)
}

// SealGoodbye seals the goodbye sentinel payload using the next header
// nonce. It does not consume a body nonce, since no body follows.
func SealGoodbye(key Key, nonces NonceSequence) [HeadSize]byte {
	headNonce := nonces.Next()
	return sealHead(HeadPayload{}, headNonce, key)
}

func sealHead(payload HeadPayload, nonce Nonce, key Key) [HeadSize]byte {
	plain := payload.bytes()
	tag := sealDetached(plain[:], nonce, key)

	var out [HeadSize]byte
	copy(out[:TagLength], tag[:])
	copy(out[TagLength:], plain[:])
	return out
}

// sealDetached encrypts plain in place and returns the detached
// authentication tag. NaCl secretbox's combined output is the
// Poly1305 tag followed by the ciphertext, so splitting the two
// apart after a normal Seal call gives exactly the detached form the
// wire format needs.
func sealDetached(plain []byte, nonce Nonce, key Key) [TagLength]byte {
	var n [24]byte
	copy(n[:], nonce[:])
	var k [32]byte
	copy(k[:], key[:])

	sealed := secretbox.Seal(nil, plain, &n, &k)
	var tag [TagLength]byte
	copy(tag[:], sealed[:TagLength])
	copy(plain, sealed[TagLength:])
	return tag
}

// OpenHead authenticates and decrypts a 34-byte sealed header,
// consuming the next nonce from nonces. It returns ErrHeaderOpenFailed
// without consuming any further nonce on failure.
func OpenHead(head [HeadSize]byte, key Key, nonces NonceSequence) (HeadPayload, error) {
	nonce := nonces.Next()

	var plain [HeadPayloadSize]byte
	copy(plain[:], head[TagLength:])
	if !openDetached(plain[:], head[:TagLength], nonce, key) {
		return HeadPayload{}, ErrHeaderOpenFailed
	}
	return headPayloadFromBytes(plain[:]), nil
}

// OpenBody authenticates and decrypts a body ciphertext in place,
// consuming the next nonce from nonces. bodyTag is the tag carried in
// the already-opened HeadPayload.
func OpenBody(body []byte, bodyTag [TagLength]byte, key Key, nonces NonceSequence) error {
	nonce := nonces.Next()
	if !openDetached(body, bodyTag[:], nonce, key) {
		return ErrBodyOpenFailed
	}
	return nil
}

func openDetached(cipher []byte, tag []byte, nonce Nonce, key Key) bool {
	var n [24]byte
	copy(n[:], nonce[:])
	var k [32]byte
	copy(k[:], key[:])

	sealed := make([]byte, TagLength+len(cipher))
	copy(sealed[:TagLength], tag)
	copy(sealed[TagLength:], cipher)

	opened, ok := secretbox.Open(nil, sealed, &n, &k)
	if !ok {
		return false
	}
	copy(cipher, opened)
	return true
}
