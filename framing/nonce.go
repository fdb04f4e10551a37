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

package framing

// NonceSize is the length in bytes of a box stream nonce.
const NonceSize = 24

// Nonce is a 24 byte secretbox nonce, unique per sealed header or body
// within one direction of a stream.
type Nonce [NonceSize]byte

// NonceSequence hands out a fresh Nonce on every call to Next. Seal and
// Open consume exactly one Nonce per header and one per body, in that
// order, so the sequence on both peers must stay in lockstep.
type NonceSequence interface {
	Next() Nonce
}

// incrementingNonce is the deterministic big-endian counter nonce
// generator that both peers of a box stream run from the starting
// nonce the handshake produced: the starting nonce is
// handed out first, then incremented as a big-endian integer (wrapping
// at each byte, starting from the rightmost) before every subsequent
// call.
type incrementingNonce struct {
	next Nonce
}

// NewIncrementingNonce returns a NonceSequence that starts at start and
// increments like a big-endian counter on every Next call.
func NewIncrementingNonce(start Nonce) NonceSequence {
	return &incrementingNonce{next: start}
}

func (n *incrementingNonce) Next() Nonce {
	cur := n.next
	for i := len(n.next) - 1; i >= 0; i-- {
		n.next[i]++
		if n.next[i] != 0 {
			break
		}
	}
	return cur
}

// FixedNonceSequence always returns the same Nonce. It exists only for
// tests that need to drive the codec with a known nonce without caring
// about increment order.
type FixedNonceSequence struct {
	Value Nonce
}

func (f FixedNonceSequence) Next() Nonce {
	return f.Value
}
