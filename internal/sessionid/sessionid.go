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

// Package sessionid derives a short, non-secret tag from a stream's
// keying material, suitable for correlating log lines belonging to
// the same Reader/Writer pair without printing the key itself. It is
// not part of the wire format and carries no security property beyond
// "cheap to compute, unlikely to collide in a single process' logs" —
// the same role obfs4's replay filter uses SipHash-2-4 for, matching
// data against a map instead of labeling a log line.
package sessionid

import (
	"encoding/base32"
	"encoding/binary"

	"github.com/dchest/siphash"

	"github.com/sunrise-choir/ssb-boxstream/framing"
)

// logTagKey is fixed: the tag is for human-readable correlation, not
// authentication, so there is no need to derive or rotate it per
// session the way the wire format's secretbox key is.
var logTagKey = [2]uint64{0x736f6d6570736575, 0x646f72616e646f6d}

// Tag returns an 8-character base32 string derived from key and
// nonce, for use as a log field identifying one half-stream.
func Tag(key framing.Key, nonce framing.Nonce) string {
	buf := make([]byte, len(key)+len(nonce))
	copy(buf, key[:])
	copy(buf[len(key):], nonce[:])

	h := siphash.Hash(logTagKey[0], logTagKey[1], buf)
	var enc [8]byte
	binary.BigEndian.PutUint64(enc[:], h)
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(enc[:])[:8]
}
