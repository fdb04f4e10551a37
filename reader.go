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

package boxstream

import (
	"errors"
	"io"

	"github.com/sunrise-choir/ssb-boxstream/framing"
)

// Reader reads box stream frames from an underlying transport,
// authenticates and decrypts them, and hands back plaintext in
// caller-sized slices. Frame boundaries are an internal detail: the
// bytes a Reader returns are exactly the bytes a matching Writer
// accepted, in the same order, regardless of how the caller's output
// buffers happen to be sized.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	conn   io.Reader
	key    framing.Key
	nonces framing.NonceSequence

	body     [framing.MaxBody]byte
	bodyPos  int
	bodySize int

	done bool
}

// NewReader returns a Reader that opens frames with key and a nonce
// sequence starting at nonce, reading from conn.
func NewReader(conn io.Reader, key framing.Key, nonce framing.Nonce) *Reader {
	return NewReaderWithNonceSequence(conn, key, framing.NewIncrementingNonce(nonce))
}

// NewReaderWithNonceSequence is like NewReader but takes the nonce
// generator directly.
func NewReaderWithNonceSequence(conn io.Reader, key framing.Key, nonces framing.NonceSequence) *Reader {
	return &Reader{conn: conn, key: key, nonces: nonces}
}

// Read implements io.Reader. A clean end of stream (the peer's
// goodbye frame was received) is reported as io.EOF, the usual Go
// convention. Any other termination — a transport error or a failed
// authentication — is reported as a non-nil error exactly once; every
// Read after that returns (0, io.EOF), and IsClosed reports true
// throughout.
func (r *Reader) Read(out []byte) (int, error) {
	if r.done {
		return 0, io.EOF
	}
	if len(out) == 0 {
		return 0, nil
	}

	if r.bodyPos == r.bodySize {
		if err := r.readNextFrame(); err != nil {
			r.done = true
			if err == errGoodbye {
				return 0, io.EOF
			}
			return 0, err
		}
	}

	n := copy(out, r.body[r.bodyPos:r.bodySize])
	r.bodyPos += n
	return n, nil
}

// errGoodbye is an internal sentinel distinguishing a clean goodbye
// from a real failure inside readNextFrame; it never escapes Read.
var errGoodbye = errors.New("boxstream: goodbye")

// readNextFrame reads and opens exactly one header, and — unless it
// turns out to be the goodbye marker — exactly the body it describes,
// leaving the decrypted plaintext in r.body[0:r.bodySize].
func (r *Reader) readNextFrame() error {
	var headBuf [framing.HeadSize]byte
	if _, err := io.ReadFull(r.conn, headBuf[:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}

	payload, err := framing.OpenHead(headBuf, r.key, r.nonces)
	if err != nil {
		return err
	}
	if payload.IsGoodbye() {
		return errGoodbye
	}

	bodySize := int(payload.BodySize)
	body := r.body[:bodySize]
	if _, err := io.ReadFull(r.conn, body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	if err := framing.OpenBody(body, payload.BodyTag, r.key, r.nonces); err != nil {
		return err
	}

	r.bodyPos = 0
	r.bodySize = bodySize
	return nil
}

// IsClosed reports whether the Reader has reached its terminal state,
// either because a goodbye frame was received or because a fatal
// error occurred.
func (r *Reader) IsClosed() bool {
	return r.done
}

// UnwrapConn relinquishes the underlying transport. The Reader is
// consumed: subsequent operations behave as if closed.
func (r *Reader) UnwrapConn() io.Reader {
	r.done = true
	return r.conn
}
