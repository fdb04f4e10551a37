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
	"io"

	"github.com/sunrise-choir/ssb-boxstream/framing"
)

// flusher is implemented by transports that buffer internally and
// need an explicit nudge to push bytes onward, mirroring the standard
// library's http.Flusher idiom. Transports that write straight through
// (a net.Conn, a bytes.Buffer) need not implement it.
type flusher interface {
	Flush() error
}

// Writer buffers plaintext written to it, sealing it into box stream
// frames and writing the result to the underlying transport. Writes
// are accumulated up to framing.MaxBody bytes before a frame is
// sealed and sent; Flush forces any partial buffer out early. Close
// flushes, emits exactly one goodbye frame, and closes the underlying
// transport.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	conn   io.Writer
	key    framing.Key
	nonces framing.NonceSequence

	buf    [framing.MaxBody]byte
	pos    int
	closed bool
}

// NewWriter returns a Writer that seals frames with key and a nonce
// sequence starting at nonce, writing the result to conn.
func NewWriter(conn io.Writer, key framing.Key, nonce framing.Nonce) *Writer {
	return NewWriterWithNonceSequence(conn, key, framing.NewIncrementingNonce(nonce))
}

// NewWriterWithNonceSequence is like NewWriter but takes the nonce
// generator directly, for callers (and tests) that need a sequence
// other than the standard incrementing counter.
func NewWriterWithNonceSequence(conn io.Writer, key framing.Key, nonces framing.NonceSequence) *Writer {
	return &Writer{conn: conn, key: key, nonces: nonces}
}

// Write implements io.Writer. It accepts all of p, buffering it and
// sealing/sending full frames as the buffer fills; it never returns a
// short count without an error.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}

	var n int
	for len(p) > 0 {
		room := framing.MaxBody - w.pos
		m := min(room, len(p))
		copy(w.buf[w.pos:], p[:m])
		w.pos += m
		n += m
		p = p[m:]

		if w.pos == framing.MaxBody {
			if err := w.sendFrame(w.pos); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

// Flush seals any buffered plaintext into a frame, sends it, and
// flushes the underlying transport if it supports that.
func (w *Writer) Flush() error {
	if w.closed {
		return nil
	}

	if w.pos > 0 {
		if err := w.sendFrame(w.pos); err != nil {
			return err
		}
	}

	if f, ok := w.conn.(flusher); ok {
		if err := f.Flush(); err != nil {
			w.fail()
			return err
		}
	}
	return nil
}

// Close flushes pending bytes, emits exactly one goodbye frame, and
// closes the underlying transport if it supports that. Calling Close
// on an already-closed Writer is a no-op. Close never emits a
// goodbye for a Writer that previously failed; a broken stream just
// stays broken.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}

	if err := w.Flush(); err != nil {
		return err
	}

	head := framing.SealGoodbye(w.key, w.nonces)
	if err := w.writeFull(head[:]); err != nil {
		w.fail()
		return err
	}
	w.closed = true

	if c, ok := w.conn.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// IsClosed reports whether the Writer has reached its terminal state,
// either from a clean Close or from a fatal transport error.
func (w *Writer) IsClosed() bool {
	return w.closed
}

// UnwrapConn relinquishes the underlying transport. The Writer is
// consumed: subsequent operations behave as if Closed, matching the
// source's into_inner(self), which takes ownership of the Writer.
func (w *Writer) UnwrapConn() io.Writer {
	w.closed = true
	return w.conn
}

func (w *Writer) sendFrame(bodyLen int) error {
	body := w.buf[:bodyLen]
	head := framing.SealBody(body, w.key, w.nonces)

	if err := w.writeFull(head[:]); err != nil {
		w.fail()
		return err
	}
	if err := w.writeFull(body); err != nil {
		w.fail()
		return err
	}
	w.pos = 0
	return nil
}

// writeFull drives b onto the transport to completion. A conforming
// io.Writer never returns a short count without an error, but looping
// here costs nothing and is what preserves position across a
// defensive transport that does.
func (w *Writer) writeFull(b []byte) error {
	for len(b) > 0 {
		n, err := w.conn.Write(b)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrNoProgress
		}
		b = b[n:]
	}
	return nil
}

func (w *Writer) fail() {
	w.closed = true
	w.pos = 0
}
