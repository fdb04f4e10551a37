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

// Package boxstream turns an already-established shared secret (one
// key plus one starting nonce per direction, as produced by a
// handshake this package does not perform) into a confidential,
// integrity-checked, in-order byte stream with an explicit
// end-of-stream marker. See Reader and Writer for the two independent
// half-streams, and Stream for the usual bidirectional composition of
// both.
package boxstream

import (
	"io"

	"github.com/sunrise-choir/ssb-boxstream/framing"
)

// Stream composes one Reader over the inbound half of a transport and
// one Writer over the outbound half. The two halves are independent
// state machines sharing nothing but the Stream's lifetime; Stream
// itself adds no behavior beyond wiring io.Reader/io.Writer/io.Closer
// to the pair, the way duplex.rs's BoxStream composes BoxReader and
// BoxWriter.
type Stream struct {
	Reader *Reader
	Writer *Writer
}

// New returns a Stream reading with (readKey, readNonce) from r and
// writing with (writeKey, writeNonce) to w.
func New(r io.Reader, readKey framing.Key, readNonce framing.Nonce, w io.Writer, writeKey framing.Key, writeNonce framing.Nonce) *Stream {
	return &Stream{
		Reader: NewReader(r, readKey, readNonce),
		Writer: NewWriter(w, writeKey, writeNonce),
	}
}

// Read implements io.Reader by delegating to the read half.
func (s *Stream) Read(out []byte) (int, error) {
	return s.Reader.Read(out)
}

// Write implements io.Writer by delegating to the write half.
func (s *Stream) Write(p []byte) (int, error) {
	return s.Writer.Write(p)
}

// Flush delegates to the write half.
func (s *Stream) Flush() error {
	return s.Writer.Flush()
}

// NewClientStream and NewServerStream exist because the handshake
// that produces the four pieces of keying material already labels
// which pair is "ours to read" and which is "ours to write" — at this
// layer client and server are interchangeable aliases for New, the
// way duplex.rs's construction is symmetric in both directions.
func NewClientStream(r io.Reader, readKey framing.Key, readNonce framing.Nonce, w io.Writer, writeKey framing.Key, writeNonce framing.Nonce) *Stream {
	return New(r, readKey, readNonce, w, writeKey, writeNonce)
}

func NewServerStream(r io.Reader, readKey framing.Key, readNonce framing.Nonce, w io.Writer, writeKey framing.Key, writeNonce framing.Nonce) *Stream {
	return New(r, readKey, readNonce, w, writeKey, writeNonce)
}

// Close closes the write half (flushing and emitting a goodbye frame)
// and, if the underlying reader also implements io.Closer, closes it
// too. It does not wait for the peer's own goodbye.
func (s *Stream) Close() error {
	werr := s.Writer.Close()
	if c, ok := s.Reader.conn.(io.Closer); ok {
		if rerr := c.Close(); rerr != nil && werr == nil {
			return rerr
		}
	}
	return werr
}

// Split returns the two independent halves, for callers that want to
// move the read and write sides to different goroutines.
func (s *Stream) Split() (*Reader, *Writer) {
	return s.Reader, s.Writer
}
