package boxstream

import (
	"bytes"
	"io"
	"testing"

	"github.com/sunrise-choir/ssb-boxstream/framing"
)

// pipeConn wires a Stream's write half to another Stream's read half
// over an io.Pipe, standing in for a real net.Conn in these tests.
type pipeConn struct {
	*io.PipeReader
	*io.PipeWriter
}

func (c pipeConn) Close() error {
	rerr := c.PipeReader.Close()
	werr := c.PipeWriter.Close()
	if rerr != nil {
		return rerr
	}
	return werr
}

func newPipeConns() (a, b pipeConn) {
	ar, bw := io.Pipe()
	br, aw := io.Pipe()
	return pipeConn{ar, aw}, pipeConn{br, bw}
}

func TestStreamTwoWayRoundTrip(t *testing.T) {
	keyAB, nonceAB := testKeyNonce()
	keyBA := framing.Key{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16,
		17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32}
	nonceBA := framing.Nonce{9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9}

	connA, connB := newPipeConns()
	a := New(connA, keyBA, nonceBA, connA, keyAB, nonceAB)
	b := New(connB, keyAB, nonceAB, connB, keyBA, nonceBA)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := a.Write([]byte("hello, b")); err != nil {
			t.Errorf("a.Write: %v", err)
			return
		}
		if err := a.Flush(); err != nil {
			t.Errorf("a.Flush: %v", err)
			return
		}
		if err := a.Close(); err != nil {
			t.Errorf("a.Close: %v", err)
		}
	}()

	got, err := io.ReadAll(b)
	if err != nil {
		t.Fatalf("b read: %v", err)
	}
	<-done

	if string(got) != "hello, b" {
		t.Fatalf("got %q, want %q", got, "hello, b")
	}
	if !b.Reader.IsClosed() {
		t.Fatal("expected b's reader to be closed after a's goodbye")
	}
}

func TestStreamOversizedBodySplitsAcrossFrames(t *testing.T) {
	key, nonce := testKeyNonce()
	var wire bytes.Buffer
	w := NewWriter(&wire, key, nonce)

	body := make([]byte, 10000)
	for i := range body {
		body[i] = byte(i % 251)
	}
	if _, err := w.Write(body); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// 10000 bytes splits into MaxBody + MaxBody + remainder, each its
	// own head, plus the trailing goodbye head.
	fullFrames := 10000 / framing.MaxBody
	remainder := 10000 % framing.MaxBody
	wantLen := fullFrames*(framing.HeadSize+framing.MaxBody) + framing.HeadSize + remainder + framing.HeadSize
	if wire.Len() != wantLen {
		t.Fatalf("wire = %d bytes, want %d", wire.Len(), wantLen)
	}

	r := NewReader(bytes.NewReader(wire.Bytes()), key, nonce)
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Fatal("oversized body did not round-trip across multiple frames")
	}
}

func TestStreamNonceAdvancesTwicePerFrameOncePerGoodbye(t *testing.T) {
	key, nonce := testKeyNonce()
	var wire bytes.Buffer
	w := NewWriter(&wire, key, nonce)

	for i := 0; i < 3; i++ {
		if _, err := w.Write([]byte{byte(i)}); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if err := w.Flush(); err != nil {
			t.Fatalf("Flush: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// 3 body frames (1 head nonce use each) + 3 body-tag nonce uses +
	// 1 goodbye head nonce use: a fresh reader driven by the same
	// starting nonce must open every one of them in order.
	r := NewReader(bytes.NewReader(wire.Bytes()), key, nonce)
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, []byte{0, 1, 2}) {
		t.Fatalf("got %v, want [0 1 2]", got)
	}
	if !r.IsClosed() {
		t.Fatal("expected reader closed after goodbye")
	}
}
