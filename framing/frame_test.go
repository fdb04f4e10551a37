package framing

import (
	"fmt"
	"testing"
)

// Test vectors from the box stream reference test suite
// (https://github.com/AljoschaMeyer/box-stream-c), reused by every
// known box stream implementation to cross-check wire compatibility.
var (
	testKey = Key{
		162, 29, 153, 150, 123, 225, 10, 173, 175, 201, 160, 34, 190, 179, 158, 14,
		176, 105, 232, 238, 97, 66, 133, 194, 250, 148, 199, 7, 34, 157, 174, 24,
	}

	testStartNonce = Nonce{
		44, 140, 79, 227, 23, 153, 202, 203, 81, 40, 114, 59,
		56, 167, 63, 166, 201, 9, 50, 152, 0, 255, 226, 147,
	}

	wantHead1 = [HeadSize]byte{
		181, 28, 106, 117, 226, 186, 113, 206, 135, 153, 250, 54, 221, 225, 178, 211,
		144, 190, 14, 102, 102, 246, 118, 54, 195, 34, 174, 182, 190, 45, 129, 48, 96, 193,
	}
	wantBody1 = []byte{231, 234, 80, 195, 113, 173, 5, 158}

	wantHead2 = [HeadSize]byte{
		227, 230, 249, 230, 176, 170, 49, 34, 220, 29, 156, 118, 225, 243, 7, 3,
		163, 197, 125, 225, 240, 111, 195, 126, 240, 148, 201, 237, 158, 158, 134, 224, 246, 137,
	}
	wantBody2 = []byte{22, 134, 141, 191, 19, 113, 211, 114}

	wantHead3 = [HeadSize]byte{
		10, 48, 84, 111, 103, 103, 35, 162, 175, 78, 189, 58, 240, 250, 196, 226,
		194, 197, 87, 73, 119, 174, 129, 124, 225, 30, 3, 26, 37, 221, 87, 213, 153, 123,
	}
)

func TestSealBodyVectors(t *testing.T) {
	nonces := NewIncrementingNonce(testStartNonce)

	body1 := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	head1 := SealBody(body1, testKey, nonces)
	if head1 != wantHead1 {
		t.Fatalf("frame 1 head = %v, want %v", head1, wantHead1)
	}
	if string(body1) != string(wantBody1) {
		t.Fatalf("frame 1 body = %v, want %v", body1, wantBody1)
	}

	body2 := []byte{7, 6, 5, 4, 3, 2, 1, 0}
	head2 := SealBody(body2, testKey, nonces)
	if head2 != wantHead2 {
		t.Fatalf("frame 2 head = %v, want %v", head2, wantHead2)
	}
	if string(body2) != string(wantBody2) {
		t.Fatalf("frame 2 body = %v, want %v", body2, wantBody2)
	}

	head3 := SealGoodbye(testKey, nonces)
	if head3 != wantHead3 {
		t.Fatalf("goodbye head = %v, want %v", head3, wantHead3)
	}
}

func TestSealOpenRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 8, 4095, MaxBody} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			sealNonces := NewIncrementingNonce(testStartNonce)
			openNonces := NewIncrementingNonce(testStartNonce)

			plain := make([]byte, n)
			for i := range plain {
				plain[i] = byte(i)
			}
			orig := append([]byte(nil), plain...)

			head := SealBody(plain, testKey, sealNonces)

			payload, err := OpenHead(head, testKey, openNonces)
			if err != nil {
				t.Fatalf("OpenHead: %v", err)
			}
			if int(payload.BodySize) != n {
				t.Fatalf("body size = %d, want %d", payload.BodySize, n)
			}
			if err := OpenBody(plain, payload.BodyTag, testKey, openNonces); err != nil {
				t.Fatalf("OpenBody: %v", err)
			}
			if string(plain) != string(orig) {
				t.Fatalf("round trip mismatch: got %v, want %v", plain, orig)
			}
		})
	}
}

func TestOpenGoodbye(t *testing.T) {
	// Advance a fresh sequence past the two frames sealed above (two
	// nonces each) to land on the nonce that sealed the goodbye header.
	nonces := NewIncrementingNonce(testStartNonce)
	nonces.Next()
	nonces.Next()
	nonces.Next()
	nonces.Next()

	payload, err := OpenHead(wantHead3, testKey, nonces)
	if err != nil {
		t.Fatalf("OpenHead: %v", err)
	}
	if !payload.IsGoodbye() {
		t.Fatalf("expected goodbye payload, got %+v", payload)
	}
}

func TestHeaderTamperDetected(t *testing.T) {
	nonces := NewIncrementingNonce(testStartNonce)
	body := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	head := SealBody(body, testKey, nonces)
	head[0] ^= 0x01

	if _, err := OpenHead(head, testKey, NewIncrementingNonce(testStartNonce)); err != ErrHeaderOpenFailed {
		t.Fatalf("got %v, want ErrHeaderOpenFailed", err)
	}
}

func TestBodyTamperDetected(t *testing.T) {
	nonces := NewIncrementingNonce(testStartNonce)
	body := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	head := SealBody(body, testKey, nonces)
	body[0] ^= 0x01

	openNonces := NewIncrementingNonce(testStartNonce)
	payload, err := OpenHead(head, testKey, openNonces)
	if err != nil {
		t.Fatalf("OpenHead: %v", err)
	}
	if err := OpenBody(body, payload.BodyTag, testKey, openNonces); err != ErrBodyOpenFailed {
		t.Fatalf("got %v, want ErrBodyOpenFailed", err)
	}
}

func TestGoodbyePayloadIsGoodbye(t *testing.T) {
	p := HeadPayload{}
	if !p.IsGoodbye() {
		t.Fatal("zero-value HeadPayload should be the goodbye sentinel")
	}

	p.BodySize = 1
	if p.IsGoodbye() {
		t.Fatal("non-zero body size must not be treated as goodbye")
	}
}
