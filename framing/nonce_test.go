package framing

import "testing"

func TestIncrementingNonceWrap(t *testing.T) {
	var start Nonce
	copy(start[22:], []byte{0xFF, 0xFF})

	seq := NewIncrementingNonce(start)

	want := [][]byte{
		{0x00, 0xFF, 0xFF},
		{0x01, 0x00, 0x00},
		{0x01, 0x00, 0x01},
	}

	for i, w := range want {
		got := seq.Next()
		if got[21] != w[0] || got[22] != w[1] || got[23] != w[2] {
			t.Fatalf("call %d: got tail %v, want %v", i, got[21:], w)
		}
		for j := 0; j < 21; j++ {
			if got[j] != 0 {
				t.Fatalf("call %d: byte %d = %d, want 0", i, j, got[j])
			}
		}
	}
}
