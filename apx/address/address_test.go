package address_test

import (
	"testing"

	"github.com/sabouaram/apx/apx/address"
)

func TestEncodeDecodeLowForm(t *testing.T) {
	h := address.Header{Address: 0x10, More: false}
	buf := make([]byte, 4)
	n := address.Encode(buf, h)
	if n != 2 {
		t.Fatalf("expected 2 bytes, got %d", n)
	}
	got, hl, err := address.Decode(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if hl != 2 || got != h {
		t.Fatalf("got %+v (%d), want %+v", got, hl, h)
	}
}

func TestEncodeDecodeHighFormWithMore(t *testing.T) {
	h := address.Header{Address: 0x500000, More: true}
	buf := make([]byte, 4)
	n := address.Encode(buf, h)
	if n != 4 {
		t.Fatalf("expected 4 bytes, got %d", n)
	}
	got, hl, err := address.Decode(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if hl != 4 || got != h {
		t.Fatalf("got %+v (%d), want %+v", got, hl, h)
	}
}

func TestCmdStartAddressIsHighForm(t *testing.T) {
	if !address.IsHighForm(address.RMFCmdStartAddr) {
		t.Fatalf("expected RMFCmdStartAddr to require high form")
	}
}

func TestBoundaryIsHighForm(t *testing.T) {
	if address.IsHighForm(address.RMFDataHighMinAddr - 1) {
		t.Fatalf("0x3FFF must still be low form")
	}
	if !address.IsHighForm(address.RMFDataHighMinAddr) {
		t.Fatalf("0x4000 must be high form")
	}
}

func TestDecodeNeedsMoreBytes(t *testing.T) {
	if _, _, err := address.Decode(nil); err == nil {
		t.Fatalf("expected error on empty buffer")
	}
	if _, _, err := address.Decode([]byte{0x80, 0x00}); err == nil {
		t.Fatalf("expected error on truncated high-form header")
	}
}

// TestCmdStartAddressHighFormBytes pins RMFCmdStartAddr's encoding to the
// bytes the high-form layout produces (marker bit set, more bit clear,
// 30-bit address copied verbatim): BF FF FC 00.
func TestCmdStartAddressHighFormBytes(t *testing.T) {
	buf := make([]byte, 4)
	n := address.Encode(buf, address.Header{Address: address.RMFCmdStartAddr})
	if n != 4 {
		t.Fatalf("expected 4 bytes")
	}
	want := []byte{0xBF, 0xFF, 0xFC, 0x00}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, buf[i], want[i])
		}
	}
}
