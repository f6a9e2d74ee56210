/*
MIT License

Copyright (c) 2025 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package address implements the address header that opens every
// non-framing message: a low form (2 bytes) for small addresses and a high
// form (4 bytes) otherwise, each carrying a `more` fragmentation bit.
//
// Address mask constants follow the non-embedded variant (spec design note
// §9: the embedded and non-embedded sources disagreed; this rewrite picks
// the non-embedded one and documents it here).
package address

import "github.com/sabouaram/apx/apxerrors"

const (
	// RMFDataHighMinAddr is the first address that requires the high
	// (4-byte) address form.
	RMFDataHighMinAddr uint32 = 0x4000

	// RMFCmdStartAddr is the fixed address used by command messages.
	RMFCmdStartAddr uint32 = 0x3FFF_FC00

	lowAddrMask  uint32 = 0x3FFF
	highAddrMask uint32 = 0x3FFF_FFFF
)

// Header is a decoded address header.
type Header struct {
	Address uint32
	More    bool
}

// IsHighForm reports whether addr requires the 4-byte encoding.
func IsHighForm(addr uint32) bool {
	return addr >= RMFDataHighMinAddr
}

// Encode writes the address header for h into buf, returning the number of
// bytes written, or 0 if buf is too small.
func Encode(buf []byte, h Header) int {
	if !IsHighForm(h.Address) {
		if len(buf) < 2 {
			return 0
		}
		v := h.Address & lowAddrMask
		if h.More {
			v |= 0x4000
		}
		buf[0] = byte(v >> 8)
		buf[1] = byte(v)
		return 2
	}
	if len(buf) < 4 {
		return 0
	}
	v := h.Address&highAddrMask | 0x8000_0000
	if h.More {
		v |= 0x4000_0000
	}
	buf[0] = byte(v >> 24)
	buf[1] = byte(v >> 16)
	buf[2] = byte(v >> 8)
	buf[3] = byte(v)
	return 4
}

// HeaderLen returns the number of bytes Encode would use for addr.
func HeaderLen(addr uint32) int {
	if IsHighForm(addr) {
		return 4
	}
	return 2
}

// Decode reads an address header from the front of buf.
func Decode(buf []byte) (h Header, headerLen int, err error) {
	if len(buf) < 2 {
		return Header{}, 0, apxerrors.New(apxerrors.ParseError, "address: need at least 2 bytes")
	}
	if buf[0]&0x80 == 0 {
		v := uint32(buf[0])<<8 | uint32(buf[1])
		return Header{Address: v & lowAddrMask, More: v&0x4000 != 0}, 2, nil
	}
	if len(buf) < 4 {
		return Header{}, 0, apxerrors.New(apxerrors.ParseError, "address: need 4 bytes for high form")
	}
	v := uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
	return Header{Address: v & highAddrMask, More: v&0x4000_0000 != 0}, 4, nil
}
