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

// Package frame implements the variable-length size prefix that opens every
// message on the byte stream: one byte for bodies up to 127 bytes, four
// bytes big-endian with the top bit set for anything larger.
package frame

import "github.com/sabouaram/apx/apxerrors"

const maxShortBody = 0x7F
const maxBodyLen = 1<<31 - 1

// NeedMore is returned by Decode when buf does not yet hold a complete
// header; the caller should wait for more bytes and retry.
var NeedMore = apxerrors.New(apxerrors.ParseError, "frame: need more bytes")

// Encode writes the size header for a body of length n into buf, returning
// the number of header bytes written, or 0 if buf is too small or n is out
// of range.
func Encode(buf []byte, n int) int {
	if n < 0 || n > maxBodyLen {
		return 0
	}
	if n <= maxShortBody {
		if len(buf) < 1 {
			return 0
		}
		buf[0] = byte(n)
		return 1
	}
	if len(buf) < 4 {
		return 0
	}
	buf[0] = byte(0x80 | (n>>24)&0x7F)
	buf[1] = byte(n >> 16)
	buf[2] = byte(n >> 8)
	buf[3] = byte(n)
	return 4
}

// HeaderLen returns the number of header bytes Encode would use for a body
// of length n.
func HeaderLen(n int) int {
	if n <= maxShortBody {
		return 1
	}
	return 4
}

// Decode reads a size header from the front of buf, returning the decoded
// body length and the number of header bytes consumed. It returns NeedMore
// if buf does not yet contain a complete header.
func Decode(buf []byte) (size int, headerLen int, err error) {
	if len(buf) < 1 {
		return 0, 0, NeedMore
	}
	if buf[0]&0x80 == 0 {
		return int(buf[0]), 1, nil
	}
	if len(buf) < 4 {
		return 0, 0, NeedMore
	}
	size = int(buf[0]&0x7F)<<24 | int(buf[1])<<16 | int(buf[2])<<8 | int(buf[3])
	return size, 4, nil
}
