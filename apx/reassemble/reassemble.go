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

// Package reassemble reassembles fragmented writes arriving on a file
// manager's inbound data path, keyed by the starting address of the first
// fragment. A single reassembler serves one connection at a time: writes
// to different files never interleave at the wire level within one
// connection, so one in-flight fragmented write is all that is needed.
package reassemble

import "github.com/sabouaram/apx/apx/apxfile"

// DefaultCapacity bounds the largest admissible fragmented write; the send
// side fragments into pieces no larger than the transport buffer, so this
// is generous headroom above typical definition-file sizes.
const DefaultCapacity = 4096

// Reassembler holds in-flight fragmented-write state for one connection's
// inbound data path.
type Reassembler struct {
	capacity int

	current *apxfile.File
	base    uint32
	offset  int
	buffer  []byte
	drop    bool
}

// New returns a Reassembler with the given buffer capacity (DefaultCapacity
// if cap <= 0).
func New(capacity int) *Reassembler {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Reassembler{capacity: capacity, buffer: make([]byte, 0, capacity)}
}

func (r *Reassembler) idle() bool {
	return r.current == nil
}

func (r *Reassembler) reset() {
	r.current = nil
	r.base = 0
	r.offset = 0
	r.buffer = r.buffer[:0]
	r.drop = false
}

// Feed processes one inbound data message against the remote file map.
// more indicates whether a continuation fragment follows at
// address+len(payload).
func (r *Reassembler) Feed(remote *apxfile.FileMap, address uint32, payload []byte, more bool) {
	if r.idle() {
		r.feedIdle(remote, address, payload, more)
		return
	}
	r.feedContinuing(address, payload, more)
}

func (r *Reassembler) feedIdle(remote *apxfile.FileMap, address uint32, payload []byte, more bool) {
	f := remote.FindByAddress(address)
	if f == nil || !f.IsOpen() {
		return
	}

	if !more {
		f.Write(address-f.Address, payload)
		return
	}

	if len(payload) > r.capacity {
		// Oversize first fragment: track the write with drop set, so its
		// continuation fragments are consumed and nothing is delivered.
		r.current = f
		r.base = address
		r.offset = len(payload)
		r.drop = true
		return
	}

	r.current = f
	r.base = address
	r.offset = copy(r.buffer[:cap(r.buffer)], payload)
	r.buffer = r.buffer[:r.offset]
}

func (r *Reassembler) feedContinuing(address uint32, payload []byte, more bool) {
	expected := r.base + uint32(r.offset)
	if address != expected {
		r.drop = true
	} else if r.offset+len(payload) <= r.capacity {
		r.buffer = append(r.buffer, payload...)
		r.offset += len(payload)
	} else {
		r.drop = true
	}

	if !more {
		if !r.drop {
			f := r.current
			f.Write(r.base-f.Address, r.buffer)
		}
		r.reset()
	}
}
