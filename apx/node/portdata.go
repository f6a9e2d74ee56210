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

package node

import (
	"sync"

	"github.com/sabouaram/apx/apxerrors"
)

// lockedBuffer is a byte buffer guarded by its own lock, with
// bounds-checked offset reads/writes (spec §4.10: "All offset-bounded
// reads and writes return ValueLengthError on bounds violation.").
type lockedBuffer struct {
	mu  sync.RWMutex
	buf []byte
}

func newLockedBuffer(size int) *lockedBuffer {
	return &lockedBuffer{buf: make([]byte, size)}
}

func (b *lockedBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.buf)
}

func (b *lockedBuffer) Read(offset, length uint32) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if uint64(offset)+uint64(length) > uint64(len(b.buf)) {
		return nil, apxerrors.New(apxerrors.ValueLengthError, "node: read out of bounds")
	}
	out := make([]byte, length)
	copy(out, b.buf[offset:offset+length])
	return out, nil
}

func (b *lockedBuffer) Write(offset uint32, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if uint64(offset)+uint64(len(data)) > uint64(len(b.buf)) {
		return apxerrors.New(apxerrors.ValueLengthError, "node: write out of bounds")
	}
	copy(b.buf[offset:], data)
	return nil
}

// Snapshot clones the whole buffer into a freshly allocated block.
func (b *lockedBuffer) Snapshot() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	return out
}

// Replace atomically installs a new backing buffer (used when the
// server-side definition buffer receives the definition bytes from the
// peer).
func (b *lockedBuffer) Replace(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = data
}

// Data holds a node instance's three independently locked byte buffers:
// definition text, provide-port values, require-port values.
type Data struct {
	definition *lockedBuffer
	provide    *lockedBuffer
	require    *lockedBuffer
}

// NewData returns a Data with a definition buffer seeded from def and
// provide/require buffers sized to provideSize/requireSize bytes.
func NewData(def []byte, provideSize, requireSize uint32) *Data {
	return &Data{
		definition: &lockedBuffer{buf: def},
		provide:    newLockedBuffer(int(provideSize)),
		require:    newLockedBuffer(int(requireSize)),
	}
}

func (d *Data) Definition() []byte { return d.definition.Snapshot() }

func (d *Data) ReadProvide(offset, length uint32) ([]byte, error) { return d.provide.Read(offset, length) }
func (d *Data) WriteProvide(offset uint32, data []byte) error     { return d.provide.Write(offset, data) }
func (d *Data) ProvideLen() int                                   { return d.provide.Len() }
func (d *Data) TakeProvideSnapshot() []byte                       { return d.provide.Snapshot() }

func (d *Data) ReadRequire(offset, length uint32) ([]byte, error) { return d.require.Read(offset, length) }
func (d *Data) WriteRequire(offset uint32, data []byte) error     { return d.require.Write(offset, data) }
func (d *Data) RequireLen() int                                   { return d.require.Len() }
func (d *Data) TakeRequireSnapshot() []byte                       { return d.require.Snapshot() }

// ByteOffsetMap maps a byte offset within a port-data buffer to the index
// of the PortInstance whose range contains it. It is immutable after
// construction (spec §4.11).
type ByteOffsetMap []int

// BuildByteOffsetMap walks ports in order, assigning consecutive byte
// ranges, and returns the flat offset -> port-index table.
func BuildByteOffsetMap(ports []*PortInstance) ByteOffsetMap {
	var total uint32
	for _, p := range ports {
		total += p.DataSize
	}
	m := make(ByteOffsetMap, total)
	var offset uint32
	for idx, p := range ports {
		for i := uint32(0); i < p.DataSize; i++ {
			m[offset+i] = idx
		}
		p.DataOffset = offset
		offset += p.DataSize
	}
	return m
}

// PortAt returns the index of the port owning offset, and false if offset
// is out of range.
func (m ByteOffsetMap) PortAt(offset uint32) (int, bool) {
	if int(offset) >= len(m) {
		return 0, false
	}
	return m[offset], true
}
