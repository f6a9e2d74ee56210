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

package apxfile

import (
	"sort"
	"sync"

	"github.com/sabouaram/apx/apxerrors"
	"github.com/sabouaram/apx/apx/command"
)

// Region boundaries for address auto-assignment.
const (
	PortDataRegionStart   uint32 = 0x0000_0000
	PortDataRegionEnd     uint32 = 0x0400_0000
	PortDataBoundary      uint32 = 0x400

	DefinitionRegionStart uint32 = 0x0400_0000
	DefinitionRegionEnd   uint32 = 0x2000_0000
	DefinitionBoundary    uint32 = 0x10_0000

	UserRegionStart uint32 = 0x2000_0000
	UserRegionEnd   uint32 = 0x3FDF_FC00
	UserBoundary    uint32 = 0x10_0000

	EventLogRegionStart uint32 = 0x3FDF_FC00
	EventLogRegionEnd   uint32 = 0x4000_0000
)

var errOutOfAddressSpace = apxerrors.New(apxerrors.FileCreate, "apxfile: region exhausted")
var errDuplicateName = apxerrors.New(apxerrors.FileCreate, "apxfile: duplicate file name")

// region returns the [start, end) bounds and the alignment boundary for a
// file of the given type: port-value files live in the port-data region,
// the APX definition file lives in the definition region, everything else
// (device/stream/user files) lives in the user region.
func region(ft command.FileType, isPortData bool, isDefinition bool) (start, end, boundary uint32) {
	switch {
	case isPortData:
		return PortDataRegionStart, PortDataRegionEnd, PortDataBoundary
	case isDefinition:
		return DefinitionRegionStart, DefinitionRegionEnd, DefinitionBoundary
	default:
		return UserRegionStart, UserRegionEnd, UserBoundary
	}
}

func ceilTo(v, boundary uint32) uint32 {
	if boundary == 0 {
		return v
	}
	rem := v % boundary
	if rem == 0 {
		return v
	}
	return v + (boundary - rem)
}

// FileMap is an address-ordered, disjoint collection of Files.
type FileMap struct {
	mu sync.Mutex

	files []*File

	// cacheIdx is the one-slot most-recent-hit cache for FindByAddress.
	cacheIdx int
	cacheOK  bool
}

// NewFileMap returns an empty FileMap.
func NewFileMap() *FileMap {
	return &FileMap{cacheIdx: -1}
}

// Insert inserts f keeping the slice address-ordered. It returns
// FileCreate if f's range overlaps an existing file or its name is
// already used.
func (m *FileMap) Insert(f *File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(f)
}

func (m *FileMap) insertLocked(f *File) error {
	for _, existing := range m.files {
		if existing.Name == f.Name {
			return errDuplicateName
		}
		if overlaps(existing, f) {
			return apxerrors.New(apxerrors.FileCreate, "apxfile: address range overlaps an existing file")
		}
	}
	idx := sort.Search(len(m.files), func(i int) bool {
		return m.files[i].Address >= f.Address
	})
	m.files = append(m.files, nil)
	copy(m.files[idx+1:], m.files[idx:])
	m.files[idx] = f
	m.cacheOK = false
	return nil
}

func overlaps(a, b *File) bool {
	aEnd := a.Address + a.Size
	bEnd := b.Address + b.Size
	return a.Address < bEnd && b.Address < aEnd
}

// AutoInsert assigns the next free address in the region matching
// isPortData/isDefinition, scanning past already-occupied files and
// aligning to the region's boundary, then inserts f there.
func (m *FileMap) AutoInsert(f *File, isPortData, isDefinition bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	start, end, boundary := region(f.FileType, isPortData, isDefinition)

	next := start
	for _, existing := range m.files {
		if existing.Address < start || existing.Address >= end {
			continue
		}
		candidateEnd := existing.Address + existing.Size
		if candidateEnd > next {
			next = ceilTo(candidateEnd, boundary)
		}
	}
	if next < start {
		next = start
	}
	if next+f.Size > end || next+f.Size < next {
		return errOutOfAddressSpace
	}

	f.Address = next
	return m.insertLocked(f)
}

// Remove deletes f from the map by identity.
func (m *FileMap) Remove(f *File) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.files {
		if existing == f {
			m.files = append(m.files[:i], m.files[i+1:]...)
			m.cacheOK = false
			return
		}
	}
}

// FindByName returns the file with the given name, or nil.
func (m *FileMap) FindByName(name string) *File {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.files {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FindByAddress returns the file whose [address, address+size) contains
// addr, consulting a one-slot cache of the most recent hit first.
func (m *FileMap) FindByAddress(addr uint32) *File {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cacheOK && m.cacheIdx < len(m.files) && m.files[m.cacheIdx].Contains(addr) {
		return m.files[m.cacheIdx]
	}
	for i, f := range m.files {
		if f.Contains(addr) {
			m.cacheIdx = i
			m.cacheOK = true
			return f
		}
	}
	return nil
}

// Len returns the number of files currently in the map.
func (m *FileMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// Walk calls fn for every file in address order, stopping early if fn
// returns false.
func (m *FileMap) Walk(fn func(f *File) bool) {
	m.mu.Lock()
	snap := make([]*File, len(m.files))
	copy(snap, m.files)
	m.mu.Unlock()

	for _, f := range snap {
		if !fn(f) {
			return
		}
	}
}
