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

// Package apxfile models a File — a named, addressable byte region that
// transports definition or port-value data — and the FileMap that a file
// manager keeps one of per direction (local, remote).
package apxfile

import (
	"sync"

	"github.com/sabouaram/apx/apx/command"
)

// NotificationHandler is installed by the owning node instance on a File;
// it is consulted on open, close and write events. At most one handler may
// be installed at a time, installation is guarded by the file's own lock
// (spec design note §9: replaces the original's function-pointer + void*
// argument pair).
type NotificationHandler interface {
	OnOpen(f *File)
	OnClose(f *File)
	OnWrite(f *File, offset uint32, data []byte)
}

// File is a single addressable byte region.
type File struct {
	mu sync.Mutex

	Address    uint32
	Size       uint32
	Name       string
	FileType   command.FileType
	DigestType command.DigestType
	Digest     [32]byte

	// Remote marks a file created from a remote PublishFile command,
	// living in the file manager's remote map rather than its local one.
	Remote bool

	open    bool
	handler NotificationHandler
}

// New builds a File from a decoded FileInfo.
func New(info command.FileInfo, remote bool) *File {
	return &File{
		Address:    info.Address,
		Size:       info.Size,
		Name:       info.Name,
		FileType:   info.FileType,
		DigestType: info.DigestType,
		Digest:     info.Digest,
		Remote:     remote,
	}
}

// Contains reports whether addr falls within [Address, Address+Size).
func (f *File) Contains(addr uint32) bool {
	return addr >= f.Address && addr < f.Address+f.Size
}

// SetHandler installs h as the file's notification handler under the
// file's lock.
func (f *File) SetHandler(h NotificationHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = h
}

// Handler returns the currently installed handler, or nil.
func (f *File) Handler() NotificationHandler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handler
}

// Open marks the file open and fires OnOpen on its handler, if any.
func (f *File) Open() {
	f.mu.Lock()
	f.open = true
	h := f.handler
	f.mu.Unlock()
	if h != nil {
		h.OnOpen(f)
	}
}

// Close marks the file closed and fires OnClose on its handler, if any.
func (f *File) Close() {
	f.mu.Lock()
	f.open = false
	h := f.handler
	f.mu.Unlock()
	if h != nil {
		h.OnClose(f)
	}
}

// IsOpen reports the file's open flag.
func (f *File) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

// Write delivers a reassembled write to the file's handler.
func (f *File) Write(offset uint32, data []byte) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h != nil {
		h.OnWrite(f, offset, data)
	}
}
