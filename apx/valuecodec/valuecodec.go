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

// Package valuecodec is the black-box boundary around the pack/unpack
// program executor (spec.md §1 "Out of scope (external collaborators,
// interfaces only)"): given the bytecode-like program a definition port
// declares, it knows the port's wire size and how to convert between raw
// bytes and a typed value. This package only names the interface.
package valuecodec

// Executor computes port sizes and converts between raw port bytes and
// typed Go values. The concrete bytecode interpreter is an external
// collaborator; callers inject an implementation.
type Executor interface {
	// DataSize returns the number of bytes program occupies on the wire.
	DataSize(program []byte) (uint32, error)

	// Pack encodes value into dst according to program. len(dst) must
	// equal the size DataSize(program) reports.
	Pack(program []byte, dst []byte, value interface{}) error

	// Unpack decodes src according to program into a typed value.
	// len(src) must equal the size DataSize(program) reports.
	Unpack(program []byte, src []byte) (interface{}, error)
}
