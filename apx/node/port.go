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

// Direction is whether a port produces (Provide) or consumes (Require)
// values.
type Direction int

const (
	Provide Direction = iota
	Require
)

// PortInstance is a single typed signal endpoint on a node.
type PortInstance struct {
	Parent *Instance

	Direction Direction
	PortID    int
	Name      string

	// Signature is the opaque signature string produced by the
	// definition parser (type structure + name, plus any attribute
	// suffix such as queue length; apx/definition is the black box that
	// computes it — see spec.md §4.13, supplemented feature "attribute
	// parser passthrough" in SPEC_FULL.md §4).
	Signature string

	DataSize   uint32
	DataOffset uint32
	QueueLen   int

	PackProgram   []byte
	UnpackProgram []byte
}
