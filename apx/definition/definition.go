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

// Package definition is the black-box boundary around the APX text
// grammar parser (spec.md §1 "Out of scope (external collaborators,
// interfaces only)"): it turns definition text into a port list. This
// package only names the interface; no grammar is implemented here.
package definition

// Direction is whether a declared port produces or consumes values.
type Direction int

const (
	Provide Direction = iota
	Require
)

// PortDecl is one port declaration parsed out of a node's definition text.
type PortDecl struct {
	Direction Direction
	Name      string

	// Signature is the already-opaque signature string the parser
	// computed from the port's declared type structure, name, and any
	// attribute suffix (e.g. queue length) — see
	// apx.definition.attributeParser in the original sources. It is
	// carried unchanged by node.PortInstance.
	Signature string

	PackProgram   []byte
	UnpackProgram []byte
}

// ParseTree is the result of parsing one node's definition text.
type ParseTree struct {
	NodeName string
	Ports    []PortDecl
}

// Parser turns raw APX definition text into a ParseTree. The concrete
// grammar is an external collaborator; callers inject an implementation.
type Parser interface {
	Parse(text []byte) (*ParseTree, error)
}
