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

// Package node implements the per-connection node instance: its three data
// state machines (definition, provide-port-data, require-port-data), its
// port instances, its locked data buffers and its byte-offset-to-port-id
// lookup tables.
package node

// DataState is the state of one of a node instance's three data aspects
// (definition, provide, require). See spec.md §3 for the transition
// diagram; §4.9 for which transitions apply to which side/aspect.
type DataState int

const (
	Init DataState = iota
	WaitingFileInfo
	WaitingForFileOpenRequest
	WaitingForFileData
	Connected
	Disconnected
)

func (s DataState) String() string {
	switch s {
	case Init:
		return "init"
	case WaitingFileInfo:
		return "waiting_file_info"
	case WaitingForFileOpenRequest:
		return "waiting_open_request"
	case WaitingForFileData:
		return "waiting_file_data"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Mode distinguishes which side of the handshake a node instance plays.
type Mode int

const (
	Client Mode = iota
	Server
)

// Aspect names one of the three independent data state machines.
type Aspect int

const (
	AspectDefinition Aspect = iota
	AspectProvide
	AspectRequire
)
