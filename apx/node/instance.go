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

	"github.com/sabouaram/apx/apx/apxfile"
	"github.com/sabouaram/apx/apxerrors"
)

// PortWriteFunc is invoked once per port whose byte range a require-data
// write touched (spec §4.9: "triggers per-port write callbacks").
type PortWriteFunc func(p *PortInstance, data []byte)

// Instance is a single node's state: its data-state machines, its ports,
// its locked data buffers and its associated files. Node instance
// exclusively owns its ports, programs, buffers and byte-port maps (spec
// §3 "Ownership rules").
type Instance struct {
	mu sync.Mutex

	Name string
	Mode Mode

	DefinitionState DataState
	ProvideState    DataState
	RequireState    DataState

	Data *Data

	ProvidePorts []*PortInstance
	RequirePorts []*PortInstance

	ProvideMap ByteOffsetMap
	RequireMap ByteOffsetMap

	DefinitionFile *apxfile.File
	ProvideFile    *apxfile.File
	RequireFile    *apxfile.File

	// OnRequirePortWrite is invoked once per touched require port after a
	// require-data write is applied.
	OnRequirePortWrite PortWriteFunc
}

// New returns an Instance in its initial state for the given mode.
func New(name string, mode Mode) *Instance {
	return &Instance{Name: name, Mode: mode}
}

var errBadTransition = apxerrors.New(apxerrors.Internal, "node: invalid state transition")

// IsComplete reports whether every aspect the node declares ports/files
// for has reached Connected — a supplemented signal (SPEC_FULL.md §4)
// distinct from "a single file opened", used by the server to know when a
// node's bookkeeping is ready to be watched for routing triggers.
func (n *Instance) IsComplete() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.DefinitionFile != nil && n.DefinitionState != Connected {
		return false
	}
	if len(n.ProvidePorts) > 0 && n.ProvideState != Connected {
		return false
	}
	if len(n.RequirePorts) > 0 && n.RequireState != Connected {
		return false
	}
	return true
}

// ClientDefinitionFileOpened is the client-side definition-file
// transition: on OpenFile from the server, send the definition once.
func (n *Instance) ClientDefinitionFileOpened() ([]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.DefinitionState != WaitingForFileOpenRequest && n.DefinitionState != Init {
		return nil, errBadTransition
	}
	n.DefinitionState = Connected
	return n.Data.Definition(), nil
}

// ClientProvideFileOpened is the client-side provide-port-data
// transition: on OpenFile from the server, send the current snapshot.
func (n *Instance) ClientProvideFileOpened() ([]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ProvideState != WaitingForFileOpenRequest && n.ProvideState != Init {
		return nil, errBadTransition
	}
	n.ProvideState = Connected
	return n.Data.TakeProvideSnapshot(), nil
}

// ClientRequireFilePublished is the client-side require-port-data
// transition fired when the remote side publishes the matching file: the
// client asks to open it.
func (n *Instance) ClientRequireFilePublished() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.RequireState != Init && n.RequireState != WaitingFileInfo {
		return errBadTransition
	}
	n.RequireState = WaitingForFileData
	return nil
}

// ClientRequireDataWrite applies an inbound write to the require buffer,
// completing the handshake on the first write, and fires per-port write
// callbacks for every port the write touched.
func (n *Instance) ClientRequireDataWrite(offset uint32, data []byte) error {
	n.mu.Lock()
	if n.RequireState != WaitingForFileData && n.RequireState != Connected {
		n.mu.Unlock()
		return errBadTransition
	}
	n.RequireState = Connected
	n.mu.Unlock()

	if err := n.Data.WriteRequire(offset, data); err != nil {
		return err
	}
	n.notifyRequireWrite(offset, uint32(len(data)))
	return nil
}

func (n *Instance) notifyRequireWrite(offset uint32, length uint32) {
	if n.OnRequirePortWrite == nil {
		return
	}
	end := offset + length
	for o := offset; o < end; {
		idx, ok := n.RequireMap.PortAt(o)
		if !ok {
			return
		}
		p := n.RequirePorts[idx]
		lo := p.DataOffset
		hi := p.DataOffset + p.DataSize
		segStart := maxU32(lo, offset)
		segEnd := minU32(hi, end)
		if data, err := n.Data.ReadRequire(segStart, segEnd-segStart); err == nil {
			n.OnRequirePortWrite(p, data)
		}
		o = hi
	}
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

// ServerDefinitionPublished marks the definition-file aspect as awaiting
// the client's OpenFile acknowledgement, once the server has created and
// published the remote file record for it.
func (n *Instance) ServerDefinitionPublished() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.DefinitionState != Init {
		return errBadTransition
	}
	n.DefinitionState = WaitingFileInfo
	return nil
}

// ServerProvidePublished marks the provide-port-data aspect as awaiting its
// snapshot write, once the server has recorded the remote file record for
// it (mirrors ServerDefinitionPublished for the provide aspect; the
// require aspect has no equivalent because ServerRequireFileOpened already
// accepts Init directly).
func (n *Instance) ServerProvidePublished() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ProvideState != Init {
		return errBadTransition
	}
	n.ProvideState = WaitingFileInfo
	return nil
}

// ServerDefinitionFileOpened marks the client's OpenFile request on the
// definition file, now awaiting the definition bytes themselves.
func (n *Instance) ServerDefinitionFileOpened() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.DefinitionState != WaitingFileInfo {
		return errBadTransition
	}
	n.DefinitionState = WaitingForFileData
	return nil
}

// ServerDefinitionDataWrite receives the full definition payload and
// transitions to Connected. Building NodeData/ByteOffsetMap from the raw
// bytes is the node manager's job (spec §4.12); this method only records
// that the bytes arrived and stores them.
func (n *Instance) ServerDefinitionDataWrite(data []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.DefinitionState != WaitingForFileData {
		return errBadTransition
	}
	n.DefinitionState = Connected
	n.Data.definition.Replace(data)
	return nil
}

// ServerProvideSnapshotReceived is called once the client's initial
// provide-port-data snapshot has arrived in full; it transitions to
// Connected so the caller can proceed to insert the node's provide ports
// into the port signature map. It takes only the node instance lock; no
// server-wide lock spans this transition and the insertion that follows.
func (n *Instance) ServerProvideSnapshotReceived(data []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ProvideState != WaitingForFileData && n.ProvideState != WaitingFileInfo {
		return errBadTransition
	}
	n.ProvideState = Connected
	return n.Data.WriteProvide(0, data)
}

// ServerRequireFileOpened is called on the client's OpenFile request for
// the server-created require-port-data file; the caller then runs require
// port connection against the signature map and sends the snapshot.
func (n *Instance) ServerRequireFileOpened() ([]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.RequireState != WaitingForFileOpenRequest && n.RequireState != Init {
		return nil, errBadTransition
	}
	n.RequireState = Connected
	return n.Data.TakeRequireSnapshot(), nil
}

// ProvideWriteRouting walks a provide-port-data write and reports which
// local provide ports it touched, in order, along with the slice of bytes
// for each (spec §4.9 "Provide-port write routing", steps 1-2 and 4: the
// caller under the node instance lock is this method; cross-node fan-out
// to connected require ports is the routing package's job).
func (n *Instance) ProvideWriteRouting(offset uint32, data []byte) ([]TouchedPort, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.Data.WriteProvide(offset, data); err != nil {
		return nil, err
	}

	var touched []TouchedPort
	end := offset + uint32(len(data))
	for o := offset; o < end; {
		idx, ok := n.ProvideMap.PortAt(o)
		if !ok {
			return nil, apxerrors.New(apxerrors.ValueLengthError, "node: write past end of provide-port-data")
		}
		p := n.ProvidePorts[idx]
		value, err := n.Data.ReadProvide(p.DataOffset, p.DataSize)
		if err != nil {
			return nil, err
		}
		touched = append(touched, TouchedPort{Port: p, Value: value})
		o = p.DataOffset + p.DataSize
	}
	return touched, nil
}

// TouchedPort is one provide port whose value changed as the result of a
// provide-port-data write.
type TouchedPort struct {
	Port  *PortInstance
	Value []byte
}
