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

// Package routing is the server-global structure matching provide and
// require ports by their signature string (spec §4.13) and recording the
// connect/disconnect deltas a match produces (spec §4.14). All mutation
// goes through Table, which serializes access behind one lock, in the
// spirit of the teacher's cluster package routing every mutation of
// shared state through one synchronized entry point rather than letting
// callers touch the map directly (spec design note §9: "Global mutable
// state... replace with a single owning object passed by reference
// through a global lock; expose fine-grained methods rather than free
// functions.").
package routing

import (
	"sync"

	"github.com/sabouaram/apx/apx/node"
)

// PortRef identifies one port on one node instance, used as the map key
// everywhere a connector needs to name a specific port without the node
// instance owning a global port id (spec §3: node instance exclusively
// owns its ports; the server layers identity on top via this pair).
type PortRef struct {
	Node *node.Instance
	Port *node.PortInstance
}

type bucket struct {
	provide []PortRef
	require []PortRef
}

// Table is the server-global port signature map plus its connector and
// change tables.
type Table struct {
	mu sync.Mutex

	buckets map[string]*bucket

	connectors map[PortRef][]PortRef
	changes    map[PortRef]*ChangeEntry
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{
		buckets:    make(map[string]*bucket),
		connectors: make(map[PortRef][]PortRef),
		changes:    make(map[PortRef]*ChangeEntry),
	}
}

// InsertProvide registers a provide port and connects it to every
// already-registered require port sharing its signature, recording a
// connect change entry for both sides of each new pair.
func (t *Table) InsertProvide(sig string, ref PortRef) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.bucketFor(sig)
	b.provide = append(b.provide, ref)

	for _, r := range b.require {
		t.connectLocked(ref, r)
	}
}

// InsertRequire registers a require port and connects it to every
// already-registered provide port sharing its signature.
func (t *Table) InsertRequire(sig string, ref PortRef) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.bucketFor(sig)
	b.require = append(b.require, ref)

	for _, p := range b.provide {
		t.connectLocked(p, ref)
	}
}

// RemovePort disconnects ref from every port it is currently connected to
// and removes it from its signature bucket, recording a disconnect change
// entry for every peer.
func (t *Table) RemovePort(sig string, ref PortRef) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.buckets[sig]
	if ok {
		b.provide = removeRef(b.provide, ref)
		b.require = removeRef(b.require, ref)
	}

	peers := make([]PortRef, len(t.connectors[ref]))
	copy(peers, t.connectors[ref])
	for _, peer := range peers {
		t.disconnectLocked(ref, peer)
	}
	delete(t.connectors, ref)
}

func (t *Table) bucketFor(sig string) *bucket {
	b, ok := t.buckets[sig]
	if !ok {
		b = &bucket{}
		t.buckets[sig] = b
	}
	return b
}

func (t *Table) connectLocked(provide, require PortRef) {
	t.connectors[provide] = append(t.connectors[provide], require)
	t.connectors[require] = append(t.connectors[require], provide)
	t.recordChange(provide, require, 1)
	t.recordChange(require, provide, 1)
}

// disconnectLocked unlinks the port a being removed from its peer b. Only
// the surviving peer b gets a disconnect change entry.
func (t *Table) disconnectLocked(a, b PortRef) {
	t.connectors[a] = removeRef(t.connectors[a], b)
	t.connectors[b] = removeRef(t.connectors[b], a)
	t.recordChange(b, a, -1)
}

func removeRef(list []PortRef, ref PortRef) []PortRef {
	out := list[:0]
	for _, r := range list {
		if r != ref {
			out = append(out, r)
		}
	}
	return out
}

// Connectors returns the ports currently connected to ref (its
// PortConnectorList, spec §3).
func (t *Table) Connectors(ref PortRef) []PortRef {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]PortRef, len(t.connectors[ref]))
	copy(out, t.connectors[ref])
	return out
}

// DrainChanges returns and clears every pending change-table entry.
func (t *Table) DrainChanges() map[PortRef]*ChangeEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.changes
	t.changes = make(map[PortRef]*ChangeEntry)
	return out
}
