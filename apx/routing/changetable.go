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

package routing

import "github.com/sabouaram/apx/apxerrors"

// ChangeEntry is one pending connect/disconnect delta for a port: a signed
// count (positive = connects, negative = disconnects) plus the peers the
// count refers to. The peers are kept in one slice that grows with every
// recorded delta, updated together with the count under the table lock.
type ChangeEntry struct {
	Count int
	peers []PortRef
}

// Peers returns the ports this entry's count refers to.
func (e *ChangeEntry) Peers() []PortRef {
	out := make([]PortRef, len(e.peers))
	copy(out, e.peers)
	return out
}

var errMixedSign = apxerrors.New(apxerrors.Internal, "routing: change entry mixes connect and disconnect signs")

// recordChange adds a signed delta for peer to owner's pending change
// entry. Connects and disconnects on the same still-unflushed entry are a
// bug in the caller (the signature map never connects and disconnects the
// same pair without an intervening DrainChanges); recordChange panics in
// that case rather than silently producing an inconsistent entry, mirroring
// the original's promotion invariant.
func (t *Table) recordChange(owner, peer PortRef, sign int) {
	e, ok := t.changes[owner]
	if !ok {
		e = &ChangeEntry{}
		t.changes[owner] = e
	}
	if e.Count != 0 && (e.Count > 0) != (sign > 0) {
		panic(errMixedSign)
	}
	e.Count += sign
	e.peers = append(e.peers, peer)
}
