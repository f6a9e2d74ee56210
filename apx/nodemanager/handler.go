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

package nodemanager

import (
	"github.com/sabouaram/apx/apx/apxfile"
	"github.com/sabouaram/apx/apx/filemanager"
	"github.com/sabouaram/apx/apx/node"
)

// clientHandler implements apxfile.NotificationHandler for one local file
// of a client-mode node: it is the concrete wiring spec §4.9 describes and
// that nothing in the tree previously installed. An inbound OpenFile
// command fires OnOpen, which runs the matching Client*FileOpened
// transition and, if it produces bytes to send, writes them straight back
// out through fm; an inbound Write on the require file fires OnWrite,
// which applies it through ClientRequireDataWrite.
type clientHandler struct {
	n      *node.Instance
	aspect node.Aspect
	fm     *filemanager.Manager
}

func (h clientHandler) OnOpen(f *apxfile.File) {
	var data []byte
	var err error

	switch h.aspect {
	case node.AspectDefinition:
		data, err = h.n.ClientDefinitionFileOpened()
	case node.AspectProvide:
		data, err = h.n.ClientProvideFileOpened()
	default:
		return
	}
	if err != nil || len(data) == 0 {
		return
	}
	h.fm.SendLocalData(f, 0, data, nil)
}

func (clientHandler) OnClose(*apxfile.File) {}

func (h clientHandler) OnWrite(_ *apxfile.File, offset uint32, data []byte) {
	if h.aspect != node.AspectRequire {
		return
	}
	_ = h.n.ClientRequireDataWrite(offset, data)
}

// serverHandler implements apxfile.NotificationHandler for one remote file
// of a server-mode node. Remote files are never opened by an inbound
// command (the server is the side that requests the open), so only
// OnWrite carries a reaction: a definition-file write completes the
// definition handshake, and a provide-file write completes the provide
// snapshot and runs provide-port routing insertion at exactly the moment
// spec §2 names — "when a node's provide-port-data file is first
// written" — instead of at BuildNode/parse time.
type serverHandler struct {
	n      *node.Instance
	aspect node.Aspect
	mgr    *Manager
}

func (serverHandler) OnOpen(*apxfile.File)  {}
func (serverHandler) OnClose(*apxfile.File) {}

func (h serverHandler) OnWrite(_ *apxfile.File, _ uint32, data []byte) {
	switch h.aspect {
	case node.AspectDefinition:
		_ = h.n.ServerDefinitionDataWrite(data)
	case node.AspectProvide:
		if err := h.n.ServerProvideSnapshotReceived(data); err == nil {
			h.mgr.insertProvideRouting(h.n)
		}
	}
}
