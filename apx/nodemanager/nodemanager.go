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

// Package nodemanager builds node.Instance values out of raw definition
// text (spec §4.12): it drives the definition parser and the value-codec
// executor to size every port, attaches and publishes a client node's
// local files, reacts to a server connection's newly-published remote
// files to run port matching at the moments spec §2/§4.9 name, and keeps a
// name-keyed registry of every node currently known to this process.
package nodemanager

import (
	"strings"

	"github.com/sabouaram/apx/apx/apxfile"
	"github.com/sabouaram/apx/apx/command"
	"github.com/sabouaram/apx/apx/definition"
	"github.com/sabouaram/apx/apx/filemanager"
	"github.com/sabouaram/apx/apx/node"
	"github.com/sabouaram/apx/apx/routing"
	"github.com/sabouaram/apx/apx/transport"
	"github.com/sabouaram/apx/apx/valuecodec"
	"github.com/sabouaram/apx/apxerrors"
	"github.com/sabouaram/apx/ctxstore"
)

// provideFileSuffix and requireFileSuffix name a node's provide/require
// port-data files relative to its own node name; the definition file is
// published under the node name unsuffixed.
const (
	provideFileSuffix = ".out"
	requireFileSuffix = ".in"
)

// splitNodeFileName recovers the node name and file aspect a published
// file name encodes, per provideFileSuffix/requireFileSuffix above.
func splitNodeFileName(name string) (nodeName string, aspect node.Aspect, ok bool) {
	switch {
	case strings.HasSuffix(name, provideFileSuffix):
		return strings.TrimSuffix(name, provideFileSuffix), node.AspectProvide, true
	case strings.HasSuffix(name, requireFileSuffix):
		return strings.TrimSuffix(name, requireFileSuffix), node.AspectRequire, true
	case name != "":
		return name, node.AspectDefinition, true
	default:
		return "", node.AspectDefinition, false
	}
}

// Manager owns the name -> *node.Instance registry and the collaborators
// needed to turn definition text into a fully-sized Instance. It also
// plays two roles that spec §4.9/§2 ask for but a bare parse-and-size step
// cannot satisfy on its own: installing a handler wrapping node.Instance as
// the apxfile.NotificationHandler on every file it builds for a node (so real
// file lifecycle events drive the node's handshake state machine instead
// of leaving it dead code), and, server-side, implementing
// transport.Observer so it learns of a peer's published files and runs
// port matching at the exact moments spec.md §2 names rather than at
// parse time.
type Manager struct {
	registry ctxstore.Store[string, *node.Instance]

	parser definition.Parser
	exec   valuecodec.Executor

	// routes is the server-global signature map; nil on the client side,
	// where nodes never need cross-node port matching.
	routes *routing.Table

	// fm is the connection's file manager, bound after construction via
	// SetFileManager: a Manager and the transport.ConnectionBase it
	// observes need each other's reference (the connection needs this
	// Manager as its transport.Observer before its file manager exists),
	// so the reference is late-bound rather than threaded through New.
	fm *filemanager.Manager
}

// New returns a Manager. routes may be nil for a client-side manager. Call
// SetFileManager once the owning connection's file manager exists to wire
// this Manager into the live file-event path; until then, BuildNode still
// sizes and registers nodes, it just never attaches or publishes files.
func New(parser definition.Parser, exec valuecodec.Executor, routes *routing.Table) *Manager {
	return &Manager{
		registry: ctxstore.New[string, *node.Instance](),
		parser:   parser,
		exec:     exec,
		routes:   routes,
	}
}

// SetFileManager binds the connection's file manager, enabling client-side
// file attachment in BuildNode and server-side OnFileCreated handling.
func (m *Manager) SetFileManager(fm *filemanager.Manager) {
	m.fm = fm
}

// OnFileCreated implements transport.Observer: it is called whenever a
// remote PublishFile command registers a new file (spec §4 supplemented
// "connection observer" feature). It matches the file's name against a
// registered node's definition/provide/require file naming convention,
// installs this node as the file's handler, and drives the server-side
// handshake reaction spec §4.9 names for the aspect that just appeared.
func (m *Manager) OnFileCreated(f *apxfile.File) {
	name, aspect, ok := splitNodeFileName(f.Name)
	if !ok {
		return
	}
	n, ok := m.registry.Load(name)
	if !ok {
		return
	}

	switch aspect {
	case node.AspectDefinition:
		n.DefinitionFile = f
		f.SetHandler(serverHandler{n: n, aspect: aspect, mgr: m})
		if err := n.ServerDefinitionPublished(); err != nil {
			return
		}
		if m.fm != nil {
			m.fm.SendOpenFileRequest(f)
		}
		_ = n.ServerDefinitionFileOpened()
	case node.AspectProvide:
		n.ProvideFile = f
		f.SetHandler(serverHandler{n: n, aspect: aspect, mgr: m})
		_ = n.ServerProvidePublished()
	case node.AspectRequire:
		n.RequireFile = f
		f.SetHandler(serverHandler{n: n, aspect: aspect, mgr: m})
		m.openServerRequireFile(n)
	}
}

// OnNodeComplete implements transport.Observer. Node completion is node
// instance bookkeeping (node.Instance.IsComplete); the node manager itself
// has nothing further to do once a node reaches it.
func (m *Manager) OnNodeComplete(*node.Instance) {}

// OnConnectionState implements transport.Observer. The node manager's
// bookkeeping is per-node, not per-connection-lifecycle, so connection
// state transitions carry no action here.
func (m *Manager) OnConnectionState(transport.State) {}

// insertProvideRouting inserts every one of n's provide ports into the
// routing table — called once n's provide-port-data file is first written
// in full (spec §2: "when a node's provide-port-data file is first
// written"), not at parse/build time.
func (m *Manager) insertProvideRouting(n *node.Instance) {
	if m.routes == nil {
		return
	}
	for _, p := range n.ProvidePorts {
		m.routes.InsertProvide(p.Signature, routing.PortRef{Node: n, Port: p})
	}
}

// openServerRequireFile runs require-port connection against the
// signature map, seeding each newly-connecting require port with its
// matched provide port's current value before the require snapshot is
// taken, then opens the remote require file and sends that snapshot (spec
// §2: require-port insertion "on OpenFile" of the require file; spec §8's
// testable property that a require port observes its provide port's
// current value at least once before the next provide-port write
// completes).
func (m *Manager) openServerRequireFile(n *node.Instance) {
	if m.routes != nil {
		for _, p := range n.RequirePorts {
			ref := routing.PortRef{Node: n, Port: p}
			m.routes.InsertRequire(p.Signature, ref)
			for _, peer := range m.routes.Connectors(ref) {
				if peer.Node == nil || peer.Port == nil {
					continue
				}
				val, err := peer.Node.Data.ReadProvide(peer.Port.DataOffset, peer.Port.DataSize)
				if err != nil {
					continue
				}
				_ = n.Data.WriteRequire(p.DataOffset, val)
			}
		}
	}

	data, err := n.ServerRequireFileOpened()
	if err != nil || m.fm == nil || n.RequireFile == nil {
		return
	}
	m.fm.SendOpenFileRequest(n.RequireFile)
	if len(data) > 0 {
		m.fm.SendLocalData(n.RequireFile, 0, data, nil)
	}
}

// attachClientFiles builds, registers and publishes n's three local files
// (definition, provide-port data, require-port data), installing n as
// each one's notification handler so the server's later OpenFile/Write
// commands actually drive n's client-side handshake transitions (spec
// §4.9) instead of never reaching it.
func (m *Manager) attachClientFiles(n *node.Instance) {
	if m.fm == nil {
		return
	}

	def := apxfile.New(command.FileInfo{
		Size:     uint32(len(n.Data.Definition())),
		FileType: command.FileFixed,
		Name:     n.Name,
	}, false)
	if err := m.fm.CreateLocalFile(def, false, true); err == nil {
		def.SetHandler(clientHandler{n: n, aspect: node.AspectDefinition, fm: m.fm})
		n.DefinitionFile = def
		m.fm.PublishLocalFile(def)
	}

	prov := apxfile.New(command.FileInfo{
		Size:     uint32(n.Data.ProvideLen()),
		FileType: command.FileFixed,
		Name:     n.Name + provideFileSuffix,
	}, false)
	if err := m.fm.CreateLocalFile(prov, true, false); err == nil {
		prov.SetHandler(clientHandler{n: n, aspect: node.AspectProvide, fm: m.fm})
		n.ProvideFile = prov
		m.fm.PublishLocalFile(prov)
	}

	req := apxfile.New(command.FileInfo{
		Size:     uint32(n.Data.RequireLen()),
		FileType: command.FileFixed,
		Name:     n.Name + requireFileSuffix,
	}, false)
	if err := m.fm.CreateLocalFile(req, true, false); err == nil {
		req.SetHandler(clientHandler{n: n, aspect: node.AspectRequire, fm: m.fm})
		n.RequireFile = req
		m.fm.PublishLocalFile(req)
		_ = n.ClientRequireFilePublished()
	}
}

// BuildNode parses text, allocates a node.Instance in the given mode sized
// for every declared port, and registers it under its parsed name.
// Client-side, once a file manager is bound, it also builds and publishes
// the node's three local files. Server-side port matching happens later,
// reacting to OnFileCreated/file-write events, never here (spec §2, §4.9).
func (m *Manager) BuildNode(text []byte, mode node.Mode) (*node.Instance, error) {
	tree, err := m.parser.Parse(text)
	if err != nil {
		return nil, err
	}

	n := node.New(tree.NodeName, mode)

	var provideSize, requireSize uint32
	for _, decl := range tree.Ports {
		size, err := m.portSize(decl)
		if err != nil {
			return nil, err
		}

		p := &node.PortInstance{
			Parent:        n,
			Name:          decl.Name,
			Signature:     decl.Signature,
			DataSize:      size,
			PackProgram:   decl.PackProgram,
			UnpackProgram: decl.UnpackProgram,
		}

		switch decl.Direction {
		case definition.Provide:
			p.Direction = node.Provide
			p.PortID = len(n.ProvidePorts)
			n.ProvidePorts = append(n.ProvidePorts, p)
			provideSize += size
		case definition.Require:
			p.Direction = node.Require
			p.PortID = len(n.RequirePorts)
			n.RequirePorts = append(n.RequirePorts, p)
			requireSize += size
		}
	}

	n.Data = node.NewData(text, provideSize, requireSize)
	n.ProvideMap = node.BuildByteOffsetMap(n.ProvidePorts)
	n.RequireMap = node.BuildByteOffsetMap(n.RequirePorts)

	if mode == node.Client {
		m.attachClientFiles(n)
	}

	if _, loaded := m.registry.LoadOrStore(tree.NodeName, n); loaded {
		return nil, apxerrors.Newf(apxerrors.FileCreate, "nodemanager: node %q already registered", tree.NodeName)
	}
	return n, nil
}

func (m *Manager) portSize(decl definition.PortDecl) (uint32, error) {
	program := decl.PackProgram
	if program == nil {
		program = decl.UnpackProgram
	}
	return m.exec.DataSize(program)
}

// Get returns the registered node instance by name.
func (m *Manager) Get(name string) (*node.Instance, bool) {
	return m.registry.Load(name)
}

// Remove unregisters name, first disconnecting every one of its ports from
// the routing table when running server-side.
func (m *Manager) Remove(name string) {
	n, ok := m.registry.Load(name)
	if !ok {
		return
	}
	if m.routes != nil {
		for _, p := range n.ProvidePorts {
			m.routes.RemovePort(p.Signature, routing.PortRef{Node: n, Port: p})
		}
		for _, p := range n.RequirePorts {
			m.routes.RemovePort(p.Signature, routing.PortRef{Node: n, Port: p})
		}
	}
	m.registry.Delete(name)
}

// Len returns the number of registered nodes.
func (m *Manager) Len() int {
	return m.registry.Len()
}

// Walk calls fn for every registered node, stopping early if fn returns
// false.
func (m *Manager) Walk(fn func(name string, n *node.Instance) bool) {
	m.registry.Walk(fn)
}
