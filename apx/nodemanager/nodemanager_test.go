package nodemanager_test

import (
	"testing"

	"github.com/sabouaram/apx/apx/apxfile"
	"github.com/sabouaram/apx/apx/command"
	"github.com/sabouaram/apx/apx/definition"
	"github.com/sabouaram/apx/apx/node"
	"github.com/sabouaram/apx/apx/nodemanager"
	"github.com/sabouaram/apx/apx/routing"
)

type fakeParser struct{ tree *definition.ParseTree }

func (p fakeParser) Parse([]byte) (*definition.ParseTree, error) { return p.tree, nil }

type fakeExecutor struct{ sizes map[string]uint32 }

func (e fakeExecutor) DataSize(program []byte) (uint32, error) { return e.sizes[string(program)], nil }
func (e fakeExecutor) Pack([]byte, []byte, interface{}) error   { return nil }
func (e fakeExecutor) Unpack([]byte, []byte) (interface{}, error) { return nil, nil }

func buildParser() fakeParser {
	return fakeParser{tree: &definition.ParseTree{
		NodeName: "EngineCtrl",
		Ports: []definition.PortDecl{
			{Direction: definition.Provide, Name: "Speed", Signature: "Speed:S", PackProgram: []byte("u16")},
			{Direction: definition.Require, Name: "Throttle", Signature: "Throttle:S", PackProgram: []byte("u8")},
		},
	}}
}

func buildExecutor() fakeExecutor {
	return fakeExecutor{sizes: map[string]uint32{"u16": 2, "u8": 1}}
}

func TestBuildNodeSizesPortsAndRegisters(t *testing.T) {
	m := nodemanager.New(buildParser(), buildExecutor(), nil)

	n, err := m.BuildNode([]byte("node EngineCtrl {...}"), node.Client)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(n.ProvidePorts) != 1 || n.ProvidePorts[0].DataSize != 2 {
		t.Fatalf("expected Speed sized to 2 bytes, got %+v", n.ProvidePorts)
	}
	if len(n.RequirePorts) != 1 || n.RequirePorts[0].DataSize != 1 {
		t.Fatalf("expected Throttle sized to 1 byte, got %+v", n.RequirePorts)
	}
	if got, ok := m.Get("EngineCtrl"); !ok || got != n {
		t.Fatalf("expected node registered under its parsed name")
	}
}

func TestBuildNodeRejectsDuplicateName(t *testing.T) {
	m := nodemanager.New(buildParser(), buildExecutor(), nil)
	if _, err := m.BuildNode([]byte("..."), node.Client); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if _, err := m.BuildNode([]byte("..."), node.Client); err == nil {
		t.Fatalf("expected duplicate node name to be rejected")
	}
}

// TestBuildNodeDoesNotConnectRoutingAtParseTime confirms BuildNode itself
// never touches the routing table: ports are only wired once the
// corresponding remote file appears and is written/opened, per spec.md §2.
func TestBuildNodeDoesNotConnectRoutingAtParseTime(t *testing.T) {
	routes := routing.NewTable()
	producer := nodemanager.New(buildParser(), buildExecutor(), routes)

	prodNode, err := producer.BuildNode([]byte("..."), node.Server)
	if err != nil {
		t.Fatalf("producer build: %v", err)
	}

	ref := routing.PortRef{Node: prodNode, Port: prodNode.ProvidePorts[0]}
	if conns := routes.Connectors(ref); len(conns) != 0 {
		t.Fatalf("expected no routing entries before any file activity, got %+v", conns)
	}
}

// TestServerHandlerConnectsRoutingOnProvideWriteAndRequireOpen exercises the
// real trigger points fix #2 moved routing insertion to: a provide port is
// wired into the signature map only once its provide-port-data file is
// written in full (via the serverHandler OnFileCreated installs), and a
// require port is wired, and seeded with its matched provide port's current
// value, only once its require-port-data file appears (spec §8's testable
// property that a require port observes its provide port's current value at
// least once before the next provide-port write completes).
func TestServerHandlerConnectsRoutingOnProvideWriteAndRequireOpen(t *testing.T) {
	routes := routing.NewTable()
	consumerParser := fakeParser{tree: &definition.ParseTree{
		NodeName: "Dash",
		Ports: []definition.PortDecl{
			{Direction: definition.Require, Name: "Speed", Signature: "Speed:S", PackProgram: []byte("u16")},
		},
	}}
	producer := nodemanager.New(buildParser(), buildExecutor(), routes)
	consumer := nodemanager.New(consumerParser, buildExecutor(), routes)

	prodNode, err := producer.BuildNode([]byte("..."), node.Server)
	if err != nil {
		t.Fatalf("producer build: %v", err)
	}
	consNode, err := consumer.BuildNode([]byte("..."), node.Server)
	if err != nil {
		t.Fatalf("consumer build: %v", err)
	}

	ref := routing.PortRef{Node: prodNode, Port: prodNode.ProvidePorts[0]}

	provFile := apxfile.New(command.FileInfo{Name: "EngineCtrl.out", Size: 2}, true)
	producer.OnFileCreated(provFile)
	if conns := routes.Connectors(ref); len(conns) != 0 {
		t.Fatalf("expected no connectors before the provide snapshot is written, got %+v", conns)
	}

	provFile.Write(0, []byte{0x2a, 0x00})
	if conns := routes.Connectors(ref); len(conns) != 0 {
		t.Fatalf("expected no connectors before the consumer's require file appears, got %+v", conns)
	}

	reqFile := apxfile.New(command.FileInfo{Name: "Dash.in", Size: 2}, true)
	consumer.OnFileCreated(reqFile)

	if conns := routes.Connectors(ref); len(conns) != 1 {
		t.Fatalf("expected the provide port connected to the consumer's require port once its require file opens, got %+v", conns)
	}

	got, err := consNode.Data.ReadRequire(0, 2)
	if err != nil {
		t.Fatalf("read seeded require value: %v", err)
	}
	if got[0] != 0x2a {
		t.Fatalf("expected the require port seeded with the provide port's current value, got %+v", got)
	}
}
