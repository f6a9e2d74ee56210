package routing_test

import (
	"testing"

	"github.com/sabouaram/apx/apx/node"
	"github.com/sabouaram/apx/apx/routing"
)

func TestConnectThenDisconnectBookkeeping(t *testing.T) {
	tbl := routing.NewTable()

	nodeA := node.New("A", node.Server)
	provide := &node.PortInstance{Direction: node.Provide, Name: "Speed"}
	refP := routing.PortRef{Node: nodeA, Port: provide}

	nodeB := node.New("B", node.Server)
	require := &node.PortInstance{Direction: node.Require, Name: "Speed"}
	refR := routing.PortRef{Node: nodeB, Port: require}

	tbl.InsertProvide("Speed:S", refP)
	tbl.InsertRequire("Speed:S", refR)

	if conns := tbl.Connectors(refP); len(conns) != 1 || conns[0] != refR {
		t.Fatalf("expected provide port connected to the require port, got %+v", conns)
	}

	changes := tbl.DrainChanges()
	if len(changes) != 2 {
		t.Fatalf("expected connect entries for both sides, got %d", len(changes))
	}
	if changes[refP].Count != 1 {
		t.Fatalf("expected +1 connect count, got %d", changes[refP].Count)
	}

	tbl.RemovePort("Speed:S", refR)

	if conns := tbl.Connectors(refP); len(conns) != 0 {
		t.Fatalf("expected provide port's connector list empty after disconnect, got %+v", conns)
	}

	changes = tbl.DrainChanges()
	if len(changes) != 1 {
		t.Fatalf("expected exactly one disconnect entry, got %d", len(changes))
	}
	if e, ok := changes[refP]; !ok || e.Count != -1 {
		t.Fatalf("expected provide port's entry to record count=-1, got %+v", changes)
	}
}
