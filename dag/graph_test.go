package dag

import (
	stderrors "errors"
	"testing"

	"github.com/kbukum/dagrun/errors"
)

func buildDiamond(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph()
	for _, id := range []string{"n0", "n1", "n2", "n3", "n4"} {
		if err := g.AddNode(id); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	edges := [][2]string{{"n0", "n1"}, {"n0", "n2"}, {"n1", "n3"}, {"n2", "n3"}, {"n1", "n4"}}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("AddEdge(%s, %s): %v", e[0], e[1], err)
		}
	}
	return g
}

func TestGraph_AddNodeDuplicate(t *testing.T) {
	g := NewGraph()
	if err := g.AddNode("a"); err != nil {
		t.Fatalf("first AddNode: %v", err)
	}
	err := g.AddNode("a")
	if !errors.HasCode(err, errors.CodeDuplicateNode) {
		t.Errorf("expected DUPLICATE_NODE, got %v", err)
	}
}

func TestGraph_AddEdgeUnknownNode(t *testing.T) {
	g := NewGraph()
	if err := g.AddNode("a"); err != nil {
		t.Fatalf("AddNode: %v", err)
	}

	if err := g.AddEdge("a", "missing"); !errors.HasCode(err, errors.CodeUnknownNode) {
		t.Errorf("expected UNKNOWN_NODE for missing to, got %v", err)
	}
	if err := g.AddEdge("missing", "a"); !errors.HasCode(err, errors.CodeUnknownNode) {
		t.Errorf("expected UNKNOWN_NODE for missing from, got %v", err)
	}
}

func TestGraph_AddEdgeDuplicateIsNoOp(t *testing.T) {
	g := NewGraph()
	g.AddNode("a")
	g.AddNode("b")
	if err := g.AddEdge("a", "b"); err != nil {
		t.Fatalf("first AddEdge: %v", err)
	}
	if err := g.AddEdge("a", "b"); err != nil {
		t.Errorf("duplicate AddEdge should be a no-op, got %v", err)
	}

	preds, err := g.PredecessorsOf("b")
	if err != nil {
		t.Fatalf("PredecessorsOf: %v", err)
	}
	if len(preds) != 1 {
		t.Errorf("expected 1 predecessor, got %d", len(preds))
	}
}

func TestGraph_AddEdgeRejectsSelfLoop(t *testing.T) {
	g := NewGraph()
	g.AddNode("a")
	if err := g.AddEdge("a", "a"); !errors.HasCode(err, errors.CodeCycle) {
		t.Errorf("expected CYCLE for self loop, got %v", err)
	}
}

func TestGraph_AddEdgeRejectsCycle(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"a", "b", "c"} {
		g.AddNode(id)
	}
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")

	err := g.AddEdge("c", "a")
	if !errors.HasCode(err, errors.CodeCycle) {
		t.Fatalf("expected CYCLE, got %v", err)
	}

	// The rejected edge must leave the graph untouched.
	preds, _ := g.PredecessorsOf("a")
	if len(preds) != 0 {
		t.Errorf("rejected edge was recorded: %v", preds)
	}
}

func TestGraph_AddEdgeCycleReportsPath(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"a", "b", "c"} {
		g.AddNode(id)
	}
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")

	err := g.AddEdge("c", "a")
	var de *errors.Error
	if !stderrors.As(err, &de) {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	path, ok := de.Details["path"].([]string)
	if !ok || len(path) < 3 {
		t.Fatalf("expected cycle path in details, got %v", de.Details["path"])
	}
	if path[0] != "a" || path[len(path)-1] != "a" {
		t.Errorf("expected path to start and end at the closing node, got %v", path)
	}
}

func TestGraph_FrozenRejectsMutation(t *testing.T) {
	g := NewGraph()
	g.AddNode("a")
	g.AddNode("b")
	g.Freeze()

	if err := g.AddNode("c"); !errors.HasCode(err, errors.CodeGraphFrozen) {
		t.Errorf("expected GRAPH_FROZEN from AddNode, got %v", err)
	}
	if err := g.AddEdge("a", "b"); !errors.HasCode(err, errors.CodeGraphFrozen) {
		t.Errorf("expected GRAPH_FROZEN from AddEdge, got %v", err)
	}

	// Freezing twice is harmless.
	g.Freeze()
	if !g.Frozen() {
		t.Error("expected graph to stay frozen")
	}
}

func TestGraph_Adjacency(t *testing.T) {
	g := buildDiamond(t)

	succ, err := g.SuccessorsOf("n0")
	if err != nil {
		t.Fatalf("SuccessorsOf: %v", err)
	}
	if len(succ) != 2 || succ[0] != "n1" || succ[1] != "n2" {
		t.Errorf("expected successors [n1 n2], got %v", succ)
	}

	preds, err := g.PredecessorsOf("n3")
	if err != nil {
		t.Fatalf("PredecessorsOf: %v", err)
	}
	if len(preds) != 2 || preds[0] != "n1" || preds[1] != "n2" {
		t.Errorf("expected predecessors [n1 n2], got %v", preds)
	}

	if _, err := g.PredecessorsOf("missing"); !errors.HasCode(err, errors.CodeUnknownNode) {
		t.Errorf("expected UNKNOWN_NODE, got %v", err)
	}
}

func TestGraph_NodeIDsInsertionOrder(t *testing.T) {
	g := NewGraph()
	want := []string{"z", "a", "m"}
	for _, id := range want {
		g.AddNode(id)
	}
	got := g.NodeIDs()
	if len(got) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestGraph_PolicyOf(t *testing.T) {
	g := NewGraph()
	g.AddNode("default")
	g.AddNode("any", WithPolicy(AnySuccess))

	p, err := g.PolicyOf("default")
	if err != nil || p != AllSuccess {
		t.Errorf("expected AllSuccess default, got %v (%v)", p, err)
	}
	p, err = g.PolicyOf("any")
	if err != nil || p != AnySuccess {
		t.Errorf("expected AnySuccess, got %v (%v)", p, err)
	}
}
