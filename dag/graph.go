package dag

import (
	"sync"

	"github.com/kbukum/dagrun/errors"
)

// node is an arena entry. Nodes are addressed by index internally and by
// id at the API surface.
type node struct {
	id     string
	policy Policy
	job    JobFunc
}

// Graph holds tasks and the dependency edges between them.
//
// Nodes live in a flat table and edges are stored as index pairs in
// adjacency lists, so the structure carries no pointer cycles regardless
// of its shape. An edge (from, to) means to depends on from. The graph
// is mutable until Freeze and immutable afterwards; execution requires a
// frozen graph.
type Graph struct {
	mu     sync.RWMutex
	nodes  []node
	index  map[string]int
	succ   [][]int // dependency -> dependents
	pred   [][]int // dependent -> dependencies
	frozen bool
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{index: make(map[string]int)}
}

// NodeOption configures a node at AddNode time.
type NodeOption func(*node)

// WithPolicy sets the node's dependency policy (default AllSuccess).
func WithPolicy(p Policy) NodeOption {
	return func(n *node) { n.policy = p }
}

// WithJob sets a per-node job, overriding the default passed to Run.
func WithJob(job JobFunc) NodeOption {
	return func(n *node) { n.job = job }
}

// AddNode adds a node with the given id.
// Fails with DUPLICATE_NODE if the id exists and GRAPH_FROZEN after Freeze.
func (g *Graph) AddNode(id string, opts ...NodeOption) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.frozen {
		return errors.GraphFrozen("AddNode")
	}
	if _, exists := g.index[id]; exists {
		return errors.DuplicateNode(id)
	}

	n := node{id: id}
	for _, opt := range opts {
		opt(&n)
	}

	g.index[id] = len(g.nodes)
	g.nodes = append(g.nodes, n)
	g.succ = append(g.succ, nil)
	g.pred = append(g.pred, nil)
	return nil
}

// AddEdge declares that to depends on from.
// Fails with UNKNOWN_NODE if either endpoint is absent, CYCLE if the edge
// would close a dependency cycle, and GRAPH_FROZEN after Freeze.
// Adding an edge that already exists is a no-op.
func (g *Graph) AddEdge(from, to string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.frozen {
		return errors.GraphFrozen("AddEdge")
	}
	fi, ok := g.index[from]
	if !ok {
		return errors.UnknownNode(from)
	}
	ti, ok := g.index[to]
	if !ok {
		return errors.UnknownNode(to)
	}

	for _, existing := range g.succ[fi] {
		if existing == ti {
			return nil
		}
	}

	// The edge closes a cycle iff from is already reachable from to.
	if path := g.pathLocked(ti, fi); path != nil {
		cycle := make([]string, 0, len(path)+1)
		for _, idx := range path {
			cycle = append(cycle, g.nodes[idx].id)
		}
		cycle = append(cycle, to)
		return errors.Cycle(cycle)
	}

	g.succ[fi] = append(g.succ[fi], ti)
	g.pred[ti] = append(g.pred[ti], fi)
	return nil
}

// pathLocked returns the node indices along a path from src to dst
// following dependent edges, or nil when dst is unreachable.
// Callers must hold g.mu.
func (g *Graph) pathLocked(src, dst int) []int {
	if src == dst {
		return []int{src}
	}
	visited := make([]bool, len(g.nodes))
	parent := make([]int, len(g.nodes))
	for i := range parent {
		parent[i] = -1
	}

	stack := []int{src}
	visited[src] = true
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range g.succ[cur] {
			if visited[next] {
				continue
			}
			visited[next] = true
			parent[next] = cur
			if next == dst {
				var path []int
				for at := dst; at != -1; at = parent[at] {
					path = append(path, at)
				}
				// reverse into src..dst order
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path
			}
			stack = append(stack, next)
		}
	}
	return nil
}

// Freeze locks the graph against further mutation. Freezing twice is a
// no-op. A frozen graph is safe for concurrent reads without locking.
func (g *Graph) Freeze() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.frozen = true
}

// Frozen reports whether the graph has been frozen.
func (g *Graph) Frozen() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.frozen
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// NodeIDs returns all node ids in insertion order.
func (g *Graph) NodeIDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		ids[i] = n.id
	}
	return ids
}

// PredecessorsOf returns the direct dependencies of id.
func (g *Graph) PredecessorsOf(id string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	idx, ok := g.index[id]
	if !ok {
		return nil, errors.UnknownNode(id)
	}
	return g.idsOf(g.pred[idx]), nil
}

// SuccessorsOf returns the direct dependents of id.
func (g *Graph) SuccessorsOf(id string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	idx, ok := g.index[id]
	if !ok {
		return nil, errors.UnknownNode(id)
	}
	return g.idsOf(g.succ[idx]), nil
}

// PolicyOf returns the dependency policy of id.
func (g *Graph) PolicyOf(id string) (Policy, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	idx, ok := g.index[id]
	if !ok {
		return AllSuccess, errors.UnknownNode(id)
	}
	return g.nodes[idx].policy, nil
}

func (g *Graph) idsOf(indices []int) []string {
	ids := make([]string, len(indices))
	for i, idx := range indices {
		ids[i] = g.nodes[idx].id
	}
	return ids
}

// indexOf returns the arena index for id. The graph must be frozen;
// internal callers on the execution path rely on the immutability of a
// frozen graph to read without locking.
func (g *Graph) indexOf(id string) (int, bool) {
	idx, ok := g.index[id]
	return idx, ok
}
