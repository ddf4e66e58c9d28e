package dag

import (
	"container/heap"

	"github.com/kbukum/dagrun/errors"
)

// Sequence returns a topological ordering of all node ids: for every
// edge (from, to), from precedes to. Ties are broken by node insertion
// order, so the sequence is deterministic across runs on identical
// input. Requires a frozen graph.
//
// The ordering only guarantees that no task could be submitted before a
// dependency exists; actual submission timing is governed by the
// Dispatcher, which runs independent branches concurrently.
func (g *Graph) Sequence() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.frozen {
		return nil, errors.GraphNotFrozen("Sequence")
	}

	inDegree := make([]int, len(g.nodes))
	for i := range g.nodes {
		inDegree[i] = len(g.pred[i])
	}

	ready := &intHeap{}
	for i, deg := range inDegree {
		if deg == 0 {
			heap.Push(ready, i)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for ready.Len() > 0 {
		idx := heap.Pop(ready).(int)
		order = append(order, g.nodes[idx].id)
		for _, next := range g.succ[idx] {
			inDegree[next]--
			if inDegree[next] == 0 {
				heap.Push(ready, next)
			}
		}
	}

	// Defensive re-check: AddEdge already rejects cycles, so this should
	// be unreachable.
	if len(order) != len(g.nodes) {
		remaining := make([]string, 0)
		for i, deg := range inDegree {
			if deg > 0 {
				remaining = append(remaining, g.nodes[i].id)
			}
		}
		return nil, errors.Cycle(remaining)
	}

	return order, nil
}

// intHeap is a min-heap of node indices.
type intHeap []int

func (h intHeap) Len() int           { return len(h) }
func (h intHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
