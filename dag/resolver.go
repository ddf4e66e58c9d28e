package dag

import "sort"

// resolver turns terminal outcomes into downstream transitions. After a
// task reaches a terminal state, resolve re-evaluates each dependent's
// policy and either promotes it to Ready or condemns it to Unreachable,
// cascading condemnations through the graph in one pass.
//
// Evaluation is idempotent: every promotion goes through TryTransition
// from Pending, so a dependent that already moved on is skipped.
type resolver struct {
	graph   *Graph
	tracker *Tracker
}

func newResolver(g *Graph, t *Tracker) *resolver {
	return &resolver{graph: g, tracker: t}
}

// resolve processes the terminal outcome of node id and returns the ids
// of tasks that became Ready, ordered by graph insertion index so the
// dispatcher submits deterministically when several become ready at
// once.
func (r *resolver) resolve(id string) ([]string, error) {
	idx, ok := r.graph.indexOf(id)
	if !ok {
		return nil, nil
	}

	var ready []int
	worklist := []int{idx}
	for len(worklist) > 0 {
		cur := worklist[0]
		worklist = worklist[1:]

		for _, dep := range r.graph.succ[cur] {
			verdict, cause, err := r.evaluate(dep)
			if err != nil {
				return nil, err
			}
			switch verdict {
			case verdictReady:
				moved, err := r.tracker.TryTransition(r.graph.nodes[dep].id, StatusPending, StatusReady)
				if err != nil {
					return nil, err
				}
				if moved {
					ready = append(ready, dep)
				}
			case verdictUnreachable:
				moved, err := r.tracker.MarkUnreachable(r.graph.nodes[dep].id, cause)
				if err != nil {
					return nil, err
				}
				if moved {
					// Condemnation is itself a terminal outcome, so the
					// dependent's own dependents must be re-evaluated.
					worklist = append(worklist, dep)
				}
			}
		}
	}

	sort.Ints(ready)
	ids := make([]string, len(ready))
	for i, n := range ready {
		ids[i] = r.graph.nodes[n].id
	}
	return ids, nil
}

// initial evaluates every node with no dependencies and returns their
// ids in insertion order; they are Ready the moment the run starts.
func (r *resolver) initial() ([]string, error) {
	var ids []string
	for i := range r.graph.nodes {
		if len(r.graph.pred[i]) != 0 {
			continue
		}
		id := r.graph.nodes[i].id
		moved, err := r.tracker.TryTransition(id, StatusPending, StatusReady)
		if err != nil {
			return nil, err
		}
		if moved {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type verdict int

const (
	verdictWait verdict = iota
	verdictReady
	verdictUnreachable
)

// evaluate applies the node's dependency policy to the current states of
// its dependencies. Returns the verdict and, for an unreachable verdict,
// the id of the dependency to blame.
func (r *resolver) evaluate(idx int) (verdict, string, error) {
	policy := r.graph.nodes[idx].policy

	var (
		terminal  int
		succeeded int
		blame     string
	)
	preds := r.graph.pred[idx]
	for _, p := range preds {
		pid := r.graph.nodes[p].id
		status, err := r.tracker.Status(pid)
		if err != nil {
			return verdictWait, "", err
		}

		switch status {
		case StatusSucceeded:
			terminal++
			succeeded++
		case StatusFailed, StatusUnreachable:
			terminal++
			if blame == "" {
				blame = pid
			}
		}
	}

	switch policy {
	case AllSuccess:
		// Any non-success is fatal as soon as it is known.
		if blame != "" {
			return verdictUnreachable, blame, nil
		}
		if succeeded == len(preds) {
			return verdictReady, "", nil
		}
	case AnySuccess:
		if succeeded > 0 {
			return verdictReady, "", nil
		}
		// Unsatisfiable only once every dependency finished without a
		// single success.
		if terminal == len(preds) {
			return verdictUnreachable, blame, nil
		}
	case AllDone:
		if terminal == len(preds) {
			return verdictReady, "", nil
		}
	case AnyDone:
		if terminal > 0 {
			return verdictReady, "", nil
		}
	}
	return verdictWait, "", nil
}
