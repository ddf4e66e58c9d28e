// Package dag provides a dependency-aware task scheduler.
//
// A Graph declares tasks and the edges between them (an edge from -> to
// means to depends on from). The graph is built once, frozen, and then
// driven to completion by a Dispatcher: every task is submitted to a
// WorkerPool the instant its dependency policy is satisfied, completions
// re-evaluate direct dependents, and failures propagate deterministically
// so that tasks whose policy can never be satisfied end Unreachable
// instead of waiting forever.
//
//	g := dag.NewGraph()
//	g.AddNode("extract")
//	g.AddNode("load")
//	g.AddEdge("extract", "load")
//	g.Freeze()
//
//	d := &dag.Dispatcher{}
//	report, err := d.Run(ctx, g, pool, jobFn)
//
// Per-node dependency policies (AllSuccess, AnySuccess, AllDone, AnyDone)
// decide when a task becomes ready and when it becomes unreachable.
package dag
