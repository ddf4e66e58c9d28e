// Package workerpool provides a fixed-size local worker pool that
// satisfies the dag.WorkerPool contract: non-blocking submission with
// bulkhead admission control, one completion per accepted job.
package workerpool
