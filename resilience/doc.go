// Package resilience provides retry and concurrency-limiting primitives
// for the scheduler.
//
// Retry backs the dispatcher's bounded re-submission of tasks the worker
// pool rejects; Bulkhead bounds how much work the local pool admits at
// once. Both are context-aware and fail fast on cancellation.
package resilience
