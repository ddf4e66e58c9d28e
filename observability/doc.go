// Package observability provides OpenTelemetry tracing and metrics for
// dagrun.
//
// InitTracer and InitMeter set up OTLP/HTTP export; Metrics holds the
// instrument set the dispatcher and worker pool record into (task
// counts, durations, in-flight gauge, run duration). Both are optional:
// a scheduler built without them runs with no telemetry overhead beyond
// no-op calls.
package observability
