// Package errors provides unified error handling for dagrun.
//
// It implements a structured error type with machine-readable codes,
// retryable detection, and wrapped causes. Graph construction errors
// (DUPLICATE_NODE, UNKNOWN_NODE, CYCLE) are fatal to the build;
// SUBMISSION_REJECTED is the only retryable runtime code;
// INVALID_TRANSITION indicates a scheduler bug and should never be
// observed in correct operation.
package errors
