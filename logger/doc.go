// Package logger provides structured logging for dagrun using zerolog.
//
// It supports multiple output formats (JSON, console), log level
// configuration, and component-scoped loggers with structured fields.
// The field helpers carry the scheduler vocabulary (run id, node,
// state, attempt) so dispatcher and pool logs stay uniform.
//
// # Usage
//
//	log := logger.NewDefault("dagrun").WithComponent("dispatcher")
//	log.Info("node submitted", logger.Fields(logger.FieldNode, "extract"))
package logger
