// Package validation provides struct-tag validation for dagrun
// configuration using the validator library.
//
//	type PoolConfig struct {
//	    Workers int `mapstructure:"workers" validate:"gte=1"`
//	}
//	err := validation.Validate(cfg)
//
// Failures are returned as errors.Validation values with per-field
// details attached.
package validation
