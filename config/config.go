package config

import (
	"time"

	"github.com/kbukum/dagrun/logger"
	"github.com/kbukum/dagrun/validation"
)

// Config is the root dagrun configuration.
type Config struct {
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Pool      PoolConfig      `mapstructure:"pool"`
	Logging   logger.Config   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// SchedulerConfig configures the dispatcher.
type SchedulerConfig struct {
	// SubmitRetries bounds re-submission attempts after the worker pool
	// rejects a task (total attempts = SubmitRetries + 1).
	SubmitRetries int `mapstructure:"submit_retries" validate:"gte=0"`
	// SubmitBackoff is the initial delay between submission attempts.
	SubmitBackoff time.Duration `mapstructure:"submit_backoff"`
	// SubmitMaxBackoff caps the delay between submission attempts.
	SubmitMaxBackoff time.Duration `mapstructure:"submit_max_backoff"`
}

// PoolConfig configures the local worker pool.
type PoolConfig struct {
	// Workers is the number of concurrent workers.
	Workers int `mapstructure:"workers" validate:"gte=1"`
	// QueueSize is the number of submissions held beyond running workers.
	QueueSize int `mapstructure:"queue_size" validate:"gte=0"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Scheduler.SubmitRetries == 0 {
		c.Scheduler.SubmitRetries = 3
	}
	if c.Scheduler.SubmitBackoff == 0 {
		c.Scheduler.SubmitBackoff = 10 * time.Millisecond
	}
	if c.Scheduler.SubmitMaxBackoff == 0 {
		c.Scheduler.SubmitMaxBackoff = time.Second
	}
	if c.Pool.Workers == 0 {
		c.Pool.Workers = 8
	}
	if c.Pool.QueueSize == 0 {
		c.Pool.QueueSize = 64
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "dagrun"
	}
	if c.Telemetry.Endpoint == "" {
		c.Telemetry.Endpoint = "localhost:4318"
	}
	if c.Telemetry.SampleRate == 0 {
		c.Telemetry.SampleRate = 1.0
	}
	c.Logging.ApplyDefaults()
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := validation.Validate(c.Scheduler); err != nil {
		return err
	}
	if err := validation.Validate(c.Pool); err != nil {
		return err
	}
	if err := validation.Validate(c.Telemetry); err != nil {
		return err
	}
	return c.Logging.Validate()
}
