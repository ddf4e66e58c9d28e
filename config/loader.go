package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/dagrun/errors"
)

const envPrefix = "DAGRUN"

// LoaderConfig holds optional file overrides for Load.
type LoaderConfig struct {
	// ConfigFile is an explicit config file path.
	ConfigFile string
	// EnvFile is an explicit .env file path.
	EnvFile string
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// Load reads configuration from file and environment, applies defaults,
// and validates the result.
func Load(opts ...LoaderOption) (Config, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}

	envFile := lc.EnvFile
	if envFile == "" {
		envFile = findFirst(".env")
	}
	if envFile != "" {
		// Missing .env is fine; a malformed one is not.
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Config{}, errors.InvalidInput("env_file", err.Error()).WithCause(err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configFile := lc.ConfigFile
	if configFile == "" {
		configFile = findFirst("config.yml", "config.yaml")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.InvalidInput("config_file", err.Error()).WithCause(err)
		}
	}

	// Bind known keys so AutomaticEnv can see them even without a file.
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.InvalidInput("config", err.Error()).WithCause(err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// configKeys lists every key Load binds for environment overrides.
var configKeys = []string{
	"scheduler.submit_retries",
	"scheduler.submit_backoff",
	"scheduler.submit_max_backoff",
	"pool.workers",
	"pool.queue_size",
	"logging.level",
	"logging.format",
	"logging.output",
	"logging.no_color",
	"logging.caller",
	"telemetry.enabled",
	"telemetry.service_name",
	"telemetry.endpoint",
	"telemetry.insecure",
	"telemetry.sample_rate",
}

// findFirst returns the first existing path among candidates, searching
// the working directory and its parent.
func findFirst(names ...string) string {
	for _, prefix := range []string{"./", "../"} {
		for _, name := range names {
			path := prefix + name
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}
