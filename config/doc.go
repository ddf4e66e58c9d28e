// Package config loads dagrun configuration from YAML files and the
// environment.
//
// Lookup order: an explicit file path, then config.yml in standard
// locations, then environment variables (optionally via a .env file).
// Environment variables override file values using DAGRUN_ prefixed
// keys, e.g. DAGRUN_POOL_WORKERS=8 sets pool.workers.
package config
