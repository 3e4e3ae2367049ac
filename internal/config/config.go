// Package config carries the coprocessor's service configuration: default
// Execute budgets, the aggregate-table soft memory threshold, and logging
// verbosity. Grounded on the teacher's internal/config.Config, narrowed to
// the knobs a storage-side coprocessor actually exposes.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// CoprocessorConfig holds the unified configuration for the coprocessor
// demo service.
type CoprocessorConfig struct {
	// DataDir is the base directory for any local fixtures the demo writes.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Execute holds the default budgets Execute enforces when a caller
	// does not override them per call.
	Execute ExecuteConfig `json:"execute" yaml:"execute"`

	// Aggregate holds the aggregate table's soft memory threshold.
	Aggregate AggregateConfig `json:"aggregate" yaml:"aggregate"`

	// LogLevel controls demo logging verbosity: quiet, info, or debug.
	LogLevel string `json:"log_level" yaml:"log_level"`
}

// ExecuteConfig holds the default Execute budgets of spec §4.4.
type ExecuteConfig struct {
	// MaxFetchCount is the default row-count budget per Execute call.
	MaxFetchCount uint64 `json:"max_fetch_count" yaml:"max_fetch_count"`

	// MaxBytesRPC is the default byte budget per Execute call. A value
	// of 0 disables the byte budget, leaving only MaxFetchCount in
	// effect.
	MaxBytesRPC int64 `json:"max_bytes_rpc" yaml:"max_bytes_rpc"`
}

// AggregateConfig holds the aggregate table's resource limits.
type AggregateConfig struct {
	// SoftMemoryThresholdBytes is the approximate in-memory size (§4.5)
	// past which the table is expected to spill or reject further
	// groups in a production engine. This module does not implement
	// spilling (spec §9 Non-goal); the threshold is carried so a future
	// engine can enforce it without a config shape change.
	SoftMemoryThresholdBytes int64 `json:"soft_memory_threshold_bytes" yaml:"soft_memory_threshold_bytes"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *CoprocessorConfig {
	return &CoprocessorConfig{
		DataDir: "./data/coprocessor",
		Execute: ExecuteConfig{
			MaxFetchCount: 1024,
			MaxBytesRPC:   4 * 1024 * 1024,
		},
		Aggregate: AggregateConfig{
			SoftMemoryThresholdBytes: 256 * 1024 * 1024,
		},
		LogLevel: "info",
	}
}

// Resolve applies defaults for any field left unset, except MaxBytesRPC,
// whose zero value already means "no byte budget".
func (c *CoprocessorConfig) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/coprocessor"
	}
	if c.Execute.MaxFetchCount == 0 {
		c.Execute.MaxFetchCount = 1024
	}
	if c.Aggregate.SoftMemoryThresholdBytes == 0 {
		c.Aggregate.SoftMemoryThresholdBytes = 256 * 1024 * 1024
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate rejects configurations Execute or the aggregate table could
// not honor.
func (c *CoprocessorConfig) Validate() error {
	if c.Execute.MaxFetchCount == 0 {
		return fmt.Errorf("execute.max_fetch_count must be positive")
	}
	if c.Execute.MaxBytesRPC < 0 {
		return fmt.Errorf("execute.max_bytes_rpc must be non-negative")
	}
	if c.Aggregate.SoftMemoryThresholdBytes <= 0 {
		return fmt.Errorf("aggregate.soft_memory_threshold_bytes must be positive")
	}
	switch c.LogLevel {
	case "quiet", "info", "debug":
	default:
		return fmt.Errorf("invalid log_level: %s (must be quiet, info, or debug)", c.LogLevel)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file, starting
// from DefaultConfig so unset fields keep their defaults.
func LoadFromFile(path string) (*CoprocessorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv overlays COPROCESSOR_-prefixed environment variables onto
// cfg.
func LoadFromEnv(cfg *CoprocessorConfig) {
	if v := os.Getenv("COPROCESSOR_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("COPROCESSOR_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("COPROCESSOR_MAX_FETCH_COUNT"); v != "" {
		var n uint64
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			cfg.Execute.MaxFetchCount = n
		}
	}
	if v := os.Getenv("COPROCESSOR_MAX_BYTES_RPC"); v != "" {
		var n int64
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			cfg.Execute.MaxBytesRPC = n
		}
	}
	if v := os.Getenv("COPROCESSOR_SOFT_MEMORY_THRESHOLD_BYTES"); v != "" {
		var n int64
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			cfg.Aggregate.SoftMemoryThresholdBytes = n
		}
	}
}
