package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StorageConfig configures the persisted-EvalContext storage collaborator
// (internal/storage) and the grpc surface it exposes. Loaded the same way
// the teacher loads extension config in internal/ext/config.go: a flat YAML
// document read once at startup.
type StorageConfig struct {
	// SqliteDSN is the data source name passed to the modernc.org/sqlite driver.
	SqliteDSN string `yaml:"sqlite_dsn"`
	// GrpcListenAddr is the address the storage RPC surface binds to.
	GrpcListenAddr string `yaml:"grpc_listen_addr"`
	// CompactionThresholdBytes triggers internal/memory compaction (spec.md §4.5).
	CompactionThresholdBytes int64 `yaml:"compaction_threshold_bytes"`
	// MaxStepsPerRequest bounds the steps internal/cli.Run takes before
	// reporting a watchdog error (spec.md §5, host-owned timeouts).
	MaxStepsPerRequest int `yaml:"max_steps_per_request"`
}

// DefaultStorageConfig mirrors the conservative defaults funxy's config
// package hardcodes for its own tunables.
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		SqliteDSN:                "steinlang.db",
		GrpcListenAddr:           "127.0.0.1:7711",
		CompactionThresholdBytes: 4 << 20, // 4 MiB
		MaxStepsPerRequest:       100000,
	}
}

// LoadStorageConfig reads a YAML document at path, falling back to
// DefaultStorageConfig for any field the document does not set. A field
// set explicitly to its zero value keeps that zero value.
func LoadStorageConfig(path string) (StorageConfig, error) {
	cfg := DefaultStorageConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
