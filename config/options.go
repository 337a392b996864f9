// Package config carries the store's tunables: initial index capacity,
// the lock-acquisition timeout, and the vacuum schedule. Shaped on the
// teacher's config.Config (config/config.go): a plain struct with yaml
// tags, a DefaultOptions constructor, manual LoadFromEnv (no viper —
// the teacher never reaches for it either), and Validate.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"widgetstore/export"
	"widgetstore/storeerr"
)

// Options configures a Store.
type Options struct {
	// InitialCapacity pre-sizes the primary and z-index maps. Affects
	// performance only.
	InitialCapacity int `yaml:"initial_capacity" env:"WIDGETSTORE_INITIAL_CAPACITY"`

	// TransactionTimeout bounds how long a write waits to acquire a z
	// or range lock before failing with storeerr.Timeout.
	TransactionTimeout time.Duration `yaml:"transaction_timeout" env:"WIDGETSTORE_TRANSACTION_TIMEOUT"`

	// VacuumRate is the interval between automatic vacuum passes run by
	// a caller-owned scheduler (the store itself never schedules one).
	VacuumRate time.Duration `yaml:"vacuum_rate" env:"WIDGETSTORE_VACUUM_RATE"`

	// SnapshotExport configures the optional debug/export codec.
	SnapshotExport SnapshotExportOptions `yaml:"snapshot_export"`
}

// SnapshotExportOptions selects the codec Store.ExportSnapshot uses by
// default when the caller doesn't pass one explicitly.
type SnapshotExportOptions struct {
	Codec string `yaml:"codec" env:"WIDGETSTORE_EXPORT_CODEC"` // "snappy", "lz4", or "zstd"
}

// DefaultOptions returns the store's out-of-the-box configuration.
func DefaultOptions() *Options {
	return &Options{
		InitialCapacity:    64,
		TransactionTimeout: 500 * time.Millisecond,
		VacuumRate:         5 * time.Second,
		SnapshotExport:     SnapshotExportOptions{Codec: "snappy"},
	}
}

// LoadFromFile merges YAML config at path into o. Missing fields keep
// their current value.
func (o *Options) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, o); err != nil {
		return fmt.Errorf("parse yaml config: %w", err)
	}
	return nil
}

// LoadFromEnv overrides fields from environment variables, field by
// field, in the same manual-parsing style as the teacher's
// Config.LoadFromEnv.
func (o *Options) LoadFromEnv() error {
	if v := os.Getenv("WIDGETSTORE_INITIAL_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WIDGETSTORE_INITIAL_CAPACITY: %w", err)
		}
		o.InitialCapacity = n
	}
	if v := os.Getenv("WIDGETSTORE_TRANSACTION_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("WIDGETSTORE_TRANSACTION_TIMEOUT: %w", err)
		}
		o.TransactionTimeout = d
	}
	if v := os.Getenv("WIDGETSTORE_VACUUM_RATE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("WIDGETSTORE_VACUUM_RATE: %w", err)
		}
		o.VacuumRate = d
	}
	if v := os.Getenv("WIDGETSTORE_EXPORT_CODEC"); v != "" {
		o.SnapshotExport.Codec = v
	}
	return nil
}

// Validate checks construction-time invariants. A non-positive
// transaction timeout is rejected as storeerr.InvalidArg, matching
// spec.md §7.
func (o *Options) Validate() error {
	if o.TransactionTimeout <= 0 {
		return storeerr.New(storeerr.InvalidArg, "transaction timeout must be positive")
	}
	if o.InitialCapacity < 0 {
		return storeerr.New(storeerr.InvalidArg, "initial capacity must not be negative")
	}
	if o.VacuumRate <= 0 {
		return storeerr.New(storeerr.InvalidArg, "vacuum rate must be positive")
	}
	if _, err := export.ByName(o.SnapshotExport.Codec); err != nil {
		return storeerr.Wrap(storeerr.InvalidArg, "invalid snapshot export codec", err)
	}
	return nil
}

// ToYAML round-trips Options back to YAML, mirroring the teacher's
// BuildConfig.Save path for config files produced by LoadFromFile.
func (o *Options) ToYAML() ([]byte, error) {
	return yaml.Marshal(o)
}
