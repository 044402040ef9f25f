package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// DefaultConfigPath is where the CLI looks for a converter config when no
// -config flag is given.
const DefaultConfigPath = "config/pc2draco.json"

// ConverterConfig is the on-disk converter configuration. Every field is
// optional; the Get* methods supply defaults for anything left out, so
// partial configs are safe. Command-line flags override file values.
type ConverterConfig struct {
	// Namespace prefixes attribute override keys, e.g. "/points/draco".
	Namespace *string `json:"namespace,omitempty"`

	// Conversion options
	Deduplicate  *bool `json:"deduplicate,omitempty"`
	OverrideMode *bool `json:"override_mode,omitempty"`

	// Parameter sources for override mode
	ParamFile *string `json:"param_file,omitempty"`
	Database  *string `json:"database,omitempty"`

	// Workers bounds concurrent conversions in the CLI. 0 means GOMAXPROCS.
	Workers *int `json:"workers,omitempty"`

	// MetricsListen serves /metrics on this address after converting.
	MetricsListen *string `json:"metrics_listen,omitempty"`
}

func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// EmptyConverterConfig returns a ConverterConfig with all fields nil.
func EmptyConverterConfig() *ConverterConfig {
	return &ConverterConfig{}
}

// LoadConverterConfig loads a ConverterConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadConverterConfig(path string) (*ConverterConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConverterConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are consistent.
func (c *ConverterConfig) Validate() error {
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.GetOverrideMode() && c.GetParamFile() == "" && c.GetDatabase() == "" {
		return fmt.Errorf("override_mode requires param_file or database")
	}
	if c.ParamFile != nil && *c.ParamFile != "" && filepath.Ext(*c.ParamFile) != ".json" {
		return fmt.Errorf("param_file must have .json extension, got %q", *c.ParamFile)
	}
	return nil
}

// GetNamespace returns the namespace or the default "/points/draco".
func (c *ConverterConfig) GetNamespace() string {
	if c.Namespace == nil {
		return "/points/draco" // default
	}
	return *c.Namespace
}

// GetDeduplicate returns the deduplicate flag or the default (false).
func (c *ConverterConfig) GetDeduplicate() bool {
	if c.Deduplicate == nil {
		return false
	}
	return *c.Deduplicate
}

// GetOverrideMode returns the override_mode flag or the default (false).
func (c *ConverterConfig) GetOverrideMode() bool {
	if c.OverrideMode == nil {
		return false
	}
	return *c.OverrideMode
}

// GetParamFile returns the parameter file path, or "".
func (c *ConverterConfig) GetParamFile() string {
	if c.ParamFile == nil {
		return ""
	}
	return *c.ParamFile
}

// GetDatabase returns the sqlite database path, or "".
func (c *ConverterConfig) GetDatabase() string {
	if c.Database == nil {
		return ""
	}
	return *c.Database
}

// GetWorkers returns the worker count, resolving 0 to GOMAXPROCS.
func (c *ConverterConfig) GetWorkers() int {
	if c.Workers == nil || *c.Workers == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return *c.Workers
}

// GetMetricsListen returns the metrics listen address, or "".
func (c *ConverterConfig) GetMetricsListen() string {
	if c.MetricsListen == nil {
		return ""
	}
	return *c.MetricsListen
}

// Merge overlays every non-nil field of other onto c.
func (c *ConverterConfig) Merge(other *ConverterConfig) {
	if other == nil {
		return
	}
	if other.Namespace != nil {
		c.Namespace = ptrString(*other.Namespace)
	}
	if other.Deduplicate != nil {
		c.Deduplicate = ptrBool(*other.Deduplicate)
	}
	if other.OverrideMode != nil {
		c.OverrideMode = ptrBool(*other.OverrideMode)
	}
	if other.ParamFile != nil {
		c.ParamFile = ptrString(*other.ParamFile)
	}
	if other.Database != nil {
		c.Database = ptrString(*other.Database)
	}
	if other.Workers != nil {
		c.Workers = ptrInt(*other.Workers)
	}
	if other.MetricsListen != nil {
		c.MetricsListen = ptrString(*other.MetricsListen)
	}
}
