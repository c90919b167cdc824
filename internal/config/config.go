// Package config loads the ordergate configuration: the database path
// and the explicit policy switches the order pipeline depends on.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Valid values for the policy fields.
var (
	ValidPersistPolicies = []string{"success-only", "unless-duplicated"}
	ValidResultPolicies  = []string{"include-duplicates", "omit-duplicates"}
	ValidMatchStrategies = []string{"latest", "all"}
)

// Duration is a time.Duration that unmarshals from YAML strings in
// time.ParseDuration syntax ("30s", "2m", "336h").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full ordergate configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Batch    BatchConfig    `yaml:"batch"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// PipelineConfig carries the explicit policy decisions of the order
// pipeline. Both persistence policies and both duplicate-match
// strategies exist in the lineage of this system; the configuration
// makes the choice visible instead of burying it in control flow.
type PipelineConfig struct {
	// PersistPolicy: "success-only" persists a submission only when
	// every order reconciled clean; "unless-duplicated" persists every
	// order that is not fully duplicated.
	PersistPolicy string `yaml:"persist_policy"`

	// ResultPolicy: "include-duplicates" reports fully-duplicated
	// orders in the result string; "omit-duplicates" is the legacy
	// behavior of dropping them.
	ResultPolicy string `yaml:"result_policy"`

	// MatchStrategy: "latest" matches duplicates against only the most
	// recent prior order; "all" against every prior order in the window.
	MatchStrategy string `yaml:"match_strategy"`

	// DedupWindow bounds how far back duplicate detection looks when
	// the user has no committed exchange on record.
	DedupWindow Duration `yaml:"dedup_window"`
}

// BatchConfig bounds the batch processor's transient-condition retry.
type BatchConfig struct {
	MaxAttempts int      `yaml:"max_attempts"`
	RetryBudget Duration `yaml:"retry_budget"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "ordergate.db"},
		Pipeline: PipelineConfig{
			PersistPolicy: "success-only",
			ResultPolicy:  "include-duplicates",
			MatchStrategy: "latest",
			DedupWindow:   Duration(14 * 24 * time.Hour),
		},
		Batch: BatchConfig{
			MaxAttempts: 3,
			RetryBudget: Duration(2 * time.Minute),
		},
	}
}

// Load reads a YAML config file, filling unset fields from Default and
// validating policy values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks policy values and bounds.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("config: database.path must not be empty")
	}
	if !contains(ValidPersistPolicies, c.Pipeline.PersistPolicy) {
		return fmt.Errorf("config: invalid persist_policy %q: must be one of %v", c.Pipeline.PersistPolicy, ValidPersistPolicies)
	}
	if !contains(ValidResultPolicies, c.Pipeline.ResultPolicy) {
		return fmt.Errorf("config: invalid result_policy %q: must be one of %v", c.Pipeline.ResultPolicy, ValidResultPolicies)
	}
	if !contains(ValidMatchStrategies, c.Pipeline.MatchStrategy) {
		return fmt.Errorf("config: invalid match_strategy %q: must be one of %v", c.Pipeline.MatchStrategy, ValidMatchStrategies)
	}
	if c.Pipeline.DedupWindow <= 0 {
		return fmt.Errorf("config: dedup_window must be positive")
	}
	if c.Batch.MaxAttempts < 1 {
		return fmt.Errorf("config: batch.max_attempts must be at least 1")
	}
	if c.Batch.RetryBudget <= 0 {
		return fmt.Errorf("config: batch.retry_budget must be positive")
	}
	return nil
}

func contains(valid []string, v string) bool {
	for _, s := range valid {
		if s == v {
			return true
		}
	}
	return false
}
