package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level huishoudboek.yaml configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Budget   BudgetConfig   `yaml:"budget"`
	Sweep    SweepConfig    `yaml:"sweep"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// BudgetConfig sets the period and variance defaults.
type BudgetConfig struct {
	// CutoffDay is the day-of-month periods start on.
	CutoffDay int `yaml:"cutoff_day"`
	// DefaultTolerance is the variance band for new budget rules, as a
	// fraction (0.05 = 5%).
	DefaultTolerance float64 `yaml:"default_tolerance"`
}

// SweepConfig controls the nightly sweep.
type SweepConfig struct {
	// Parallelism bounds how many owners are processed concurrently.
	Parallelism int `yaml:"parallelism"`
	// DataRoot is where the sweep writes its CSV run log.
	DataRoot string `yaml:"data_root"`
}

// Load reads a huishoudboek.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new administration.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "huishoudboek.db",
		},
		Budget: BudgetConfig{
			CutoffDay:        1,
			DefaultTolerance: 0.05,
		},
		Sweep: SweepConfig{
			Parallelism: 4,
			DataRoot:    ".",
		},
	}
}
