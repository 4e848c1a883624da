// Package config loads the control-plane host configuration from YAML and
// watches it for changes.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kibbyd/autonomy-plane/internal/actionfilter"
	"github.com/kibbyd/autonomy-plane/internal/stagec"
)

// #region types

// SandboxConfig holds the default posture flags supplied to the action filter
// when the host has no live sandbox signal.
type SandboxConfig struct {
	ActionsEnabled  bool   `yaml:"actions_enabled"`
	AnomalyDecision string `yaml:"anomaly_decision"`
	EthicsDecision  string `yaml:"ethics_decision"`
	SimulateFlag    int    `yaml:"simulate_flag"`
}

// Posture converts the configured defaults to a filter posture.
func (s SandboxConfig) Posture() actionfilter.Posture {
	return actionfilter.Posture{
		SandboxActionsEnabled: s.ActionsEnabled,
		AnomalyDecision:       s.AnomalyDecision,
		EthicsDecision:        s.EthicsDecision,
		SimulateFlag:          s.SimulateFlag,
	}
}

// Config holds all host-configurable parameters. The score weights, tier
// thresholds, and cap map are fixed contracts and deliberately not here.
type Config struct {
	DBPath     string        `yaml:"db_path"`
	WindowSize int           `yaml:"window_size"`
	Sandbox    SandboxConfig `yaml:"sandbox"`
}

// #endregion types

// #region defaults

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DBPath:     "autonomy.db",
		WindowSize: stagec.DefaultWindowSize,
		Sandbox: SandboxConfig{
			ActionsEnabled:  false,
			AnomalyDecision: "allow",
			EthicsDecision:  "normal",
		},
	}
}

// #endregion defaults

// #region load

// Load reads a YAML config file, filling unset fields from Default.
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

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.WindowSize <= 0 {
		return fmt.Errorf("window_size must be positive, got %d", c.WindowSize)
	}
	return nil
}

// #endregion load
