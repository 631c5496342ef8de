package config

import (
	"errors"
	"fmt"

	"github.com/chrissnell/hydrosim/internal/hydro"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetScenarios() ([]ScenarioData, error)
	GetStorageConfig() (*StorageData, error)
	GetServerConfig() (*ServerData, error)

	IsReadOnly() bool
	Close() error
}

// ErrScenarioNotFound is returned when a named scenario is not configured
var ErrScenarioNotFound = errors.New("config: scenario not found")

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Scenarios []ScenarioData `json:"scenarios"`
	Storage   StorageData    `json:"storage,omitempty"`
	Server    *ServerData    `json:"server,omitempty"`
	Runner    RunnerData     `json:"runner,omitempty"`
	Log       LogData        `json:"log,omitempty"`
}

// ScenarioData describes one model run: its coefficients and where its
// per-period forcing is read from
type ScenarioData struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	ForcingFile string         `json:"forcing_file,omitempty"`
	Parameters  ParametersData `json:"parameters"`
}

// ParametersData holds the six transfer coefficients of a scenario
type ParametersData struct {
	Ks float64 `json:"ks"`
	Kc float64 `json:"kc"`
	Kb float64 `json:"kb"`
	Kw float64 `json:"kw"`
	Kz float64 `json:"kz"`
	C  float64 `json:"c"`
}

// Model converts the configured coefficients to model parameters
func (p ParametersData) Model() hydro.Parameters {
	return hydro.Parameters{Ks: p.Ks, Kc: p.Kc, Kb: p.Kb, Kw: p.Kw, Kz: p.Kz, C: p.C}
}

// StorageData holds the configuration for the result storage backends.
// At most one backend is used; SQLite wins if both are set.
type StorageData struct {
	SQLite      *SQLiteData      `json:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty"`
}

type SQLiteData struct {
	Path string `json:"path"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string"`
}

// ServerData configures the REST API
type ServerData struct {
	Cert       string `json:"cert,omitempty"`
	Key        string `json:"key,omitempty"`
	Port       int    `json:"port,omitempty"`
	ListenAddr string `json:"listen_addr,omitempty"`
	EnableCORS bool   `json:"enable_cors,omitempty"`
}

// RunnerData controls batch execution of scenarios
type RunnerData struct {
	MaxParallel int `json:"max_parallel,omitempty"`
}

// LogData configures optional log file output
type LogData struct {
	File       string `json:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty"`
}

// FindScenario returns the scenario with the given name
func (c *ConfigData) FindScenario(name string) (*ScenarioData, error) {
	for i := range c.Scenarios {
		if c.Scenarios[i].Name == name {
			return &c.Scenarios[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, name)
}

// Validate checks that scenario names are present and unique
func (c *ConfigData) Validate() error {
	seen := make(map[string]bool, len(c.Scenarios))
	for i, s := range c.Scenarios {
		if s.Name == "" {
			return fmt.Errorf("scenario %d has no name", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate scenario name: %s", s.Name)
		}
		seen[s.Name] = true
	}
	if c.Runner.MaxParallel < 0 {
		return fmt.Errorf("runner.max-parallel must not be negative, got %d", c.Runner.MaxParallel)
	}
	return nil
}
