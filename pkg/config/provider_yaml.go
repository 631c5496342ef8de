package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config, err := parseYAML(cfgFile)
	if err != nil {
		return nil, err
	}

	y.config = config
	return config, nil
}

func parseYAML(data []byte) (*ConfigData, error) {
	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Scenarios []ScenarioYAML `yaml:"scenarios"`
		Storage   StorageYAML    `yaml:"storage,omitempty"`
		Server    *ServerYAML    `yaml:"server,omitempty"`
		Runner    RunnerYAML     `yaml:"runner,omitempty"`
		Log       LogYAML        `yaml:"log,omitempty"`
	}

	if err := yaml.Unmarshal(data, &yamlConfig); err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Scenarios: make([]ScenarioData, len(yamlConfig.Scenarios)),
		Runner:    RunnerData{MaxParallel: yamlConfig.Runner.MaxParallel},
		Log: LogData{
			File:       yamlConfig.Log.File,
			MaxSizeMB:  yamlConfig.Log.MaxSizeMB,
			MaxBackups: yamlConfig.Log.MaxBackups,
			MaxAgeDays: yamlConfig.Log.MaxAgeDays,
		},
	}

	for i, s := range yamlConfig.Scenarios {
		config.Scenarios[i] = ScenarioData{
			Name:        s.Name,
			Description: s.Description,
			ForcingFile: s.ForcingFile,
			Parameters: ParametersData{
				Ks: s.Parameters.Ks,
				Kc: s.Parameters.Kc,
				Kb: s.Parameters.Kb,
				Kw: s.Parameters.Kw,
				Kz: s.Parameters.Kz,
				C:  s.Parameters.C,
			},
		}
	}

	if yamlConfig.Storage.SQLite != nil {
		config.Storage.SQLite = &SQLiteData{Path: yamlConfig.Storage.SQLite.Path}
	}
	if yamlConfig.Storage.TimescaleDB != nil {
		config.Storage.TimescaleDB = &TimescaleDBData{
			ConnectionString: yamlConfig.Storage.TimescaleDB.ConnectionString,
		}
	}

	if yamlConfig.Server != nil {
		config.Server = &ServerData{
			Cert:       yamlConfig.Server.Cert,
			Key:        yamlConfig.Server.Key,
			Port:       yamlConfig.Server.Port,
			ListenAddr: yamlConfig.Server.ListenAddr,
			EnableCORS: yamlConfig.Server.EnableCORS,
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// GetScenarios returns scenario configurations
func (y *YAMLProvider) GetScenarios() ([]ScenarioData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return y.config.Scenarios, nil
}

// GetStorageConfig returns storage configuration
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Storage, nil
}

// GetServerConfig returns the REST server configuration, or nil if none is set
func (y *YAMLProvider) GetServerConfig() (*ServerData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return y.config.Server, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs
type ScenarioYAML struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	ForcingFile string         `yaml:"forcing-file,omitempty"`
	Parameters  ParametersYAML `yaml:"parameters"`
}

type ParametersYAML struct {
	Ks float64 `yaml:"ks"`
	Kc float64 `yaml:"kc"`
	Kb float64 `yaml:"kb"`
	Kw float64 `yaml:"kw"`
	Kz float64 `yaml:"kz"`
	C  float64 `yaml:"c"`
}

type StorageYAML struct {
	SQLite      *SQLiteYAML      `yaml:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBYAML `yaml:"timescaledb,omitempty"`
}

type SQLiteYAML struct {
	Path string `yaml:"path"`
}

type TimescaleDBYAML struct {
	ConnectionString string `yaml:"connection-string"`
}

type ServerYAML struct {
	Cert       string `yaml:"cert,omitempty"`
	Key        string `yaml:"key,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	ListenAddr string `yaml:"listen-addr,omitempty"`
	EnableCORS bool   `yaml:"enable-cors,omitempty"`
}

type RunnerYAML struct {
	MaxParallel int `yaml:"max-parallel,omitempty"`
}

type LogYAML struct {
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max-size-mb,omitempty"`
	MaxBackups int    `yaml:"max-backups,omitempty"`
	MaxAgeDays int    `yaml:"max-age-days,omitempty"`
}
