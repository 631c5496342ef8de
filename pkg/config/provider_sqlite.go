package config

import (
	"database/sql"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS scenarios (
	name         TEXT PRIMARY KEY,
	description  TEXT NOT NULL DEFAULT '',
	forcing_file TEXT NOT NULL DEFAULT '',
	ks REAL NOT NULL,
	kc REAL NOT NULL,
	kb REAL NOT NULL,
	kw REAL NOT NULL,
	kz REAL NOT NULL,
	c  REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS storage_configs (
	backend_type TEXT PRIMARY KEY,
	endpoint     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS server_config (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	cert        TEXT NOT NULL DEFAULT '',
	key         TEXT NOT NULL DEFAULT '',
	port        INTEGER NOT NULL DEFAULT 0,
	listen_addr TEXT NOT NULL DEFAULT '',
	enable_cors INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider, creating the
// schema if the database is new
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create configuration schema: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	scenarios, err := s.GetScenarios()
	if err != nil {
		return nil, fmt.Errorf("failed to load scenarios: %w", err)
	}
	config.Scenarios = scenarios

	storage, err := s.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	config.Storage = *storage

	server, err := s.GetServerConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}
	config.Server = server

	settings, err := s.getSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	config.Runner.MaxParallel = atoiOrZero(settings["runner.max_parallel"])
	config.Log = LogData{
		File:       settings["log.file"],
		MaxSizeMB:  atoiOrZero(settings["log.max_size_mb"]),
		MaxBackups: atoiOrZero(settings["log.max_backups"]),
		MaxAgeDays: atoiOrZero(settings["log.max_age_days"]),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// GetScenarios returns scenario configurations from the database
func (s *SQLiteProvider) GetScenarios() ([]ScenarioData, error) {
	rows, err := s.db.Query(`
		SELECT name, description, forcing_file, ks, kc, kb, kw, kz, c
		FROM scenarios
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenarios: %w", err)
	}
	defer rows.Close()

	var scenarios []ScenarioData
	for rows.Next() {
		var sc ScenarioData
		p := &sc.Parameters
		if err := rows.Scan(&sc.Name, &sc.Description, &sc.ForcingFile, &p.Ks, &p.Kc, &p.Kb, &p.Kw, &p.Kz, &p.C); err != nil {
			return nil, fmt.Errorf("failed to scan scenario row: %w", err)
		}
		scenarios = append(scenarios, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scenario rows: %w", err)
	}

	return scenarios, nil
}

// GetStorageConfig returns storage configuration from the database
func (s *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	rows, err := s.db.Query(`SELECT backend_type, endpoint FROM storage_configs`)
	if err != nil {
		return nil, fmt.Errorf("failed to query storage configs: %w", err)
	}
	defer rows.Close()

	storage := &StorageData{}
	for rows.Next() {
		var backendType, endpoint string
		if err := rows.Scan(&backendType, &endpoint); err != nil {
			return nil, fmt.Errorf("failed to scan storage config row: %w", err)
		}

		switch backendType {
		case "sqlite":
			storage.SQLite = &SQLiteData{Path: endpoint}
		case "timescaledb":
			storage.TimescaleDB = &TimescaleDBData{ConnectionString: endpoint}
		default:
			return nil, fmt.Errorf("unknown storage backend type: %s", backendType)
		}
	}

	return storage, rows.Err()
}

// GetServerConfig returns the REST server configuration, or nil if none is stored
func (s *SQLiteProvider) GetServerConfig() (*ServerData, error) {
	var server ServerData
	var enableCORS int
	err := s.db.QueryRow(`
		SELECT cert, key, port, listen_addr, enable_cors
		FROM server_config
		WHERE id = 1
	`).Scan(&server.Cert, &server.Key, &server.Port, &server.ListenAddr, &enableCORS)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query server config: %w", err)
	}
	server.EnableCORS = enableCORS != 0
	return &server, nil
}

func (s *SQLiteProvider) getSettings() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

// IsReadOnly returns false since SQLite configuration can be modified
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Write methods for configuration management

// SaveConfig replaces the stored configuration with configData
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	if err := configData.Validate(); err != nil {
		return err
	}

	// Start transaction
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Clear existing data
	for _, table := range []string{"scenarios", "storage_configs", "server_config", "settings"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for i := range configData.Scenarios {
		if err := saveScenario(tx, &configData.Scenarios[i]); err != nil {
			return fmt.Errorf("failed to insert scenario %s: %w", configData.Scenarios[i].Name, err)
		}
	}

	if configData.Storage.SQLite != nil {
		if _, err := tx.Exec(`INSERT INTO storage_configs (backend_type, endpoint) VALUES ('sqlite', ?)`,
			configData.Storage.SQLite.Path); err != nil {
			return fmt.Errorf("failed to insert sqlite storage config: %w", err)
		}
	}
	if configData.Storage.TimescaleDB != nil {
		if _, err := tx.Exec(`INSERT INTO storage_configs (backend_type, endpoint) VALUES ('timescaledb', ?)`,
			configData.Storage.TimescaleDB.ConnectionString); err != nil {
			return fmt.Errorf("failed to insert timescaledb storage config: %w", err)
		}
	}

	if srv := configData.Server; srv != nil {
		enableCORS := 0
		if srv.EnableCORS {
			enableCORS = 1
		}
		if _, err := tx.Exec(`
			INSERT INTO server_config (id, cert, key, port, listen_addr, enable_cors)
			VALUES (1, ?, ?, ?, ?, ?)
		`, srv.Cert, srv.Key, srv.Port, srv.ListenAddr, enableCORS); err != nil {
			return fmt.Errorf("failed to insert server config: %w", err)
		}
	}

	settings := map[string]string{
		"runner.max_parallel": strconv.Itoa(configData.Runner.MaxParallel),
		"log.file":            configData.Log.File,
		"log.max_size_mb":     strconv.Itoa(configData.Log.MaxSizeMB),
		"log.max_backups":     strconv.Itoa(configData.Log.MaxBackups),
		"log.max_age_days":    strconv.Itoa(configData.Log.MaxAgeDays),
	}
	for k, v := range settings {
		if _, err := tx.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("failed to insert setting %s: %w", k, err)
		}
	}

	// Commit transaction
	return tx.Commit()
}

// SaveScenario inserts or replaces a single scenario
func (s *SQLiteProvider) SaveScenario(scenario *ScenarioData) error {
	if scenario.Name == "" {
		return fmt.Errorf("scenario has no name")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveScenario(tx, scenario); err != nil {
		return fmt.Errorf("failed to save scenario %s: %w", scenario.Name, err)
	}
	return tx.Commit()
}

func saveScenario(tx *sql.Tx, sc *ScenarioData) error {
	p := sc.Parameters
	_, err := tx.Exec(`
		INSERT OR REPLACE INTO scenarios (name, description, forcing_file, ks, kc, kb, kw, kz, c)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sc.Name, sc.Description, sc.ForcingFile, p.Ks, p.Kc, p.Kb, p.Kw, p.Kz, p.C)
	return err
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
