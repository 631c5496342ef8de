// Package migrate applies numbered SQL migrations to a database/sql handle
// and tracks the applied versions in a table of that database.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"go.uber.org/zap"
)

const defaultTable = "schema_migrations"

// Status describes where a database stands against its migrations
type Status struct {
	Current int         `json:"current"`
	Latest  int         `json:"latest"`
	Pending []Migration `json:"-"`
}

// UpToDate reports whether every migration has been applied
func (s Status) UpToDate() bool {
	return s.Current == s.Latest
}

// Migrator moves a database between schema versions
type Migrator struct {
	db         *sql.DB
	table      string
	migrations []Migration
	logger     *zap.SugaredLogger
}

// New loads the migrations in dir of fsys for db. An empty table name uses
// schema_migrations.
func New(db *sql.DB, fsys fs.FS, dir, table string, logger *zap.SugaredLogger) (*Migrator, error) {
	migrations, err := Load(fsys, dir)
	if err != nil {
		return nil, err
	}
	if table == "" {
		table = defaultTable
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Migrator{db: db, table: table, migrations: migrations, logger: logger}, nil
}

// Latest is the highest known migration version
func (m *Migrator) Latest() int {
	return len(m.migrations)
}

// Status reports the applied version and the migrations still to run
func (m *Migrator) Status(ctx context.Context) (Status, error) {
	current, err := m.current(ctx)
	if err != nil {
		return Status{}, err
	}
	st := Status{Current: current, Latest: m.Latest()}
	if current < st.Latest {
		st.Pending = append([]Migration(nil), m.migrations[current:]...)
	}
	return st, nil
}

// Up applies every pending migration
func (m *Migrator) Up(ctx context.Context) error {
	return m.To(ctx, m.Latest())
}

// To migrates up or down until target is the applied version. Target 0
// reverts every migration.
func (m *Migrator) To(ctx context.Context, target int) error {
	if target < 0 || target > m.Latest() {
		return fmt.Errorf("target version %d is outside 0..%d", target, m.Latest())
	}

	current, err := m.current(ctx)
	if err != nil {
		return err
	}
	if current > m.Latest() {
		return fmt.Errorf("database is at version %d, newer than the latest known migration %d", current, m.Latest())
	}

	for v := current + 1; v <= target; v++ {
		if err := m.apply(ctx, m.migrations[v-1], true); err != nil {
			return err
		}
	}
	for v := current; v > target; v-- {
		if err := m.apply(ctx, m.migrations[v-1], false); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) current(ctx context.Context) (int, error) {
	if _, err := m.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`, m.table)); err != nil {
		return 0, fmt.Errorf("creating %s: %w", m.table, err)
	}

	var version int
	if err := m.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COALESCE(MAX(version), 0) FROM %s", m.table)).Scan(&version); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// apply runs one migration and records the version change in the same
// transaction
func (m *Migrator) apply(ctx context.Context, mig Migration, up bool) error {
	script, direction := mig.Up, "up"
	if !up {
		script, direction = mig.Down, "down"
	}
	if script == "" {
		return fmt.Errorf("migration %d (%s) has no %s script", mig.Version, mig.Name, direction)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("migration %d %s: %w", mig.Version, direction, err)
	}

	if up {
		_, err = tx.ExecContext(ctx, fmt.Sprintf("INSERT INTO %s (version) VALUES (?)", m.table), mig.Version)
	} else {
		_, err = tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE version >= ?", m.table), mig.Version)
	}
	if err != nil {
		return fmt.Errorf("recording migration %d: %w", mig.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", mig.Version, err)
	}

	m.logger.Infow("applied migration", "version", mig.Version, "name", mig.Name, "direction", direction)
	return nil
}
