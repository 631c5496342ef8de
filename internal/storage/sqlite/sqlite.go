// Package sqlite stores simulation runs in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/chrissnell/hydrosim/internal/hydro"
	"github.com/chrissnell/hydrosim/internal/storage"
	"github.com/chrissnell/hydrosim/pkg/migrate"
)

//go:embed migrations/*.sql
var migrations embed.FS

// timeLayout is fixed width so started_at sorts correctly as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements storage.ResultStore on SQLite
type Store struct {
	db       *sql.DB
	migrator *migrate.Migrator
	logger   *zap.SugaredLogger
}

// New opens (or creates) the database at path and brings its schema up to date
func New(ctx context.Context, path string, logger *zap.SugaredLogger) (*Store, error) {
	db, migrator, err := open(ctx, path, logger)
	if err != nil {
		return nil, err
	}

	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate result schema: %w", err)
	}

	logger.Debugf("opened SQLite result store at %s", path)
	return &Store{db: db, migrator: migrator, logger: logger}, nil
}

// SchemaStatus reports the migration state of the database at path without
// changing it
func SchemaStatus(ctx context.Context, path string, logger *zap.SugaredLogger) (migrate.Status, error) {
	db, migrator, err := open(ctx, path, logger)
	if err != nil {
		return migrate.Status{}, err
	}
	defer db.Close()
	return migrator.Status(ctx)
}

// MigrateSchema moves the database at path to schema version target, rolling
// back when target is below the applied version
func MigrateSchema(ctx context.Context, path string, target int, logger *zap.SugaredLogger) (migrate.Status, error) {
	db, migrator, err := open(ctx, path, logger)
	if err != nil {
		return migrate.Status{}, err
	}
	defer db.Close()

	if err := migrator.To(ctx, target); err != nil {
		return migrate.Status{}, fmt.Errorf("failed to migrate result schema: %w", err)
	}
	return migrator.Status(ctx)
}

func open(ctx context.Context, path string, logger *zap.SugaredLogger) (*sql.DB, *migrate.Migrator, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	migrator, err := migrate.New(db, migrations, "migrations", "schema_migrations", logger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, migrator, nil
}

// SaveRun writes the run and its periods in one transaction
func (s *Store) SaveRun(ctx context.Context, run *storage.RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var pbias, nse, r2, rmse, pearson sql.NullFloat64
	if idx := run.Indices; idx != nil {
		pbias = sql.NullFloat64{Float64: idx.PBIAS, Valid: true}
		nse = sql.NullFloat64{Float64: idx.NSE, Valid: true}
		r2 = sql.NullFloat64{Float64: idx.R2, Valid: true}
		rmse = sql.NullFloat64{Float64: idx.RMSE, Valid: true}
		pearson = sql.NullFloat64{Float64: idx.PearsonR2, Valid: idx.HasPearson}
	}

	p := run.Parameters
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, scenario, started_at, duration_ns, periods,
			ks, kc, kb, kw, kz, c, pbias, nse, r2, rmse, pearson_r2, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Scenario, run.StartedAt.UTC().Format(timeLayout), int64(run.Duration), len(run.Inputs),
		p.Ks, p.Kc, p.Kb, p.Kw, p.Kz, p.C, pbias, nse, r2, rmse, pearson, run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_periods (run_id, period, precipitation, evapotranspiration,
			observed_discharge, reservoir, channel, soil)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare period insert: %w", err)
	}
	defer stmt.Close()

	for i, in := range run.Inputs {
		var reservoir, channel, soil sql.NullFloat64
		if i < len(run.Outputs) {
			out := run.Outputs[i]
			reservoir = sql.NullFloat64{Float64: out.Reservoir, Valid: true}
			channel = sql.NullFloat64{Float64: out.Channel, Valid: true}
			soil = sql.NullFloat64{Float64: out.Soil, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, run.ID.String(), i, in.Precipitation, in.Evapotranspiration,
			in.ObservedDischarge, reservoir, channel, soil); err != nil {
			return fmt.Errorf("failed to insert period %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Debugf("stored run %s (%s) with %d periods", run.ID, run.Scenario, len(run.Inputs))
	return nil
}

const summaryColumns = `id, scenario, started_at, periods, pbias, nse, r2, rmse, pearson_r2, error`

type rowScanner interface {
	Scan(dest ...any) error
}

// extendedRow scans the summary columns followed by extra destinations
type extendedRow struct {
	row   *sql.Row
	extra []any
}

func (e extendedRow) Scan(dest ...any) error {
	return e.row.Scan(append(dest, e.extra...)...)
}

func scanSummary(row rowScanner) (storage.RunSummary, error) {
	var summary storage.RunSummary
	var id, startedAt string
	var pbias, nse, r2, rmse, pearson sql.NullFloat64

	if err := row.Scan(&id, &summary.Scenario, &startedAt, &summary.Periods,
		&pbias, &nse, &r2, &rmse, &pearson, &summary.Error); err != nil {
		return summary, err
	}

	var err error
	if summary.ID, err = uuid.Parse(id); err != nil {
		return summary, fmt.Errorf("invalid run id %q: %w", id, err)
	}
	if summary.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return summary, fmt.Errorf("invalid start time %q: %w", startedAt, err)
	}

	if nse.Valid {
		summary.Indices = &hydro.Indices{
			PBIAS:      pbias.Float64,
			NSE:        nse.Float64,
			R2:         r2.Float64,
			RMSE:       rmse.Float64,
			PearsonR2:  pearson.Float64,
			HasPearson: pearson.Valid,
		}
	}
	return summary, nil
}

// GetRun loads a run with its periods
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*storage.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+summaryColumns+`, duration_ns, ks, kc, kb, kw, kz, c FROM runs WHERE id = ?`, id.String())

	var durationNS int64
	var p hydro.Parameters
	summary, err := scanSummary(extendedRow{row, []any{&durationNS, &p.Ks, &p.Kc, &p.Kb, &p.Kw, &p.Kz, &p.C}})
	if err == sql.ErrNoRows {
		return nil, storage.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	run := &storage.RunRecord{
		ID:         summary.ID,
		Scenario:   summary.Scenario,
		StartedAt:  summary.StartedAt,
		Duration:   time.Duration(durationNS),
		Parameters: p,
		Indices:    summary.Indices,
		Error:      summary.Error,
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT precipitation, evapotranspiration, observed_discharge, reservoir, channel, soil
		FROM run_periods
		WHERE run_id = ?
		ORDER BY period`, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var in hydro.PeriodInput
		var reservoir, channel, soil sql.NullFloat64
		if err := rows.Scan(&in.Precipitation, &in.Evapotranspiration, &in.ObservedDischarge,
			&reservoir, &channel, &soil); err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		run.Inputs = append(run.Inputs, in)
		if reservoir.Valid {
			run.Outputs = append(run.Outputs, hydro.PeriodOutput{
				Reservoir: reservoir.Float64,
				Channel:   channel.Float64,
				Soil:      soil.Float64,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating periods: %w", err)
	}

	return run, nil
}

// ListRuns returns run summaries newest first
func (s *Store) ListRuns(ctx context.Context, scenario string) ([]storage.RunSummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM runs`
	var args []any
	if scenario != "" {
		query += ` WHERE scenario = ?`
		args = append(args, scenario)
	}
	query += ` ORDER BY started_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var summaries []storage.RunSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// CheckHealth pings the database and fails when the schema has been moved
// off the latest version since the store was opened
func (s *Store) CheckHealth(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return err
	}
	st, err := s.migrator.Status(ctx)
	if err != nil {
		return err
	}
	if !st.UpToDate() {
		return fmt.Errorf("result schema is at version %d, want %d", st.Current, st.Latest)
	}
	return nil
}

// SchemaVersion returns the applied and latest schema versions
func (s *Store) SchemaVersion(ctx context.Context) (current, latest int, err error) {
	st, err := s.migrator.Status(ctx)
	if err != nil {
		return 0, 0, err
	}
	return st.Current, st.Latest, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
