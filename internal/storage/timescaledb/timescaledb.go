// Package timescaledb stores simulation runs in TimescaleDB through GORM.
package timescaledb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/chrissnell/hydrosim/internal/database"
	"github.com/chrissnell/hydrosim/internal/storage"
)

// Storage implements storage.ResultStore on TimescaleDB
type Storage struct {
	TimescaleDBConn *gorm.DB
	logger          *zap.SugaredLogger
}

// New connects to TimescaleDB and prepares the result tables
func New(ctx context.Context, connectionString string, logger *zap.SugaredLogger) (*Storage, error) {
	conn, err := database.CreateConnection(connectionString)
	if err != nil {
		return nil, err
	}

	t := &Storage{TimescaleDBConn: conn, logger: logger}

	logger.Info("creating result tables...")
	if err := conn.WithContext(ctx).AutoMigrate(&Run{}, &RunPeriod{}); err != nil {
		return nil, fmt.Errorf("could not migrate result tables: %w", err)
	}

	// The extension is optional; plain PostgreSQL still works without hypertables.
	if err := conn.WithContext(ctx).Exec(createExtensionSQL).Error; err != nil {
		logger.Warnf("TimescaleDB extension unavailable, runs will be stored in a plain table: %v", err)
		return t, nil
	}
	if err := conn.WithContext(ctx).Exec(createHypertableSQL).Error; err != nil {
		logger.Warnf("could not create runs hypertable: %v", err)
	}

	return t, nil
}

// SaveRun stores the run and its periods in one transaction
func (t *Storage) SaveRun(ctx context.Context, run *storage.RunRecord) error {
	row, periods := toRows(run)

	err := t.TimescaleDBConn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("could not store run: %w", err)
		}
		if len(periods) > 0 {
			if err := tx.CreateInBatches(&periods, 500).Error; err != nil {
				return fmt.Errorf("could not store run periods: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		t.logger.Errorf("could not store run %s: %v", run.ID, err)
		return err
	}
	return nil
}

// GetRun loads a run with its periods
func (t *Storage) GetRun(ctx context.Context, id uuid.UUID) (*storage.RunRecord, error) {
	db := t.TimescaleDBConn.WithContext(ctx)

	var row Run
	if err := db.Where("id = ?", id.String()).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrRunNotFound
		}
		return nil, fmt.Errorf("error querying run: %w", err)
	}

	var periods []RunPeriod
	if err := db.Where("run_id = ?", row.ID).Order("period").Find(&periods).Error; err != nil {
		return nil, fmt.Errorf("error querying run periods: %w", err)
	}

	return fromRows(row, periods)
}

// ListRuns returns run summaries newest first
func (t *Storage) ListRuns(ctx context.Context, scenario string) ([]storage.RunSummary, error) {
	query := t.TimescaleDBConn.WithContext(ctx).Order("started_at DESC")
	if scenario != "" {
		query = query.Where("scenario = ?", scenario)
	}

	var rows []Run
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error querying runs: %w", err)
	}

	summaries := make([]storage.RunSummary, 0, len(rows))
	for _, r := range rows {
		s, err := r.summary()
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// Close closes the underlying connection pool
func (t *Storage) Close() error {
	sqlDB, err := t.TimescaleDBConn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
