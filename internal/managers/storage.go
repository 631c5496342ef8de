package managers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/chrissnell/hydrosim/internal/storage"
	"github.com/chrissnell/hydrosim/internal/storage/sqlite"
	"github.com/chrissnell/hydrosim/internal/storage/timescaledb"
	"github.com/chrissnell/hydrosim/pkg/config"
)

// NewResultStore opens the configured result backend. SQLite wins when both
// backends are configured; with neither, runs are kept in memory.
func NewResultStore(ctx context.Context, c *config.StorageData, logger *zap.SugaredLogger) (storage.ResultStore, error) {
	if c != nil && c.SQLite != nil && c.SQLite.Path != "" {
		logger.Infof("storing results in SQLite database %s", c.SQLite.Path)
		s, err := sqlite.New(ctx, c.SQLite.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("could not add SQLite storage backend: %v", err)
		}
		return s, nil
	}

	if c != nil && c.TimescaleDB != nil && c.TimescaleDB.ConnectionString != "" {
		s, err := timescaledb.New(ctx, c.TimescaleDB.ConnectionString, logger)
		if err != nil {
			return nil, fmt.Errorf("could not add TimescaleDB storage backend: %v", err)
		}
		return s, nil
	}

	logger.Info("no storage backend configured; results are kept in memory")
	return storage.NewMemoryStore(), nil
}
