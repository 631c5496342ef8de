package managers

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/chrissnell/hydrosim/internal/controllers/restserver"
	"github.com/chrissnell/hydrosim/internal/storage"
	"github.com/chrissnell/hydrosim/internal/storage/sqlite"
	"github.com/chrissnell/hydrosim/pkg/config"
)

func TestNewResultStore(t *testing.T) {
	logger := zap.NewNop().Sugar()
	ctx := context.Background()

	tests := []struct {
		name     string
		cfg      *config.StorageData
		wantType string
	}{
		{"nil config", nil, "memory"},
		{"empty config", &config.StorageData{}, "memory"},
		{"sqlite", &config.StorageData{SQLite: &config.SQLiteData{Path: filepath.Join(t.TempDir(), "runs.db")}}, "sqlite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewResultStore(ctx, tt.cfg, logger)
			if err != nil {
				t.Fatalf("NewResultStore failed: %v", err)
			}
			defer s.Close()

			switch tt.wantType {
			case "memory":
				if _, ok := s.(*storage.MemoryStore); !ok {
					t.Errorf("got %T, want *storage.MemoryStore", s)
				}
			case "sqlite":
				if _, ok := s.(*sqlite.Store); !ok {
					t.Errorf("got %T, want *sqlite.Store", s)
				}
			}
		})
	}
}

type serverOnlyProvider struct {
	config.ConfigProvider
	server *config.ServerData
}

func (p serverOnlyProvider) GetServerConfig() (*config.ServerData, error) {
	return p.server, nil
}

func TestNewControllerManager(t *testing.T) {
	logger := zap.NewNop().Sugar()
	deps := restserver.Dependencies{Store: storage.NewMemoryStore()}

	cm, err := NewControllerManager(context.Background(), &sync.WaitGroup{}, serverOnlyProvider{}, deps, logger)
	if err != nil {
		t.Fatalf("NewControllerManager failed: %v", err)
	}
	if got := len(cm.(*controllerManager).controllers); got != 1 {
		t.Errorf("controllers = %d, want 1", got)
	}

	if _, err := NewControllerManager(context.Background(), &sync.WaitGroup{}, serverOnlyProvider{}, restserver.Dependencies{}, logger); err == nil {
		t.Errorf("expected error without a store")
	}
}
