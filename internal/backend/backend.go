// Package backend selects and builds the persistence gateway from
// configuration.
package backend

import (
	"fmt"

	"rasid/internal/config"
	"rasid/internal/ledger"
	"rasid/internal/log"
	"rasid/internal/memory"
	"rasid/internal/storage"
)

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result bundles the store with its cleanup; Cleanup may be nil.
type Result struct {
	Store   ledger.Store
	Cleanup CleanupFunc
}

// Factory creates stores from configuration.
type Factory interface {
	CreateStore(cfg *config.Config) (*Result, error)
}

type defaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &defaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *defaultFactory) CreateStore(cfg *config.Config) (*Result, error) {
	switch cfg.DataBackend {
	case config.BackendMemory:
		f.logger.Info("Initialized memory backend")
		return &Result{Store: memory.New()}, nil

	case config.BackendSQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: repo, Cleanup: repo.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}
