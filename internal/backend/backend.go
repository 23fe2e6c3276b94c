// Package backend selects and constructs the persistence backend from
// configuration.
package backend

import (
	"fmt"

	"presupuesto/internal/config"
	"presupuesto/internal/log"
	"presupuesto/internal/store"
	"presupuesto/internal/store/memory"
	"presupuesto/internal/store/sqlite"
)

type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc releases a backend's resources.
type CleanupFunc func() error

// Result pairs the repository with its cleanup function.
type Result struct {
	Repository store.Repository
	Cleanup    CleanupFunc
}

type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Create builds the repository named by cfg.DataBackend.
func (f *Factory) Create(cfg *config.Config) (*Result, error) {
	backendType := Type(cfg.DataBackend)
	if !backendType.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch backendType {
	case SQLiteBackend:
		repo, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Repository: repo, Cleanup: repo.Close}, nil

	case MemoryBackend:
		repo := memory.New()
		f.logger.Info("Initialized memory backend")
		return &Result{Repository: repo, Cleanup: repo.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", backendType)
	}
}
