// Package backend selects and opens the configured kv store.
package backend

import (
	"fmt"
	"log/slog"

	"receipts/internal/config"
	"receipts/internal/kv"
	"receipts/internal/kv/file"
	"receipts/internal/kv/memory"
	"receipts/internal/kv/sqlite"
)

// Open builds the kv.Store named by cfg.DataBackend. The sqlite backend
// runs pending migrations before the store is handed out.
func Open(cfg *config.Config) (kv.Store, error) {
	switch cfg.DataBackend {
	case "memory":
		slog.Info("Initialized memory backend")
		return memory.New(), nil
	case "file":
		store, err := file.New(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("initialize file backend: %w", err)
		}
		slog.Info("Initialized file backend", "dir", cfg.DataDir)
		return store, nil
	case "sqlite":
		store, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		slog.Info("Initialized sqlite backend", "db_path", cfg.SQLiteDBPath)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}
