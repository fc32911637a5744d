package main

import (
	"context"
	"fmt"

	"tickScope/internal/config"
	"tickScope/internal/indexer"
	"tickScope/internal/storage"
	"tickScope/internal/storage/memory"
	"tickScope/internal/storage/postgres"
	"tickScope/internal/storage/sqlite"
)

func openStore(ctx context.Context, cfg config.StoreConfig) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return store, nil
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		return store, nil
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Driver)
	}
}

// cursorStore picks where the cursor lives. A cursor file takes precedence; otherwise the
// ingestor saves the cursor inside each tx's store transaction under the returned name.
func cursorStore(store storage.Store, name, file string) (indexer.CursorStore, string) {
	if file != "" {
		return &indexer.FileCursorStore{Path: file}, ""
	}
	if name == "" {
		return nil, ""
	}
	return &indexer.DBCursorStore{Store: store, Name: name}, name
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
