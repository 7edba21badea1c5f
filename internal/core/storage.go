package core

import (
	"context"
	"fmt"

	"realvision/internal/config"
	"realvision/internal/infra/persistence/memory"
	"realvision/internal/infra/persistence/postgres"
	"realvision/internal/infra/persistence/sqlite"
	"realvision/pkg/domain"
)

// StorageDriver identifies a concrete layer store implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenLayerStore selects a backend from cfg. An empty driver selects sqlite.
func OpenLayerStore(ctx context.Context, cfg config.Config) (domain.LayerStore, error) {
	driver := StorageDriver(cfg.StorageDriver)
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		s, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case StoragePostgres:
		s, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
