package core

import (
	"fmt"
	"os"

	"tiercore/internal/infra/persistence/memory"
	"tiercore/internal/infra/persistence/postgres"
	"tiercore/internal/infra/persistence/sqlite"
	"tiercore/internal/persistence"
)

// StorageDriver identifies a concrete history storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenHistoryStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	TIERCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	TIERCORE_SQLITE_PATH: path to sqlite file (default ./tiercore.db)
//	TIERCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenHistoryStore() (persistence.Store, error) {
	driver := os.Getenv("TIERCORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		path := os.Getenv("TIERCORE_SQLITE_PATH")
		return sqlite.NewStore(path)
	case StoragePostgres:
		dsn := os.Getenv("TIERCORE_POSTGRES_DSN")
		return postgres.NewStore(dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
