package app

import (
	"fmt"

	"github.com/MHC32/momentum/internal/config"
	"github.com/MHC32/momentum/internal/storage"
)

var globalStorage storage.Storage

// MustOpenStorage opens the session storage selected by the config.
func MustOpenStorage() {
	cfg := config.Global()
	logger := Logger("storage")

	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		MustConnectPostgres()
		globalStorage = storage.NewPostgresStorage(logger, globalPostgresPool)
	case config.StorageDriverSQLite:
		s, err := storage.NewSQLiteStorage(logger, cfg.SQLite.Path)
		if err != nil {
			globalLogger.Error().
				Err(err).
				Str("path", cfg.SQLite.Path).
				Msg("failed to open sqlite storage")
			panic(err)
		}
		globalStorage = s
	case config.StorageDriverMemory:
		globalStorage = storage.NewMemoryStorage()
	default:
		globalLogger.Error().
			Str("driver", cfg.Storage.Driver).
			Msg("unknown storage driver")
		panic(fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver))
	}

	globalLogger.Info().
		Str("driver", cfg.Storage.Driver).
		Msg("opened storage")
}

func CloseStorage() {
	if globalStorage == nil {
		return
	}
	err := globalStorage.Close()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to close storage")
	}
	DisconnectPostgres()
	globalLogger.Info().Msg("closed storage")
}
