package app

import (
	"context"

	"github.com/adanyl0v/go-tasklists/internal/config"
	"github.com/adanyl0v/go-tasklists/internal/storage"
	"github.com/adanyl0v/go-tasklists/internal/storage/postgres"
	"github.com/adanyl0v/go-tasklists/internal/storage/sqlite"
)

var globalStore storage.Store

func MustConnectStorage() {
	cfg := config.Global()
	ctx := context.Background()

	var err error
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		pgCfg := cfg.Postgres
		globalStore, err = postgres.Open(ctx, postgres.Options{
			ConnURL:        pgCfg.ConnURL(),
			ConnectTimeout: pgCfg.ConnectTimeout,
			PingTimeout:    pgCfg.PingTimeout,
		})
		if err != nil {
			globalLogger.Error().
				Err(err).
				Str("host", pgCfg.Host).
				Int("port", pgCfg.Port).
				Msg("failed to connect to postgres")
			panic(err)
		}
		globalLogger.Info().
			Str("host", pgCfg.Host).
			Int("port", pgCfg.Port).
			Msg("connected to postgres")
	case config.StorageDriverSQLite:
		globalStore, err = sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			globalLogger.Error().
				Err(err).
				Str("path", cfg.SQLite.Path).
				Msg("failed to open sqlite")
			panic(err)
		}
		globalLogger.Info().
			Str("path", cfg.SQLite.Path).
			Msg("opened sqlite")
	default:
		// Unreachable after config validation.
		panic("unknown storage driver: " + cfg.Storage.Driver)
	}
}

func DisconnectStorage() {
	err := globalStore.Close()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to close storage")
		return
	}
	globalLogger.Info().Msg("closed storage")
}
