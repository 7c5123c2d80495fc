package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"growup/internal/config"
	"growup/internal/database"
	"growup/internal/repositories"
	"growup/pkg/mongodb"
)

// stores bundles the repositories of the configured backend.
type stores struct {
	users      repositories.UserRepository
	watchlists repositories.WatchlistRepository
	holdings   repositories.HoldingRepository
	close      func(ctx context.Context) error
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, err := mongodb.NewClient(ctx, mongodb.Config{URI: cfg.MongoURI, Database: cfg.MongoDatabase})
		if err != nil {
			return nil, err
		}
		db := client.Database()
		if err := repositories.EnsureMongoIndexes(ctx, db); err != nil {
			_ = client.Close(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.MongoDatabase).Msg("connected to MongoDB")
		return &stores{
			users:      repositories.NewMongoUserRepository(db),
			watchlists: repositories.NewMongoWatchlistRepository(db),
			holdings:   repositories.NewMongoHoldingRepository(db),
			close:      client.Close,
		}, nil

	case config.DriverPostgres, config.DriverSQLite:
		db, err := database.Open(cfg.StoreDriver, cfg.DatabaseDSN, log)
		if err != nil {
			return nil, err
		}
		return &stores{
			users:      repositories.NewGORMUserRepository(db),
			watchlists: repositories.NewGORMWatchlistRepository(db),
			holdings:   repositories.NewGORMHoldingRepository(db),
			close:      func(context.Context) error { return database.Close(db) },
		}, nil

	case config.DriverMemory:
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return &stores{
			users:      repositories.NewMockUserRepository(),
			watchlists: repositories.NewMockWatchlistRepository(),
			holdings:   repositories.NewMockHoldingRepository(),
			close:      func(context.Context) error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
