package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/harvestlink/marketplace/internal/api/handler"
	"github.com/harvestlink/marketplace/internal/core/ports"
	"github.com/harvestlink/marketplace/internal/infrastructure/cache/memory"
	"github.com/harvestlink/marketplace/internal/infrastructure/config"
	mongostore "github.com/harvestlink/marketplace/internal/infrastructure/db/mongo"
	"github.com/harvestlink/marketplace/internal/infrastructure/db/postgres"
)

// userStore is the opened user repository plus its lifecycle hooks.
type userStore struct {
	repo    ports.UserRepository
	pinger  handler.Pinger
	migrate func(ctx context.Context) error
	close   func()
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*userStore, error) {
	switch cfg.Store.Driver {
	case "postgres":
		db, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Postgres.URL})
		if err != nil {
			return nil, err
		}
		return &userStore{
			repo:    postgres.NewUserRepository(db),
			pinger:  handler.PingFunc(db.PingContext),
			migrate: func(ctx context.Context) error { return postgres.Migrate(ctx, db) },
			close:   closer(log, "postgres", db),
		}, nil

	case "mongo":
		store, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		repo := mongostore.NewUserRepository(store.Database)
		return &userStore{
			repo:    repo,
			pinger:  store,
			migrate: repo.EnsureIndexes,
			close: func() {
				if err := store.Close(context.Background()); err != nil {
					log.Warn().Err(err).Msg("mongo disconnect")
				}
			},
		}, nil

	case "memory":
		log.Warn().Msg("using in-memory user store; accounts are lost on restart")
		return &userStore{
			repo:    memory.NewUserRepository(),
			migrate: func(context.Context) error { return nil },
			close:   func() {},
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func closer(log zerolog.Logger, name string, db *sql.DB) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Str("store", name).Msg("close store")
		}
	}
}
