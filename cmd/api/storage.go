package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tripwise/tripwise/internal/api/handler"
	"github.com/tripwise/tripwise/internal/catalog"
	"github.com/tripwise/tripwise/internal/config"
	"github.com/tripwise/tripwise/internal/database"
	"github.com/tripwise/tripwise/internal/featureflags"
)

// storage holds the configured place catalog and feature flags with their
// lifecycle hooks.
type storage struct {
	places catalog.Repository
	flags  *featureflags.Service
	checks []handler.Check
	close  func()
}

func (s *storage) ping(ctx context.Context) error {
	_, err := s.places.List(ctx)
	return err
}

// openStorage opens the configured backend, seeds the catalog and applies the
// configured feature flags. A seed file is always applied; the built-in places
// are only loaded into an empty catalog. Flags live in Postgres when it is the
// backend and in memory otherwise.
func openStorage(ctx context.Context, cfg config.Config, log zerolog.Logger) (*storage, error) {
	store := &storage{close: func() {}}
	var flagRepo featureflags.Repository

	switch cfg.CatalogBackend {
	case config.CatalogMemory:
		store.places = catalog.NewInMemoryRepository()
		flagRepo = featureflags.NewInMemoryRepository()

	case config.CatalogSQLite:
		repo, err := catalog.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store.places = repo
		flagRepo = featureflags.NewInMemoryRepository()
		store.close = func() {
			if err := repo.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close sqlite catalog")
			}
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("sqlite catalog opened")

	case config.CatalogPostgres:
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		places := catalog.NewPostgresRepository(pool)
		flags := featureflags.NewPostgresRepository(pool)
		if err := places.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		if err := flags.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		store.places = places
		flagRepo = flags
		store.checks = append(store.checks, handler.Check{Name: "database", Ping: pool.Ping})
		store.close = pool.Close
		log.Info().
			Str("host", cfg.Database.Host).
			Int("port", cfg.Database.Port).
			Str("database", cfg.Database.Database).
			Msg("database connected")

	default:
		return nil, fmt.Errorf("unknown catalog backend %q", cfg.CatalogBackend)
	}

	if err := seedCatalog(ctx, store.places, cfg.SeedFile, log); err != nil {
		store.close()
		return nil, err
	}

	store.flags = featureflags.NewService(featureflags.ServiceConfig{
		Repository: flagRepo,
		Logger:     log.With().Str("component", "featureflags").Logger(),
	})
	if len(cfg.FeatureFlags) > 0 {
		if err := store.flags.SetFlags(ctx, cfg.FeatureFlags); err != nil {
			store.close()
			return nil, fmt.Errorf("apply feature flags: %w", err)
		}
		log.Info().Int("flags", len(cfg.FeatureFlags)).Msg("feature flags applied")
	}
	return store, nil
}

func seedCatalog(ctx context.Context, repo catalog.Repository, seedFile string, log zerolog.Logger) error {
	if seedFile != "" {
		places, err := catalog.LoadSeed(seedFile)
		if err != nil {
			return err
		}
		if err := catalog.Seed(ctx, repo, places); err != nil {
			return err
		}
		log.Info().Str("path", seedFile).Int("places", len(places)).Msg("catalog seeded from file")
		return nil
	}

	existing, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("inspect catalog: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	places := catalog.DefaultPlaces()
	if err := catalog.Seed(ctx, repo, places); err != nil {
		return err
	}
	log.Info().Int("places", len(places)).Msg("catalog seeded with built-in places")
	return nil
}
