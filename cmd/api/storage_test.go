package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripwise/tripwise/internal/catalog"
	"github.com/tripwise/tripwise/internal/config"
	"github.com/tripwise/tripwise/internal/featureflags"
)

func TestOpenStorage_MemorySeedsBuiltins(t *testing.T) {
	ctx := context.Background()

	store, err := openStorage(ctx, config.Config{CatalogBackend: config.CatalogMemory}, zerolog.Nop())
	require.NoError(t, err)
	defer store.close()

	places, err := store.places.List(ctx)
	require.NoError(t, err)
	assert.Len(t, places, len(catalog.DefaultPlaces()))
	assert.NoError(t, store.ping(ctx))
	assert.Empty(t, store.checks)

	assert.Len(t, store.flags.GetAllFlags(ctx), len(featureflags.DefaultFlags()))
	assert.False(t, store.flags.IsLiveWeatherDisabled(ctx))
	assert.Zero(t, store.flags.SearchTrials(ctx))
}

func TestOpenStorage_SQLiteSeedFileAndFlags(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	seed := filepath.Join(dir, "places.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(`places:
  - id: plc_test
    name: Test Garden
    category: park
    lat: 12.95
    lon: 77.58
    rating: 4.0
    popularity: 100
`), 0o600))

	cfg := config.Config{
		CatalogBackend: config.CatalogSQLite,
		SQLitePath:     filepath.Join(dir, "poi_cache.db"),
		SeedFile:       seed,
		FeatureFlags: []*featureflags.Flag{
			{Key: featureflags.FlagDisableLiveWeather, Value: true, UpdatedAt: time.Now()},
		},
	}

	store, err := openStorage(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	defer store.close()

	places, err := store.places.List(ctx)
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "Test Garden", places[0].Name)

	assert.True(t, store.flags.IsLiveWeatherDisabled(ctx))
	assert.False(t, store.flags.IsRemoteOptimizerDisabled(ctx))
}

func TestSeedCatalog_KeepsExistingPlaces(t *testing.T) {
	ctx := context.Background()
	repo := catalog.NewInMemoryRepository(&catalog.Place{ID: "plc_x", Name: "Only Place", Lat: 12.9, Lon: 77.6})

	require.NoError(t, seedCatalog(ctx, repo, "", zerolog.Nop()))

	places, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, places, 1)
}

func TestOpenStorage_UnknownBackend(t *testing.T) {
	_, err := openStorage(context.Background(), config.Config{CatalogBackend: "redis"}, zerolog.Nop())
	assert.Error(t, err)
}
