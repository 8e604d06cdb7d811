package main

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripwise/tripwise/internal/featureflags"
	"github.com/tripwise/tripwise/internal/geo"
	"github.com/tripwise/tripwise/internal/weather"
)

type countingProvider struct{ calls atomic.Int32 }

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) CurrentWeather(_ context.Context, at geo.Coordinate) (*weather.Observation, error) {
	p.calls.Add(1)
	return &weather.Observation{Coordinate: at, Condition: weather.ConditionClear}, nil
}

func TestInvalidateCaches(t *testing.T) {
	ctx := context.Background()

	repo := featureflags.NewInMemoryRepository()
	require.NoError(t, repo.SetFlags(ctx, []*featureflags.Flag{{Key: featureflags.FlagDisableRemoteOptimizer, Value: false}}))
	flags := featureflags.NewService(featureflags.ServiceConfig{Repository: repo, Logger: zerolog.Nop()})
	assert.False(t, flags.IsRemoteOptimizerDisabled(ctx))

	provider := &countingProvider{}
	wx := weather.NewService(weather.ServiceConfig{Provider: provider, Logger: zerolog.Nop()})
	_, err := wx.Current(ctx, geo.Coordinate{Lat: 12.9763, Lon: 77.5929})
	require.NoError(t, err)
	require.Equal(t, 1, wx.CacheStats().Entries)

	// A flag edited directly in the store stays hidden behind the cache.
	require.NoError(t, repo.SetFlags(ctx, []*featureflags.Flag{{Key: featureflags.FlagDisableRemoteOptimizer, Value: true}}))
	assert.False(t, flags.IsRemoteOptimizerDisabled(ctx))

	invalidateCaches(zerolog.Nop(),
		namedCache{name: "featureflags", cache: flags},
		namedCache{name: "weather", cache: wx},
	)

	assert.True(t, flags.IsRemoteOptimizerDisabled(ctx))
	assert.Zero(t, wx.CacheStats().Entries)

	_, err = wx.Current(ctx, geo.Coordinate{Lat: 12.9763, Lon: 77.5929})
	require.NoError(t, err)
	assert.Equal(t, int32(2), provider.calls.Load())
}
