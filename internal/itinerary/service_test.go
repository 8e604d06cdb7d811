package itinerary_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripwise/tripwise/internal/catalog"
	"github.com/tripwise/tripwise/internal/featureflags"
	"github.com/tripwise/tripwise/internal/geo"
	"github.com/tripwise/tripwise/internal/itinerary"
	"github.com/tripwise/tripwise/internal/itinerary/remote"
	"github.com/tripwise/tripwise/internal/weather"
)

type stubRemote struct {
	result *itinerary.Result
	err    error
	calls  atomic.Int32
}

func (r *stubRemote) Name() string { return "stub" }

func (r *stubRemote) Optimize(_ context.Context, req itinerary.Request) (*itinerary.Result, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	res := *r.result
	res.OriginalRoute = req.Destinations
	return &res, nil
}

type stubWeather struct {
	err   error
	calls atomic.Int32
}

func (w *stubWeather) Current(_ context.Context, at geo.Coordinate) (*weather.Observation, error) {
	w.calls.Add(1)
	if w.err != nil {
		return nil, w.err
	}
	return &weather.Observation{
		Coordinate:  at,
		Temperature: 26.04,
		WindSpeed:   2.36,
		RainMm:      1.25,
		Condition:   weather.ConditionDrizzle,
	}, nil
}

type failingCatalog struct{ catalog.Repository }

func (failingCatalog) List(context.Context) ([]*catalog.Place, error) {
	return nil, errors.New("database is down")
}

func serviceRequest() itinerary.Request {
	day := time.Date(2025, 9, 18, 0, 0, 0, 0, time.UTC)
	return itinerary.Request{
		Start: "MG Road",
		End:   "UB City",
		Destinations: []itinerary.Destination{
			dest("a", "Cubbon Park", "park", 5, time.Hour),
			dest("b", "Lalbagh", "garden", 2, 30*time.Minute),
			dest("c", "Bull Temple", "temple", 4, 20*time.Minute),
		},
		Mode:      itinerary.ModeDriving,
		StartTime: day.Add(9 * time.Hour),
		EndTime:   day.Add(22 * time.Hour),
		MaxTime:   2 * time.Hour,
		Seed:      2024,
	}
}

func newService(remoteOpt itinerary.Remote, timeout time.Duration) *itinerary.Service {
	return itinerary.NewService(itinerary.ServiceConfig{
		Remote:        remoteOpt,
		RemoteTimeout: timeout,
		Catalog:       catalog.NewInMemoryRepository(catalog.DefaultPlaces()...),
		Logger:        zerolog.Nop(),
	})
}

func TestService_Optimize_Local(t *testing.T) {
	svc := newService(nil, 0)

	res, err := svc.Optimize(context.Background(), serviceRequest())
	require.NoError(t, err)

	want, err := itinerary.Optimize(serviceRequest(), bengaluru(), itinerary.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, want, res)
}

func TestService_Optimize_RemoteTimeoutFallsBack(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := remote.NewClient(remote.ClientConfig{BaseURL: server.URL, Logger: zerolog.Nop()})
	svc := newService(client, 50*time.Millisecond)

	started := time.Now()
	res, err := svc.Optimize(context.Background(), serviceRequest())
	require.NoError(t, err)
	assert.Less(t, time.Since(started), 2*time.Second)

	want, err := itinerary.Optimize(serviceRequest(), bengaluru(), itinerary.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, itinerary.SourceLocal, res.Source)
	assert.Equal(t, names(want.OptimizedRoute), names(res.OptimizedRoute))
	assert.Equal(t, want.Metrics, res.Metrics)
	assert.Equal(t, want.Score, res.Score)
}

func TestService_Optimize_RemoteErrorFallsBack(t *testing.T) {
	stub := &stubRemote{err: &itinerary.Error{Provider: "stub", Code: "HTTP_503", Message: "down", Err: itinerary.ErrRemoteUnavailable}}
	svc := newService(stub, time.Second)

	res, err := svc.Optimize(context.Background(), serviceRequest())
	require.NoError(t, err)
	assert.Equal(t, itinerary.SourceLocal, res.Source)
	assert.Equal(t, int32(1), stub.calls.Load())
}

func TestService_Optimize_RemoteSuccess(t *testing.T) {
	req := serviceRequest()
	optimized := []itinerary.Destination{req.Destinations[2], req.Destinations[0]}
	stub := &stubRemote{result: &itinerary.Result{
		Source:         itinerary.SourceRemote,
		OptimizedRoute: optimized,
		Dropped:        []itinerary.Destination{req.Destinations[1]},
		Metrics:        itinerary.Metrics{DroppedPOIs: []string{"Lalbagh"}, DroppedCount: 1},
	}}
	svc := newService(stub, time.Second)

	res, err := svc.Optimize(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, itinerary.SourceRemote, res.Source)
	assert.Equal(t, []string{"Bull Temple", "Cubbon Park"}, names(res.OptimizedRoute))
	assert.Greater(t, res.Metrics.CostSaved, 0.0)
}

func TestService_Optimize_ValidationSkipsRemote(t *testing.T) {
	stub := &stubRemote{err: errors.New("unused")}
	svc := newService(stub, time.Second)

	req := serviceRequest()
	req.Destinations = nil
	_, err := svc.Optimize(context.Background(), req)
	assert.ErrorIs(t, err, itinerary.ErrNoDestinations)
	assert.Zero(t, stub.calls.Load())
}

func TestService_Optimize_CatalogDown(t *testing.T) {
	svc := itinerary.NewService(itinerary.ServiceConfig{
		Catalog: failingCatalog{},
		Logger:  zerolog.Nop(),
	})

	res, err := svc.Optimize(context.Background(), serviceRequest())
	require.NoError(t, err)
	assert.True(t, res.OptimizedPlan.Legs[0].ToCoord == res.OptimizedPlan.Legs[0].FromCoord)
}

func TestService_Recommend(t *testing.T) {
	svc := newService(nil, 0)

	recs, err := svc.Recommend(context.Background(), itinerary.RecommendRequest{Start: "MG Road", End: "Lalbagh", Limit: 3, Seed: 9})
	require.NoError(t, err)
	assert.Len(t, recs, 3)

	parks, err := svc.Recommend(context.Background(), itinerary.RecommendRequest{Start: "MG Road", Category: "PARK", Seed: 9})
	require.NoError(t, err)
	require.NotEmpty(t, parks)
	for _, r := range parks {
		assert.Equal(t, "park", r.Location.Category)
	}

	_, err = svc.Recommend(context.Background(), itinerary.RecommendRequest{})
	assert.ErrorIs(t, err, itinerary.ErrMissingStart)
}

func TestService_Places(t *testing.T) {
	svc := newService(nil, 0)
	places, err := svc.Places(context.Background())
	require.NoError(t, err)
	assert.Len(t, places, len(catalog.DefaultPlaces()))

	empty := itinerary.NewService(itinerary.ServiceConfig{Logger: zerolog.Nop()})
	places, err = empty.Places(context.Background())
	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestService_Optimize_LiveWeather(t *testing.T) {
	live := &stubWeather{}
	svc := itinerary.NewService(itinerary.ServiceConfig{
		Catalog: catalog.NewInMemoryRepository(catalog.DefaultPlaces()...),
		Weather: live,
		Logger:  zerolog.Nop(),
	})

	res, err := svc.Optimize(context.Background(), serviceRequest())
	require.NoError(t, err)

	legs := len(res.UserPlan.Legs) + len(res.OptimizedPlan.Legs)
	if res.AlternativePlan != nil {
		legs += len(res.AlternativePlan.Legs)
	}
	assert.Equal(t, int32(legs), live.calls.Load())

	want := &itinerary.Weather{Condition: "Drizzle", TemperatureC: 26, WindSpeed: 2.4, RainMm: 1.3}
	for _, leg := range res.UserPlan.Legs {
		assert.Equal(t, want, leg.Weather)
	}
}

func TestService_Optimize_LiveWeatherFailureKeepsSynthesized(t *testing.T) {
	svc := itinerary.NewService(itinerary.ServiceConfig{
		Catalog: catalog.NewInMemoryRepository(catalog.DefaultPlaces()...),
		Weather: &stubWeather{err: weather.ErrProviderUnavailable},
		Logger:  zerolog.Nop(),
	})

	res, err := svc.Optimize(context.Background(), serviceRequest())
	require.NoError(t, err)

	want, err := itinerary.Optimize(serviceRequest(), bengaluru(), itinerary.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, want.UserPlan.Legs, res.UserPlan.Legs)
}

func TestService_Optimize_RemoteWeatherKept(t *testing.T) {
	req := serviceRequest()
	remoteWeather := &itinerary.Weather{Condition: "Clear", TemperatureC: 30}
	stub := &stubRemote{result: &itinerary.Result{
		Source:         itinerary.SourceRemote,
		OptimizedRoute: req.Destinations,
		OptimizedPlan: itinerary.Plan{
			Sequence: req.Destinations,
			Legs: []itinerary.Leg{
				{From: "MG Road", To: "Cubbon Park", Weather: remoteWeather},
				{From: "Cubbon Park", To: "Lalbagh"},
			},
		},
	}}
	live := &stubWeather{}
	svc := itinerary.NewService(itinerary.ServiceConfig{
		Remote:  stub,
		Catalog: catalog.NewInMemoryRepository(catalog.DefaultPlaces()...),
		Weather: live,
		Logger:  zerolog.Nop(),
	})

	res, err := svc.Optimize(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, itinerary.SourceRemote, res.Source)
	assert.Same(t, remoteWeather, res.OptimizedPlan.Legs[0].Weather)
	require.NotNil(t, res.OptimizedPlan.Legs[1].Weather)
	assert.Equal(t, "Drizzle", res.OptimizedPlan.Legs[1].Weather.Condition)
	assert.Equal(t, int32(1), live.calls.Load())
}

func flagService(flags ...*featureflags.Flag) *featureflags.Service {
	repo := featureflags.NewInMemoryRepository()
	_ = repo.SetFlags(context.Background(), flags)
	return featureflags.NewService(featureflags.ServiceConfig{Repository: repo, Logger: zerolog.Nop()})
}

func TestService_Optimize_FlagsSwitchOffRemoteAndWeather(t *testing.T) {
	stub := &stubRemote{err: errors.New("unused")}
	live := &stubWeather{}
	svc := itinerary.NewService(itinerary.ServiceConfig{
		Remote:  stub,
		Catalog: catalog.NewInMemoryRepository(catalog.DefaultPlaces()...),
		Weather: live,
		Flags: flagService(
			&featureflags.Flag{Key: featureflags.FlagDisableRemoteOptimizer, Value: true},
			&featureflags.Flag{Key: featureflags.FlagDisableLiveWeather, Value: true},
		),
		Logger: zerolog.Nop(),
	})

	res, err := svc.Optimize(context.Background(), serviceRequest())
	require.NoError(t, err)
	assert.Equal(t, itinerary.SourceLocal, res.Source)
	assert.Zero(t, stub.calls.Load())
	assert.Zero(t, live.calls.Load())
}

func TestService_Optimize_SearchTrialsFlag(t *testing.T) {
	svc := itinerary.NewService(itinerary.ServiceConfig{
		Catalog: catalog.NewInMemoryRepository(catalog.DefaultPlaces()...),
		Flags:   flagService(&featureflags.Flag{Key: featureflags.FlagSearchTrials, Value: float64(7)}),
		Logger:  zerolog.Nop(),
	})

	res, err := svc.Optimize(context.Background(), serviceRequest())
	require.NoError(t, err)

	opts := itinerary.DefaultOptions()
	opts.Trials = 7
	want, err := itinerary.Optimize(serviceRequest(), bengaluru(), opts)
	require.NoError(t, err)
	assert.Equal(t, want, res)
}

func TestService_Reoptimize(t *testing.T) {
	stub := &stubRemote{err: errors.New("unused")}
	live := &stubWeather{}
	svc := itinerary.NewService(itinerary.ServiceConfig{
		Remote:  stub,
		Catalog: catalog.NewInMemoryRepository(catalog.DefaultPlaces()...),
		Weather: live,
		Logger:  zerolog.Nop(),
	})

	res, err := svc.Reoptimize(context.Background(), tripInProgress())
	require.NoError(t, err)

	assert.Equal(t, itinerary.SourceLocal, res.Source)
	assert.Zero(t, stub.calls.Load())
	assert.Positive(t, live.calls.Load())
	for _, leg := range res.OptimizedPlan.Legs {
		require.NotNil(t, leg.Weather)
		assert.Equal(t, string(weather.ConditionDrizzle), leg.Weather.Condition)
	}

	want, err := itinerary.Reoptimize(tripInProgress(), bengaluru(), itinerary.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, want.OptimizedRoute, res.OptimizedRoute)
	assert.Equal(t, want.Dropped, res.Dropped)
}

func TestService_Reoptimize_Validation(t *testing.T) {
	req := tripInProgress()
	req.Location = ""

	_, err := newService(nil, 0).Reoptimize(context.Background(), req)
	assert.ErrorIs(t, err, itinerary.ErrMissingLocation)
}
