package remote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripwise/tripwise/internal/itinerary"
	"github.com/tripwise/tripwise/internal/itinerary/remote"
	"github.com/tripwise/tripwise/internal/provider/resilience"
)

const generateResponse = `{
  "user": {
    "sequence": [
      {"name": "Lalbagh", "priority": 2, "dwell_minutes": 30},
      {"name": "Cubbon Park", "priority": 5, "dwell_minutes": 60}
    ],
    "dropped": [],
    "total_duration_s": 7800,
    "total_distance_m": 9400,
    "legs": [
      {"from": "MG Road", "to": "Lalbagh", "from_lat": 12.9756, "from_lon": 77.6047, "to_lat": 12.9507, "to_lon": 77.5848,
       "duration_s": 720, "distance_m": 3500, "departure": "09:00", "arrival": "09:12"},
      {"from": "Lalbagh", "to": "Cubbon Park", "from_lat": 12.9507, "from_lon": 77.5848, "to_lat": 12.9763, "to_lon": 77.5929,
       "duration_s": 600, "distance_m": 3000, "departure": "09:42", "arrival": "09:52",
       "weather": {"condition": "Rain", "temperature": 24.5, "wind_speed": 2.1, "rain": 3.2}},
      {"from": "Cubbon Park", "to": "UB City", "from_lat": 12.9763, "from_lon": 77.5929, "to_lat": 12.9716, "to_lon": 77.5960,
       "duration_s": 480, "distance_m": 2900, "departure": "10:52", "arrival": "11:00"}
    ]
  },
  "optimized": {
    "sequence": [
      {"name": "Cubbon Park", "priority": 5, "dwell_minutes": 60}
    ],
    "dropped": [
      {"name": "Lalbagh", "priority": 2, "dwell_minutes": 30}
    ],
    "total_duration_s": 4320,
    "total_distance_m": 2100,
    "legs": [
      {"from": "MG Road", "to": "Cubbon Park", "from_lat": 12.9756, "from_lon": 77.6047, "to_lat": 12.9763, "to_lon": 77.5929,
       "duration_s": 360, "distance_m": 1300, "departure": "09:00", "arrival": "09:06"},
      {"from": "Cubbon Park", "to": "UB City", "from_lat": 12.9763, "from_lon": 77.5929, "to_lat": 12.9716, "to_lon": 77.5960,
       "duration_s": 360, "distance_m": 800, "departure": "10:06", "arrival": "10:12"}
    ]
  }
}`

func request() itinerary.Request {
	day := time.Date(2025, 9, 18, 0, 0, 0, 0, time.UTC)
	return itinerary.Request{
		Start: "MG Road",
		End:   "UB City",
		Destinations: []itinerary.Destination{
			{ID: "dst_a", Name: "Lalbagh", Category: "park", Priority: 2, Dwell: 30 * time.Minute},
			{ID: "dst_b", Name: "Cubbon Park", Category: "park", Priority: 5, Dwell: time.Hour},
		},
		Mode:      itinerary.ModeDriving,
		StartTime: day.Add(9 * time.Hour),
		EndTime:   day.Add(22 * time.Hour),
		MaxTime:   80 * time.Minute,
		Seed:      17,
	}
}

func newClient(url string) *remote.Client {
	return remote.NewClient(remote.ClientConfig{
		BaseURL: url,
		Timeout: time.Second,
		Logger:  zerolog.Nop(),
	})
}

func TestClient_Optimize(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/itinerary/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(generateResponse))
	}))
	defer server.Close()

	res, err := newClient(server.URL).Optimize(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, "09:00", received["start_time"])
	assert.Equal(t, "22:00", received["end_time"])
	assert.Equal(t, "MG Road", received["start"])
	assert.Equal(t, "driving", received["mode"])
	pois, ok := received["pois"].([]any)
	require.True(t, ok)
	require.Len(t, pois, 2)
	first, ok := pois[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Lalbagh", first["name"])
	assert.EqualValues(t, 2, first["priority"])
	assert.EqualValues(t, 30, first["dwell_minutes"])
	assert.NotContains(t, first, "target_arrival")

	assert.Equal(t, itinerary.SourceRemote, res.Source)
	require.Len(t, res.OptimizedRoute, 1)
	assert.Equal(t, "dst_b", res.OptimizedRoute[0].ID)
	require.Len(t, res.Dropped, 1)
	assert.Equal(t, "dst_a", res.Dropped[0].ID)
	assert.Equal(t, []string{"Lalbagh"}, res.Metrics.DroppedPOIs)
	assert.Equal(t, 58*time.Minute, res.Metrics.TimeSaved)
	assert.Equal(t, 72*time.Minute, res.Metrics.TotalTime)
	assert.Nil(t, res.AlternativePlan)
	assert.Equal(t, 130*time.Minute, res.UserPlan.TotalTime)
	assert.InDelta(t, 9.4, res.UserPlan.DistanceKm, 1e-9)
	assert.InDelta(t, 2.1, res.OptimizedPlan.DistanceKm, 1e-9)

	require.Len(t, res.UserPlan.Legs, 3)
	leg := res.UserPlan.Legs[1]
	assert.Equal(t, 10*time.Minute, leg.Duration)
	assert.InDelta(t, 3.0, leg.DistanceKm, 1e-9)
	assert.Equal(t, time.Hour, leg.Dwell)
	require.NotNil(t, leg.Leave)
	assert.Equal(t, "10:52", itinerary.ClockTime(*leg.Leave))
	require.NotNil(t, leg.Weather)
	assert.Equal(t, "Rain", leg.Weather.Condition)
	assert.Nil(t, res.UserPlan.Legs[2].Leave)
	assert.Equal(t, []string{"dst_a", "dst_b"}, []string{res.UserPlan.Sequence[0].ID, res.UserPlan.Sequence[1].ID})
}

func TestClient_Optimize_AlternateAndTargets(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{
		  "user": {
		    "sequence": [{"name": "Lalbagh", "priority": 2, "dwell_minutes": 30}, {"name": "Cubbon Park", "priority": 5, "dwell_minutes": 60}],
		    "dropped": [],
		    "total_duration_s": 7800,
		    "total_distance_m": 9400,
		    "legs": [
		      {"from": "MG Road", "to": "Lalbagh", "duration_s": 720, "distance_m": 3500, "departure": "09:00", "arrival": "09:12"},
		      {"from": "Lalbagh", "to": "Cubbon Park", "duration_s": 600, "distance_m": 3000, "departure": "09:42", "arrival": "09:52"}
		    ]
		  },
		  "optimized": {
		    "sequence": [{"name": "Cubbon Park", "priority": 5, "dwell_minutes": 60}, {"name": "Lalbagh", "priority": 2, "dwell_minutes": 30}],
		    "dropped": [],
		    "total_duration_s": 7000,
		    "total_distance_m": 8000,
		    "legs": []
		  },
		  "alternate": {
		    "sequence": [{"name": "Lalbagh", "priority": 2, "dwell_minutes": 30}],
		    "dropped": [{"name": "Cubbon Park", "priority": 5, "dwell_minutes": 60}],
		    "total_duration_s": 3600,
		    "total_distance_m": 5000,
		    "legs": []
		  }
		}`))
	}))
	defer server.Close()

	req := request()
	target := req.StartTime.Add(10 * time.Minute)
	req.Destinations[0].TargetArrival = &target

	res, err := newClient(server.URL).Optimize(context.Background(), req)
	require.NoError(t, err)

	pois, ok := received["pois"].([]any)
	require.True(t, ok)
	first, ok := pois[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "09:10", first["target_arrival"])

	assert.Equal(t, []string{"dst_b", "dst_a"}, []string{res.OptimizedRoute[0].ID, res.OptimizedRoute[1].ID})
	assert.Empty(t, res.Dropped)
	require.NotNil(t, res.AlternativePlan)
	require.Len(t, res.AlternativeRoute, 1)
	assert.Equal(t, "dst_a", res.AlternativeRoute[0].ID)
	assert.Equal(t, time.Hour, res.AlternativePlan.TotalTime)
	assert.InDelta(t, 5.0, res.AlternativePlan.DistanceKm, 1e-9)

	assert.True(t, res.UserPlan.Legs[0].LateForTarget)
	assert.Equal(t, 30*time.Minute, res.UserPlan.Legs[0].Dwell)
	assert.False(t, res.UserPlan.Legs[1].LateForTarget)
}

func TestClient_Optimize_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
		code    string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			want: itinerary.ErrRemoteUnavailable,
			code: "HTTP_500",
		},
		{
			name: "client error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
			},
			want: itinerary.ErrRemoteUnavailable,
			code: "HTTP_422",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"user":`))
			},
			want: itinerary.ErrRemoteInvalidResponse,
			code: "INVALID_RESPONSE",
		},
		{
			name: "missing plan",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"user": null, "optimized": null}`))
			},
			want: itinerary.ErrRemoteInvalidResponse,
			code: "INVALID_RESPONSE",
		},
		{
			name: "unknown destination",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{
				  "user": {"sequence": [{"name": "Nandi Hills", "priority": 3, "dwell_minutes": 45}], "dropped": [], "total_duration_s": 60, "total_distance_m": 10, "legs": []},
				  "optimized": {"sequence": [], "dropped": [], "total_duration_s": 0, "total_distance_m": 0, "legs": []}
				}`))
			},
			want: itinerary.ErrRemoteInvalidResponse,
			code: "INVALID_RESPONSE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := newClient(server.URL).Optimize(context.Background(), request())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var remoteErr *itinerary.Error
			require.ErrorAs(t, err, &remoteErr)
			assert.Equal(t, remote.ProviderName, remoteErr.Provider)
			assert.Equal(t, tt.code, remoteErr.Code)
		})
	}
}

func TestClient_Optimize_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newClient(server.URL).Optimize(ctx, request())
	assert.ErrorIs(t, err, itinerary.ErrRemoteTimeout)
}

func TestClient_Optimize_SingleAttempt(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	registry := resilience.NewRegistry()
	client := remote.NewClient(remote.ClientConfig{BaseURL: server.URL, Registry: registry, Logger: zerolog.Nop()})

	_, err := client.Optimize(context.Background(), request())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	health := registry.GetHealth(remote.ProviderName)
	require.NotNil(t, health)
	assert.NotNil(t, health.LastFailureAt)
}
