package remote

// Wire types of the remote itinerary service. Times of day travel as "HH:MM",
// durations in seconds and distances in meters.

type generateRequest struct {
	Start     string    `json:"start"`
	End       string    `json:"end"`
	POIs      []poiWire `json:"pois"`
	Mode      string    `json:"mode"`
	RoundTrip bool      `json:"round_trip"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	MaxMins   int       `json:"max_minutes,omitempty"`
	Seed      int64     `json:"seed,omitempty"`
}

type poiWire struct {
	Name          string `json:"name"`
	Priority      int    `json:"priority"`
	DwellMinutes  int    `json:"dwell_minutes"`
	TargetArrival string `json:"target_arrival,omitempty"`
}

type generateResponse struct {
	User      *planResponse `json:"user"`
	Optimized *planResponse `json:"optimized"`
	Alternate *planResponse `json:"alternate"`
}

type planResponse struct {
	Sequence       []poiWire     `json:"sequence"`
	Dropped        []poiWire     `json:"dropped"`
	TotalDurationS float64       `json:"total_duration_s"`
	TotalDistanceM float64       `json:"total_distance_m"`
	Legs           []legResponse `json:"legs"`
}

type legResponse struct {
	From      string           `json:"from"`
	To        string           `json:"to"`
	FromLat   float64          `json:"from_lat"`
	FromLon   float64          `json:"from_lon"`
	ToLat     float64          `json:"to_lat"`
	ToLon     float64          `json:"to_lon"`
	DurationS float64          `json:"duration_s"`
	DistanceM float64          `json:"distance_m"`
	Departure string           `json:"departure"`
	Arrival   string           `json:"arrival"`
	Weather   *weatherResponse `json:"weather,omitempty"`
}

type weatherResponse struct {
	Condition   string  `json:"condition"`
	Temperature float64 `json:"temperature"`
	WindSpeed   float64 `json:"wind_speed"`
	Rain        float64 `json:"rain"`
}
