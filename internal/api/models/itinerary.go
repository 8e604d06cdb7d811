package models

// OptimizeRequest is the body of POST /v1/itineraries:optimize.
type OptimizeRequest struct {
	Start        string             `json:"start"`
	End          string             `json:"end,omitempty"`
	Destinations []DestinationInput `json:"destinations"`
	Mode         string             `json:"mode,omitempty"`
	RoundTrip    bool               `json:"roundTrip,omitempty"`

	// Date is the trip day as YYYY-MM-DD. Default: today
	Date string `json:"date,omitempty"`

	// StartTime and EndTime bound the trip window as HH:MM. Default: 09:00 to 22:00
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`

	// MaxMinutes is the time budget. When omitted and both window bounds are
	// given, the window length is the budget.
	MaxMinutes int `json:"maxMinutes,omitempty"`

	Seed int64 `json:"seed,omitempty"`
}

// ReoptimizeRequest is the body of POST /v1/itineraries:reoptimize. It re-plans
// the stops still ahead of a traveler who is already on the way.
type ReoptimizeRequest struct {
	// Location names the traveler's position. Position, when given, places it.
	Location  string             `json:"location,omitempty"`
	Position  *Point             `json:"position,omitempty"`
	End       string             `json:"end"`
	Remaining []DestinationInput `json:"remaining"`
	Mode      string             `json:"mode,omitempty"`

	// Date is the trip day as YYYY-MM-DD. Default: today
	Date string `json:"date,omitempty"`

	// Now is the current time of day as HH:MM. Default: the server clock
	Now string `json:"now,omitempty"`

	// EndTime closes the trip window as HH:MM. Default: 22:00
	EndTime string `json:"endTime,omitempty"`

	// MaxMinutes is the time left. Default: until EndTime
	MaxMinutes int `json:"maxMinutes,omitempty"`

	Seed int64 `json:"seed,omitempty"`
}

// DestinationInput is one requested stop.
type DestinationInput struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Priority int    `json:"priority,omitempty"`

	// DwellMinutes is the time spent at the stop. Default: 15
	DwellMinutes *int `json:"dwellMinutes,omitempty"`

	// TargetArrival is the desired arrival time as HH:MM.
	TargetArrival string `json:"targetArrival,omitempty"`

	Note string `json:"note,omitempty"`
}

// Destination is a stop in a response.
type Destination struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Category      string `json:"category,omitempty"`
	Priority      int    `json:"priority"`
	DwellMinutes  int    `json:"dwellMinutes"`
	TargetArrival string `json:"targetArrival,omitempty"`
	Note          string `json:"note,omitempty"`
}

// OptimizeResponse is the result of an optimization run.
type OptimizeResponse struct {
	Source          string        `json:"source"`
	Seed            int64         `json:"seed"`
	Mode            string        `json:"mode"`
	OriginalRoute   []Destination `json:"originalRoute"`
	OptimizedRoute  []Destination `json:"optimizedRoute"`
	Dropped         []Destination `json:"dropped,omitempty"`
	UserPlan        Plan          `json:"userPlan"`
	OptimizedPlan   Plan          `json:"optimizedPlan"`
	AlternativePlan *Plan         `json:"alternativePlan,omitempty"`
	Metrics         Metrics       `json:"metrics"`
}

// Plan is an ordered stop sequence with its leg breakdown.
type Plan struct {
	Sequence     []string `json:"sequence"`
	Dropped      []string `json:"dropped,omitempty"`
	TotalTime    string   `json:"totalTime"`
	TotalMinutes int      `json:"totalMinutes"`
	DistanceKm   float64  `json:"distanceKm"`
	Cost         float64  `json:"cost"`
	OverTime     []string `json:"overTime,omitempty"`
	Polyline     string   `json:"polyline"`

	// StraightLineKm is the great-circle length of the polyline. It equals
	// DistanceKm for local plans and falls below it for routed remote plans.
	StraightLineKm float64 `json:"straightLineKm"`
	Legs         []Leg    `json:"legs"`
}

// Leg is one hop of a plan.
type Leg struct {
	From          string   `json:"from"`
	To            string   `json:"to"`
	FromPoint     Point    `json:"fromPoint"`
	ToPoint       Point    `json:"toPoint"`
	Departure     string   `json:"departure"`
	Arrival       string   `json:"arrival"`
	Leave         string   `json:"leave,omitempty"`
	TravelTime    string   `json:"travelTime"`
	TravelMinutes int      `json:"travelMinutes"`
	DwellMinutes  int      `json:"dwellMinutes"`
	DistanceKm    float64  `json:"distanceKm"`
	LateForTarget bool     `json:"lateForTarget,omitempty"`
	Weather       *Weather `json:"weather,omitempty"`
}

// Weather is the forecast at a leg's arrival.
type Weather struct {
	Condition    string  `json:"condition"`
	TemperatureC float64 `json:"temperatureC"`
	WindSpeed    float64 `json:"windSpeed"`
	RainMm       float64 `json:"rainMm"`
}

// Metrics compares the optimized plan with the original order.
type Metrics struct {
	TotalDistanceKm  float64  `json:"totalDistanceKm"`
	TotalTime        string   `json:"totalTime"`
	TotalMinutes     int      `json:"totalMinutes"`
	TimeSaved        string   `json:"timeSaved"`
	TimeSavedMinutes int      `json:"timeSavedMinutes"`
	CostSaved        float64  `json:"costSaved"`
	DroppedPOIs      []string `json:"droppedPois"`
	DroppedCount     int      `json:"droppedCount"`
}

// RecommendationRequest is the body of POST /v1/recommendations.
type RecommendationRequest struct {
	Start    string `json:"start"`
	End      string `json:"end,omitempty"`
	Mode     string `json:"mode,omitempty"`
	Category string `json:"category,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Seed     int64  `json:"seed,omitempty"`
}

// RecommendationResponse lists ranked places.
type RecommendationResponse struct {
	Items []Recommendation `json:"items"`
}

// Recommendation is one ranked place.
type Recommendation struct {
	Name          string  `json:"name"`
	Category      string  `json:"category,omitempty"`
	Point         Point   `json:"point"`
	Score         float64 `json:"score"`
	DistanceKm    float64 `json:"distanceKm"`
	DetourMinutes int     `json:"detourMinutes"`
	PriceTier     string  `json:"priceTier"`
	OnRoute       bool    `json:"onRoute"`
	Rating        float64 `json:"rating,omitempty"`
}

// PlaceListResponse lists catalog places.
type PlaceListResponse struct {
	Items []Place `json:"items"`
	Count int     `json:"count"`
}

// Place is a catalog entry.
type Place struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Category        string  `json:"category,omitempty"`
	Point           Point   `json:"point"`
	Rating          float64 `json:"rating"`
	Popularity      int     `json:"popularity"`
	AvgDwellMinutes int     `json:"avgDwellMinutes,omitempty"`
}
