// Package featureflags provides runtime switches for the itinerary service.
package featureflags

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Well-known feature flag keys.
const (
	// FlagDisableRemoteOptimizer answers every optimization with the local engine.
	FlagDisableRemoteOptimizer = "disable_remote_optimizer"

	// FlagDisableLiveWeather keeps synthesized leg weather even when a weather provider is configured.
	FlagDisableLiveWeather = "disable_live_weather"

	// FlagSearchTrials overrides the number of random permutations per search. 0 keeps the configured value.
	FlagSearchTrials = "search_trials"
)

// Flag represents a feature flag with its current value.
type Flag struct {
	Key       string    `json:"key"`
	Value     any       `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BoolValue returns the flag value as a boolean.
// Returns the default value if the flag is nil or not a boolean.
func (f *Flag) BoolValue(defaultValue bool) bool {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case bool:
		return v
	case float64:
		// JSON unmarshals numbers as float64
		return v != 0
	default:
		return defaultValue
	}
}

// IntValue returns the flag value as an integer.
// Returns the default value if the flag is nil or not a number.
func (f *Flag) IntValue(defaultValue int) int {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return defaultValue
	}
}

// DefaultFlags returns the default feature flags for the application.
func DefaultFlags() map[string]*Flag {
	now := time.Now()
	return map[string]*Flag{
		FlagDisableRemoteOptimizer: {Key: FlagDisableRemoteOptimizer, Value: false, UpdatedAt: now},
		FlagDisableLiveWeather:     {Key: FlagDisableLiveWeather, Value: false, UpdatedAt: now},
		FlagSearchTrials:           {Key: FlagSearchTrials, Value: float64(0), UpdatedAt: now},
	}
}

// ParseFlags reads a comma separated list of key=value pairs, as given in the
// FEATURE_FLAGS environment variable. Values are booleans, numbers or strings.
func ParseFlags(s string) ([]*Flag, error) {
	var flags []*Flag
	now := time.Now()
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("feature flag %q: expected key=value", pair)
		}
		flags = append(flags, &Flag{Key: key, Value: parseValue(strings.TrimSpace(raw)), UpdatedAt: now})
	}
	return flags, nil
}

// parseValue types raw the way a JSON round trip through the repository would.
func parseValue(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
